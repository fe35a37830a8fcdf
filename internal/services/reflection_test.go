package services

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/mindsoothe-backend/internal/models"
)

func TestDecodeReflection_WellFormed(t *testing.T) {
	res := DecodeReflection(`{"mood":"Happy","reflection":"Great day","suggestions":["A","B","C"],"severity":"none"}`)

	decoded, ok := res.(DecodedReflection)
	require.True(t, ok, "got %T", res)
	assert.Equal(t, Reflection{
		Mood:        "Happy",
		Reflection:  "Great day",
		Suggestions: []string{"A", "B", "C"},
		Severity:    models.SeverityNone,
	}, decoded.Reflection)
	assert.Equal(t, "none", decoded.ReportedSeverity)
}

func TestDecodeReflection_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"plain text", "You sound like you had a lovely day!"},
		{"code fence", "```json\n{\"mood\":\"Calm\"}\n```"},
		{"null", "null"},
		{"array", `["Happy"]`},
		{"missing mood", `{"reflection":"r","suggestions":["a","b","c"]}`},
		{"empty mood", `{"mood":"","reflection":"r","suggestions":["a","b","c"]}`},
		{"missing reflection", `{"mood":"Calm","suggestions":["a","b","c"]}`},
		{"missing suggestions", `{"mood":"Calm","reflection":"r"}`},
		{"suggestions string", `{"mood":"Calm","reflection":"r","suggestions":"rest"}`},
		{"suggestions null", `{"mood":"Calm","reflection":"r","suggestions":null}`},
		{"suggestions numbers", `{"mood":"Calm","reflection":"r","suggestions":[1,2,3]}`},
		{"mood number", `{"mood":7,"reflection":"r","suggestions":["a","b","c"]}`},
		{"upper-case keys", `{"MOOD":"Happy","Reflection":"ok","SUGGESTIONS":["a","b","c"]}`},
		{"unknown field", `{"mood":"Calm","reflection":"r","suggestions":["a","b","c"],"extra":1}`},
		{"two objects", `{"mood":"Calm","reflection":"r","suggestions":["a","b","c"]} {"mood":"x"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := DecodeReflection(tt.content)
			malformed, ok := res.(MalformedReflection)
			require.True(t, ok, "got %T", res)
			assert.Equal(t, tt.content, malformed.Raw)
			assert.Error(t, malformed.Reason)
		})
	}
}

func TestDecodeReflection_SeverityCoercion(t *testing.T) {
	for _, sev := range []string{`"urgent"`, `"moderate"`, `"banana"`, `3`} {
		res := DecodeReflection(`{"mood":"Sad","reflection":"r","suggestions":["a","b","c"],"severity":` + sev + `}`)
		decoded, ok := res.(DecodedReflection)
		require.True(t, ok, sev)
		assert.Equal(t, models.SeverityNone, decoded.Reflection.Severity, sev)
		assert.NotEmpty(t, decoded.ReportedSeverity, sev)
	}

	res := DecodeReflection(`{"mood":"Sad","reflection":"r","suggestions":["a","b","c"]}`)
	decoded := res.(DecodedReflection)
	assert.Equal(t, models.SeverityNone, decoded.Reflection.Severity)
	assert.Empty(t, decoded.ReportedSeverity)
}

func TestDecodeReflection_SuggestionCount(t *testing.T) {
	fallback := FallbackReflection().Suggestions

	short := DecodeReflection(`{"mood":"Calm","reflection":"r","suggestions":["Walk"]}`).(DecodedReflection)
	assert.Equal(t, []string{"Walk", fallback[1], fallback[2]}, short.Reflection.Suggestions)

	empty := DecodeReflection(`{"mood":"Calm","reflection":"r","suggestions":[]}`).(DecodedReflection)
	assert.Equal(t, fallback, empty.Reflection.Suggestions)

	long := DecodeReflection(`{"mood":"Calm","reflection":"r","suggestions":["a","b","c","d","e"]}`).(DecodedReflection)
	assert.Equal(t, []string{"a", "b", "c"}, long.Reflection.Suggestions)
}

func TestFallbackReflection(t *testing.T) {
	fb := FallbackReflection()
	assert.Equal(t, "Reflective", fb.Mood)
	assert.Len(t, fb.Suggestions, SuggestionCount)
	assert.Equal(t, models.SeverityNone, fb.Severity)

	// Callers get their own copy.
	fb.Suggestions[0] = "changed"
	assert.NotEqual(t, "changed", FallbackReflection().Suggestions[0])
}

func chatCompletionBody(content string) string {
	b, _ := json.Marshal(map[string]interface{}{
		"id":     "chatcmpl-1",
		"object": "chat.completion",
		"model":  "gpt-4o-mini",
		"choices": []map[string]interface{}{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]string{"role": "assistant", "content": content},
		}},
	})
	return string(b)
}

func TestOpenAIReflector_Reflect(t *testing.T) {
	client := newTestAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)

		var req openai.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		assert.Equal(t, 400, req.MaxTokens)
		assert.InDelta(t, 0.7, req.Temperature, 0.001)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, openai.ChatMessageRoleSystem, req.Messages[0].Role)
		assert.Equal(t, ReflectionSystemPrompt, req.Messages[0].Content)
		assert.Equal(t, openai.ChatMessageRoleUser, req.Messages[1].Role)
		assert.Equal(t, "Today was a great day at the park", req.Messages[1].Content)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(chatCompletionBody(`{"mood":"Happy","reflection":"Great day","suggestions":["A","B","C"],"severity":"none"}`)))
	})

	res, err := NewOpenAIReflector(client, "gpt-4o-mini").Reflect(context.Background(), "Today was a great day at the park")
	require.NoError(t, err)
	decoded, ok := res.(DecodedReflection)
	require.True(t, ok, "got %T", res)
	assert.Equal(t, "Happy", decoded.Reflection.Mood)
}

func TestOpenAIReflector_EmptyCompletion(t *testing.T) {
	tests := map[string]string{
		"no choices":    `{"id":"chatcmpl-2","choices":[]}`,
		"empty content": chatCompletionBody(""),
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			client := newTestAIClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(body))
			})
			_, err := NewOpenAIReflector(client, "gpt-4o-mini").Reflect(context.Background(), "Today was a great day at the park")
			assert.ErrorIs(t, err, ErrEmptyCompletion)
		})
	}
}

func TestOpenAIReflector_UpstreamError(t *testing.T) {
	client := newTestAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	})
	_, err := NewOpenAIReflector(client, "gpt-4o-mini").Reflect(context.Background(), "Today was a great day at the park")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmptyCompletion)
}
