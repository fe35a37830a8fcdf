package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAIClient(t *testing.T, handler http.HandlerFunc) *openai.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := openai.DefaultConfig("sk-test")
	cfg.BaseURL = srv.URL + "/v1"
	return openai.NewClientWithConfig(cfg)
}

func TestClassifyModeration(t *testing.T) {
	tests := []struct {
		name string
		resp openai.ModerationResponse
		want ModerationVerdict
	}{
		{"no results", openai.ModerationResponse{}, VerdictClear},
		{"not flagged", openai.ModerationResponse{Results: []openai.Result{{Flagged: false,
			Categories: openai.ResultCategories{SelfHarm: true}}}}, VerdictClear},
		{"flagged self-harm", openai.ModerationResponse{Results: []openai.Result{{Flagged: true,
			Categories: openai.ResultCategories{SelfHarm: true}}}}, VerdictCrisis},
		{"flagged intent", openai.ModerationResponse{Results: []openai.Result{{Flagged: true,
			Categories: openai.ResultCategories{SelfHarmIntent: true}}}}, VerdictCrisis},
		{"flagged instructions", openai.ModerationResponse{Results: []openai.Result{{Flagged: true,
			Categories: openai.ResultCategories{SelfHarmInstructions: true}}}}, VerdictCrisis},
		{"flagged violence", openai.ModerationResponse{Results: []openai.Result{{Flagged: true,
			Categories: openai.ResultCategories{Violence: true}}}}, VerdictModerate},
		{"flagged no categories", openai.ModerationResponse{Results: []openai.Result{{Flagged: true}}}, VerdictModerate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyModeration(tt.resp))
		})
	}
}

func TestOpenAIModerator_Moderate(t *testing.T) {
	client := newTestAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/moderations", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "I feel like I want to end it all", body["input"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"modr-1","model":"omni-moderation-latest","results":[{"flagged":true,"categories":{"self-harm/intent":true}}]}`))
	})

	verdict, err := NewOpenAIModerator(client).Moderate(context.Background(), "I feel like I want to end it all")
	require.NoError(t, err)
	assert.Equal(t, VerdictCrisis, verdict)
}

func TestOpenAIModerator_EmptyResults(t *testing.T) {
	client := newTestAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"modr-2"}`))
	})

	verdict, err := NewOpenAIModerator(client).Moderate(context.Background(), "A quiet afternoon reading")
	require.NoError(t, err)
	assert.Equal(t, VerdictClear, verdict)
}

func TestOpenAIModerator_UpstreamError(t *testing.T) {
	client := newTestAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error":{"message":"upstream down","type":"server_error"}}`))
	})

	_, err := NewOpenAIModerator(client).Moderate(context.Background(), "A quiet afternoon reading")
	assert.Error(t, err)
}
