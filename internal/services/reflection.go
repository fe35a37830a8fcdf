package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/AnshRaj112/mindsoothe-backend/internal/models"
)

// ReflectionSystemPrompt is sent verbatim with every generation request.
const ReflectionSystemPrompt = `You are a compassionate journaling assistant for a mental wellness app called MindSoothe Journal. Your role is to provide gentle, supportive responses to journal entries.

IMPORTANT: Always return a valid JSON object with exactly this format:
{
  "mood": "string (one word describing the primary emotion, e.g., 'Anxious', 'Happy', 'Calm', 'Stressed', 'Reflective', 'Sad', 'Hopeful')",
  "reflection": "string (2-3 sentences of empathetic, supportive reflection on their entry. Be warm, understanding, and validating)",
  "suggestions": ["string", "string", "string"] (exactly 3 practical, gentle suggestions for self-care or coping strategies),
  "severity": "none"
}

Guidelines:
- Be empathetic and non-judgmental
- Focus on validation and gentle encouragement
- Suggest practical, achievable self-care activities
- Keep suggestions positive and actionable
- Avoid giving medical or therapeutic advice
- Use warm, supportive language
- The mood should be a single descriptive word
- Reflection should acknowledge their feelings and provide gentle support`

const (
	generationTemperature = 0.7
	generationMaxTokens   = 400

	// SuggestionCount is the number of suggestions every entry carries.
	SuggestionCount = 3
)

// ErrEmptyCompletion is returned when the completion has no usable content.
var ErrEmptyCompletion = errors.New("completion returned no content")

// Reflection is the structured payload shown to the user.
type Reflection struct {
	Mood        string
	Reflection  string
	Suggestions []string
	Severity    models.Severity
}

// FallbackReflection is substituted whenever generated content is unusable.
func FallbackReflection() Reflection {
	return Reflection{
		Mood:       "Reflective",
		Reflection: "Thank you for sharing your thoughts with me. Your willingness to reflect and express yourself is a positive step in your wellness journey.",
		Suggestions: []string{
			"Take a few deep breaths and center yourself",
			"Practice self-compassion and be kind to yourself",
			"Consider what small positive action you could take today",
		},
		Severity: models.SeverityNone,
	}
}

// ReflectionResult is either a DecodedReflection or a MalformedReflection.
type ReflectionResult interface {
	isReflectionResult()
}

// DecodedReflection holds content that matched the expected schema.
type DecodedReflection struct {
	Reflection Reflection
	// ReportedSeverity is the severity field as the model sent it, before coercion.
	ReportedSeverity string
}

// MalformedReflection holds content that could not be used.
type MalformedReflection struct {
	Raw    string
	Reason error
}

func (DecodedReflection) isReflectionResult()   {}
func (MalformedReflection) isReflectionResult() {}

// Reflector produces a reflection for journal text.
type Reflector interface {
	Reflect(ctx context.Context, text string) (ReflectionResult, error)
}

// OpenAIReflector asks an OpenAI-compatible chat completion endpoint for a reflection.
type OpenAIReflector struct {
	client *openai.Client
	model  string
}

// NewOpenAIReflector wraps an already configured client.
func NewOpenAIReflector(client *openai.Client, model string) *OpenAIReflector {
	return &OpenAIReflector{client: client, model: model}
}

// Reflect returns an error only when the service could not be reached or
// returned no content. Unusable content comes back as a MalformedReflection.
func (r *OpenAIReflector) Reflect(ctx context.Context, text string) (ReflectionResult, error) {
	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: r.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: ReflectionSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature: generationTemperature,
		MaxTokens:   generationMaxTokens,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, ErrEmptyCompletion
	}
	return DecodeReflection(resp.Choices[0].Message.Content), nil
}

type reflectionPayload struct {
	Mood        *string         `json:"mood"`
	Reflection  *string         `json:"reflection"`
	Suggestions json.RawMessage `json:"suggestions"`
	Severity    json.RawMessage `json:"severity"`
}

var reflectionFields = map[string]bool{
	"mood":        true,
	"reflection":  true,
	"suggestions": true,
	"severity":    true,
}

// DecodeReflection parses generated content into a Reflection. Keys must
// match the schema exactly and no other keys are allowed. Mood and
// reflection must be non-empty strings and suggestions an array of strings.
// Severity is always coerced to "none" and suggestions are truncated or
// padded to SuggestionCount.
func DecodeReflection(content string) ReflectionResult {
	var fields map[string]json.RawMessage
	dec := json.NewDecoder(strings.NewReader(content))
	if err := dec.Decode(&fields); err != nil {
		return MalformedReflection{Raw: content, Reason: fmt.Errorf("decode: %w", err)}
	}
	if dec.More() {
		return MalformedReflection{Raw: content, Reason: errors.New("trailing data after object")}
	}
	for k := range fields {
		if !reflectionFields[k] {
			return MalformedReflection{Raw: content, Reason: fmt.Errorf("unexpected field %q", k)}
		}
	}

	// encoding/json matches keys case-insensitively; the check above leaves
	// only exact names.
	var p reflectionPayload
	if err := json.Unmarshal([]byte(content), &p); err != nil {
		return MalformedReflection{Raw: content, Reason: fmt.Errorf("decode: %w", err)}
	}
	if p.Mood == nil || strings.TrimSpace(*p.Mood) == "" {
		return MalformedReflection{Raw: content, Reason: errors.New("missing mood")}
	}
	if p.Reflection == nil || strings.TrimSpace(*p.Reflection) == "" {
		return MalformedReflection{Raw: content, Reason: errors.New("missing reflection")}
	}
	trimmed := bytes.TrimSpace(p.Suggestions)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return MalformedReflection{Raw: content, Reason: errors.New("suggestions is not an array")}
	}
	var suggestions []string
	if err := json.Unmarshal(trimmed, &suggestions); err != nil {
		return MalformedReflection{Raw: content, Reason: fmt.Errorf("suggestions: %w", err)}
	}

	return DecodedReflection{Reflection: Reflection{
		Mood:        *p.Mood,
		Reflection:  *p.Reflection,
		Suggestions: normalizeSuggestions(suggestions),
		// Generated entries are never urgent; only the crisis path writes urgent records.
		Severity: models.SeverityNone,
	}, ReportedSeverity: reportedSeverity(p.Severity)}
}

func reportedSeverity(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func normalizeSuggestions(in []string) []string {
	out := make([]string, 0, SuggestionCount)
	for _, s := range in {
		if len(out) == SuggestionCount {
			break
		}
		out = append(out, s)
	}
	for _, s := range FallbackReflection().Suggestions[len(out):] {
		out = append(out, s)
	}
	return out
}
