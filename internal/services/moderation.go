package services

import (
	"context"

	"github.com/sashabaranov/go-openai"
)

// ModerationVerdict is the outcome of the moderation gate.
type ModerationVerdict int

const (
	// VerdictClear means nothing was flagged; the entry proceeds to generation.
	VerdictClear ModerationVerdict = iota
	// VerdictModerate means the text was flagged for something other than self-harm.
	VerdictModerate
	// VerdictCrisis means the text was flagged for a self-harm category.
	VerdictCrisis
)

func (v ModerationVerdict) String() string {
	switch v {
	case VerdictModerate:
		return "moderate"
	case VerdictCrisis:
		return "crisis"
	default:
		return "clear"
	}
}

// Moderator classifies journal text.
type Moderator interface {
	Moderate(ctx context.Context, text string) (ModerationVerdict, error)
}

// OpenAIModerator calls an OpenAI-compatible /moderations endpoint.
type OpenAIModerator struct {
	client *openai.Client
}

// NewOpenAIModerator wraps an already configured client.
func NewOpenAIModerator(client *openai.Client) *OpenAIModerator {
	return &OpenAIModerator{client: client}
}

// Moderate returns the verdict for text. Transport errors are returned as is;
// the caller decides how to surface them.
func (m *OpenAIModerator) Moderate(ctx context.Context, text string) (ModerationVerdict, error) {
	resp, err := m.client.Moderations(ctx, openai.ModerationRequest{Input: text})
	if err != nil {
		return VerdictClear, err
	}
	return ClassifyModeration(resp), nil
}

// ClassifyModeration reads the first result only. A response with no results
// counts as not flagged.
func ClassifyModeration(resp openai.ModerationResponse) ModerationVerdict {
	if len(resp.Results) == 0 {
		return VerdictClear
	}
	first := resp.Results[0]
	if !first.Flagged {
		return VerdictClear
	}
	c := first.Categories
	if c.SelfHarm || c.SelfHarmIntent || c.SelfHarmInstructions {
		return VerdictCrisis
	}
	return VerdictModerate
}
