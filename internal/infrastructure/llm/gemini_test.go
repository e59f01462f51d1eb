package llm

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"storyforge-ai-api/internal/config"
)

type fakeContentModels struct {
	errs    []error
	resp    *genai.GenerateContentResponse
	calls   int
	lastCfg *genai.GenerateContentConfig
	model   string
}

func (f *fakeContentModels) GenerateContent(_ context.Context, model string, _ []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls++
	f.lastCfg = cfg
	f.model = model
	if f.calls <= len(f.errs) && f.errs[f.calls-1] != nil {
		return nil, f.errs[f.calls-1]
	}
	return f.resp, nil
}

func textResponse(text string, prompt, completion, total int32) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     prompt,
			CandidatesTokenCount: completion,
			TotalTokenCount:      total,
		},
	}
}

func fastRetry() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Initial: time.Millisecond, Max: 2 * time.Millisecond, Multiplier: 2}
}

func tooMany() error {
	return genai.APIError{Code: http.StatusTooManyRequests, Message: "resource exhausted"}
}

func TestGeminiProvider_Generate(t *testing.T) {
	models := &fakeContentModels{resp: textResponse("  A lighthouse keeper finds a map.  ", 1000, 500, 1500)}
	p := newGeminiProvider("gemini", config.ProviderConfig{Model: "gemini-2.0-flash", MaxTokens: 2048}, models, fastRetry())

	temp := float32(0.7)
	res, err := p.Generate(context.Background(), TextRequest{System: "You are a screenwriter.", Prompt: "logline", Temperature: &temp})
	require.NoError(t, err)

	assert.Equal(t, "A lighthouse keeper finds a map.", res.Text)
	assert.Equal(t, "gemini", res.Provider)
	assert.Equal(t, "gemini-2.0-flash", res.Model)
	assert.Equal(t, Usage{Prompt: 1000, Completion: 500, Total: 1500}, res.Usage)

	assert.Equal(t, "gemini-2.0-flash", models.model)
	require.NotNil(t, models.lastCfg.Temperature)
	assert.InDelta(t, 0.7, *models.lastCfg.Temperature, 1e-6)
	assert.Equal(t, int32(2048), models.lastCfg.MaxOutputTokens)
	require.NotNil(t, models.lastCfg.SystemInstruction)
	assert.Equal(t, "You are a screenwriter.", models.lastCfg.SystemInstruction.Parts[0].Text)
}

func TestGeminiProvider_TotalFallsBackToSum(t *testing.T) {
	models := &fakeContentModels{resp: textResponse("ok", 10, 5, 0)}
	p := newGeminiProvider("gemini", config.ProviderConfig{Model: "gemini-2.0-flash"}, models, fastRetry())

	res, err := p.Generate(context.Background(), TextRequest{Prompt: "x", MaxTokens: 64})
	require.NoError(t, err)
	assert.Equal(t, int64(15), res.Usage.Total)
	assert.Equal(t, int32(64), models.lastCfg.MaxOutputTokens)
}

func TestGeminiProvider_RetriesRateLimit(t *testing.T) {
	models := &fakeContentModels{
		errs: []error{tooMany(), tooMany()},
		resp: textResponse("third time", 1, 1, 2),
	}
	p := newGeminiProvider("gemini", config.ProviderConfig{Model: "gemini-2.0-flash"}, models, fastRetry())

	res, err := p.Generate(context.Background(), TextRequest{Prompt: "x"})
	require.NoError(t, err)
	assert.Equal(t, "third time", res.Text)
	assert.Equal(t, 3, models.calls)
}

func TestGeminiProvider_GivesUpAfterMaxAttempts(t *testing.T) {
	models := &fakeContentModels{errs: []error{tooMany(), tooMany(), tooMany(), tooMany()}}
	p := newGeminiProvider("gemini", config.ProviderConfig{Model: "gemini-2.0-flash"}, models, fastRetry())

	_, err := p.Generate(context.Background(), TextRequest{Prompt: "x"})
	require.Error(t, err)
	assert.True(t, IsRateLimited(err))
	assert.Equal(t, 3, models.calls)
}

func TestGeminiProvider_DoesNotRetryOtherErrors(t *testing.T) {
	models := &fakeContentModels{errs: []error{genai.APIError{Code: http.StatusInternalServerError, Message: "boom"}}}
	p := newGeminiProvider("gemini", config.ProviderConfig{Model: "gemini-2.0-flash"}, models, fastRetry())

	_, err := p.Generate(context.Background(), TextRequest{Prompt: "x"})
	require.Error(t, err)
	assert.False(t, IsRateLimited(err))
	assert.Equal(t, 1, models.calls)
}

func TestGeminiProvider_EmptyResponse(t *testing.T) {
	models := &fakeContentModels{resp: &genai.GenerateContentResponse{}}
	p := newGeminiProvider("gemini", config.ProviderConfig{Model: "gemini-2.0-flash"}, models, fastRetry())

	_, err := p.Generate(context.Background(), TextRequest{Prompt: "x"})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestResponseText_SkipsThoughts(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: "planning...", Thought: true},
				{Text: "INT. KITCHEN - "},
				{Text: "NIGHT"},
			}},
		}},
	}
	assert.Equal(t, "INT. KITCHEN - NIGHT", responseText(resp))
}

func TestIsRateLimited(t *testing.T) {
	assert.False(t, IsRateLimited(nil))
	assert.False(t, IsRateLimited(errors.New("429 in text only")))
	assert.True(t, IsRateLimited(tooMany()))
	assert.True(t, IsRateLimited(&genai.APIError{Code: http.StatusTooManyRequests}))
}
