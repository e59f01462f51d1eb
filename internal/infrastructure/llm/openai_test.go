package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChatModel struct {
	out  *schema.Message
	err  error
	msgs []*schema.Message
	opts *model.Options
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.msgs = input
	f.opts = model.GetCommonOptions(nil, opts...)
	return f.out, f.err
}

func (f *fakeChatModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

func TestOpenAIProvider_Generate(t *testing.T) {
	chat := &fakeChatModel{out: &schema.Message{
		Role:    schema.Assistant,
		Content: "FADE IN:",
		ResponseMeta: &schema.ResponseMeta{
			Usage: &schema.TokenUsage{PromptTokens: 120, CompletionTokens: 30},
		},
	}}
	p := newOpenAIProvider("openai", "gpt-4o-mini", chat)

	temp := float32(0.4)
	res, err := p.Generate(context.Background(), TextRequest{
		System:      "You write screenplays.",
		Prompt:      "Open the scene.",
		Temperature: &temp,
		MaxTokens:   512,
	})
	require.NoError(t, err)

	assert.Equal(t, "FADE IN:", res.Text)
	assert.Equal(t, "openai", res.Provider)
	assert.Equal(t, "gpt-4o-mini", res.Model)
	assert.Equal(t, Usage{Prompt: 120, Completion: 30, Total: 150}, res.Usage)

	require.Len(t, chat.msgs, 2)
	assert.Equal(t, schema.System, chat.msgs[0].Role)
	assert.Equal(t, schema.User, chat.msgs[1].Role)
	assert.Equal(t, "Open the scene.", chat.msgs[1].Content)
	require.NotNil(t, chat.opts.Temperature)
	assert.InDelta(t, 0.4, *chat.opts.Temperature, 1e-6)
	require.NotNil(t, chat.opts.MaxTokens)
	assert.Equal(t, 512, *chat.opts.MaxTokens)
}

func TestOpenAIProvider_NoSystemMessage(t *testing.T) {
	chat := &fakeChatModel{out: &schema.Message{Content: "ok"}}
	p := newOpenAIProvider("openai", "gpt-4o-mini", chat)

	res, err := p.Generate(context.Background(), TextRequest{Prompt: "hi"})
	require.NoError(t, err)
	assert.Len(t, chat.msgs, 1)
	assert.Nil(t, chat.opts.MaxTokens)
	assert.Equal(t, Usage{}, res.Usage)
}

func TestOpenAIProvider_Errors(t *testing.T) {
	upstream := errors.New("connection reset")
	p := newOpenAIProvider("openai", "gpt-4o-mini", &fakeChatModel{err: upstream})
	_, err := p.Generate(context.Background(), TextRequest{Prompt: "hi"})
	assert.ErrorIs(t, err, upstream)

	p = newOpenAIProvider("openai", "gpt-4o-mini", &fakeChatModel{out: &schema.Message{Content: "   "}})
	_, err = p.Generate(context.Background(), TextRequest{Prompt: "hi"})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}
