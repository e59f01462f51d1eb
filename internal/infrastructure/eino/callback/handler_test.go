package callback

import (
	"context"
	"errors"
	"testing"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"storyforge-ai-api/internal/domain/service"
)

func TestChatModelCallback(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr)))

	h := newChatModelCallbackHandler()
	info := &einocb.RunInfo{Component: components.ComponentOfChatModel}
	base := service.WithProvider(service.WithOperation(context.Background(), "chat"), "openai")

	ctx := h.OnStart(base, info, &model.CallbackInput{
		Messages: []*schema.Message{schema.SystemMessage("sys"), schema.UserMessage("hi")},
		Config:   &model.Config{Model: "gpt-4o-mini"},
	})
	h.OnEnd(ctx, info, &model.CallbackOutput{TokenUsage: &model.TokenUsage{PromptTokens: 12, CompletionTokens: 30, TotalTokens: 42}})

	ctx = h.OnStart(base, info, nil)
	h.OnError(ctx, info, errors.New("upstream 500"))

	spans := sr.Ended()
	require.Len(t, spans, 2)

	ok := spans[0]
	assert.Equal(t, "llm.chat_model.generate", ok.Name())
	attrs := attribute.NewSet(ok.Attributes()...)
	v, found := attrs.Value("llm.provider")
	require.True(t, found)
	assert.Equal(t, "openai", v.AsString())
	v, found = attrs.Value("llm.total_tokens")
	require.True(t, found)
	assert.Equal(t, int64(42), v.AsInt64())
	v, found = attrs.Value("llm.input_messages")
	require.True(t, found)
	assert.Equal(t, int64(2), v.AsInt64())
	_, found = attrs.Value("llm.latency_ms")
	assert.True(t, found)

	assert.Equal(t, codes.Error, spans[1].Status().Code)
}

func TestInitIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Init()
		Init()
	})
	assert.NotNil(t, global)
}

func TestOnEndWithoutStart(t *testing.T) {
	_, ok := elapsedMillis(context.Background())
	assert.False(t, ok)
	assert.NotPanics(t, func() {
		onEnd(context.Background(), nil, nil)
	})
}
