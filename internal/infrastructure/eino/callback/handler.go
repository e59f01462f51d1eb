package callback

import (
	"context"
	"time"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	cbtemplate "github.com/cloudwego/eino/utils/callbacks"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"storyforge-ai-api/internal/domain/service"
	"storyforge-ai-api/pkg/tracer"
)

const spanName = "llm.chat_model.generate"

type startedAtKey struct{}

func newChatModelCallbackHandler() *cbtemplate.ModelCallbackHandler {
	return &cbtemplate.ModelCallbackHandler{
		OnStart: onStart,
		OnEnd:   onEnd,
		OnError: onError,
	}
}

func onStart(ctx context.Context, info *einocb.RunInfo, input *model.CallbackInput) context.Context {
	attrs := []attribute.KeyValue{
		attribute.String("llm.operation", service.OperationFromContext(ctx)),
		attribute.String("llm.provider", service.ProviderFromContext(ctx)),
	}
	if input != nil {
		attrs = append(attrs, attribute.Int("llm.input_messages", len(input.Messages)))
		if input.Config != nil {
			attrs = append(attrs, attribute.String("llm.model", input.Config.Model))
		}
	}
	if info != nil {
		attrs = append(attrs, attribute.String("eino.component", string(info.Component)))
		if info.Name != "" {
			attrs = append(attrs, attribute.String("eino.node", info.Name))
		}
	}

	ctx = context.WithValue(ctx, startedAtKey{}, time.Now())
	ctx, _ = tracer.Start(ctx, spanName, trace.WithAttributes(attrs...))
	return ctx
}

func onEnd(ctx context.Context, _ *einocb.RunInfo, output *model.CallbackOutput) context.Context {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	if ms, ok := elapsedMillis(ctx); ok {
		span.SetAttributes(attribute.Int64("llm.latency_ms", ms))
	}
	if output == nil {
		return ctx
	}
	// 部分模型只在输出中给出实际模型名
	if output.Config != nil && output.Config.Model != "" {
		span.SetAttributes(attribute.String("llm.response_model", output.Config.Model))
	}
	if u := output.TokenUsage; u != nil {
		span.SetAttributes(
			attribute.Int("llm.prompt_tokens", u.PromptTokens),
			attribute.Int("llm.completion_tokens", u.CompletionTokens),
			attribute.Int("llm.total_tokens", u.TotalTokens),
		)
	}
	return ctx
}

func onError(ctx context.Context, _ *einocb.RunInfo, err error) context.Context {
	span := trace.SpanFromContext(ctx)
	if ms, ok := elapsedMillis(ctx); ok {
		span.SetAttributes(attribute.Int64("llm.latency_ms", ms))
	}
	tracer.Fail(span, err)
	span.End()
	return ctx
}

func elapsedMillis(ctx context.Context) (int64, bool) {
	started, ok := ctx.Value(startedAtKey{}).(time.Time)
	if !ok {
		return 0, false
	}
	return time.Since(started).Milliseconds(), true
}
