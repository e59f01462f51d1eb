package service

import (
	"context"
	"strings"
)

type llmCtxKey string

const (
	llmCtxKeyOperation llmCtxKey = "llm_operation"
	llmCtxKeyProvider  llmCtxKey = "llm_provider"
)

const unknown = "unknown"

// WithOperation 标记当前调用所属的业务操作 (logline/chat/storyboard ...)
func WithOperation(ctx context.Context, operation string) context.Context {
	op := strings.TrimSpace(operation)
	if op == "" {
		return ctx
	}
	return context.WithValue(ctx, llmCtxKeyOperation, op)
}

// WithProvider 标记实际服务本次调用的提供商
func WithProvider(ctx context.Context, provider string) context.Context {
	p := strings.TrimSpace(provider)
	if p == "" {
		return ctx
	}
	return context.WithValue(ctx, llmCtxKeyProvider, p)
}

func OperationFromContext(ctx context.Context) string {
	return stringFromContext(ctx, llmCtxKeyOperation)
}

func ProviderFromContext(ctx context.Context) string {
	return stringFromContext(ctx, llmCtxKeyProvider)
}

func stringFromContext(ctx context.Context, key llmCtxKey) string {
	if ctx == nil {
		return unknown
	}
	s, ok := ctx.Value(key).(string)
	if !ok || s == "" {
		return unknown
	}
	return s
}
