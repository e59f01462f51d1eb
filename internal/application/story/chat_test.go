package story

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyforge-ai-api/internal/application/quota"
	"storyforge-ai-api/internal/domain/entity"
)

func TestChat(t *testing.T) {
	f := newFixture(entity.User{ID: "u1"})

	out, err := f.svc.Chat(context.Background(), ChatInput{UserID: "u1", Message: "How do I raise the stakes in act two?"})
	require.NoError(t, err)
	assert.NotEmpty(t, out.Reply)
	assert.Equal(t, int64(10000-150), out.TokensRemaining)
	assert.Equal(t, "How do I raise the stakes in act two?", f.text.reqs[0].Prompt)
	assert.Equal(t, chatMaxTokens, f.text.reqs[0].MaxTokens)
	assert.Equal(t, "chat", f.text.op)

	require.Len(t, f.usage.ins, 1)
	assert.Equal(t, entity.UsageTypeChat, f.usage.ins[0].Type)
}

func TestChat_Validation(t *testing.T) {
	f := newFixture(entity.User{ID: "u1"})

	_, err := f.svc.Chat(context.Background(), ChatInput{UserID: "u1", Message: "  "})
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = f.svc.Chat(context.Background(), ChatInput{UserID: "u1", ProjectID: "other", Message: "hi"})
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestChat_QuotaExceeded(t *testing.T) {
	f := newFixture(entity.User{ID: "u1", TokenUsageThisMonth: 9500})

	_, err := f.svc.Chat(context.Background(), ChatInput{UserID: "u1", Message: "hi"})
	assert.ErrorIs(t, err, quota.ErrQuotaExceeded)
	assert.Empty(t, f.text.reqs)
}

func TestChat_AdminAlwaysAllowed(t *testing.T) {
	f := newFixture(entity.User{ID: "root", SubscriptionStatus: "admin", TokenUsageThisMonth: 10_000_000})

	out, err := f.svc.Chat(context.Background(), ChatInput{UserID: "root", Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, entity.Unlimited, out.TokensRemaining)
	assert.Equal(t, int64(10_000_150), f.users.get("root").TokenUsageThisMonth)
}
