package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyforge-ai-api/internal/domain/entity"
	"storyforge-ai-api/internal/domain/repository"
)

func TestTokenUsageAggregate(t *testing.T) {
	repo := NewTokenUsageRepository(newTestClient(t))
	ctx := context.Background()

	cycle := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	records := []*entity.TokenUsageRecord{
		{ID: "r1", UserID: "u1", Type: entity.UsageTypeText, Model: "gemini-2.0-flash", PromptTokens: 1000, CompletionTokens: 500, Tokens: 1500, Cost: 0.000225, CreatedAt: cycle.Add(time.Hour)},
		{ID: "r2", UserID: "u1", Type: entity.UsageTypeImage, Model: "imagen-3.0-generate-002", Images: 1, Cost: 0.04, CreatedAt: cycle.Add(2 * time.Hour)},
		{ID: "r3", UserID: "u1", Type: entity.UsageTypeText, Model: "gpt-4o", PromptTokens: 10, Tokens: 10, CreatedAt: cycle.Add(-time.Hour)},
		{ID: "r4", UserID: "u2", Type: entity.UsageTypeText, Model: "gpt-4o", PromptTokens: 99, Tokens: 99, CreatedAt: cycle.Add(time.Hour)},
	}
	for _, r := range records {
		require.NoError(t, repo.Create(ctx, r))
	}

	agg, err := repo.Aggregate(ctx, "u1", cycle, cycle.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.EqualValues(t, 2, agg.Requests)
	assert.EqualValues(t, 1000, agg.PromptTokens)
	assert.EqualValues(t, 500, agg.CompletionTokens)
	assert.EqualValues(t, 1500, agg.Tokens)
	assert.EqualValues(t, 1, agg.Images)
	assert.InDelta(t, 0.040225, agg.Cost, 1e-9)

	empty, err := repo.Aggregate(ctx, "nobody", cycle, cycle.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.EqualValues(t, 0, empty.Requests)
	assert.Zero(t, empty.Cost)

	page, err := repo.ListByUser(ctx, "u1", repository.NewPagination(1, 10))
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)
	require.Len(t, page.Items, 3)
	assert.Equal(t, "r2", page.Items[0].ID)
}
