package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyforge-ai-api/internal/domain/entity"
	"storyforge-ai-api/internal/domain/repository"
)

func TestUserRepositoryGet(t *testing.T) {
	repo := NewUserRepository(newTestClient(t))
	ctx := context.Background()
	seedUser(t, repo, "u1", nil)

	got, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "u1@example.com", got.Email)
	assert.Equal(t, "free", got.SubscriptionStatus)

	got, err = repo.GetByEmail(ctx, "u1@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "u1", got.ID)

	missing, err := repo.GetByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestReserveUsageConditionalUpdate(t *testing.T) {
	repo := NewUserRepository(newTestClient(t))
	ctx := context.Background()
	seedUser(t, repo, "u1", func(u *entity.User) { u.TokenUsageThisMonth = 9500 })

	ok, err := repo.ReserveUsage(ctx, "u1", repository.UsageDelta{Tokens: 600, TokenLimit: 10000, ImageLimit: 5})
	require.NoError(t, err)
	assert.False(t, ok)

	u, _ := repo.GetByID(ctx, "u1")
	assert.EqualValues(t, 9500, u.TokenUsageThisMonth)

	ok, err = repo.ReserveUsage(ctx, "u1", repository.UsageDelta{Tokens: 400, TokenLimit: 10000, ImageLimit: 5})
	require.NoError(t, err)
	assert.True(t, ok)

	u, _ = repo.GetByID(ctx, "u1")
	assert.EqualValues(t, 9900, u.TokenUsageThisMonth)
	assert.EqualValues(t, 0, u.ImageUsageThisMonth)
}

func TestReserveUsageImageCondition(t *testing.T) {
	repo := NewUserRepository(newTestClient(t))
	ctx := context.Background()
	seedUser(t, repo, "u1", func(u *entity.User) { u.ImageUsageThisMonth = 4 })

	ok, err := repo.ReserveUsage(ctx, "u1", repository.UsageDelta{Images: 1, TokenLimit: 10000, ImageLimit: 5})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.ReserveUsage(ctx, "u1", repository.UsageDelta{Tokens: 10, Images: 1, TokenLimit: 10000, ImageLimit: 5})
	require.NoError(t, err)
	assert.False(t, ok)

	u, _ := repo.GetByID(ctx, "u1")
	assert.EqualValues(t, 5, u.ImageUsageThisMonth)
	assert.EqualValues(t, 0, u.TokenUsageThisMonth, "denied reservation must not charge tokens either")
}

func TestReserveUsageUnlimited(t *testing.T) {
	repo := NewUserRepository(newTestClient(t))
	ctx := context.Background()
	seedUser(t, repo, "admin", func(u *entity.User) {
		u.SubscriptionStatus = "admin"
		u.TokenUsageThisMonth = 5_000_000
	})

	ok, err := repo.ReserveUsage(ctx, "admin", repository.UsageDelta{
		Tokens: 1000, Images: 3, TokenLimit: entity.Unlimited, ImageLimit: entity.Unlimited,
	})
	require.NoError(t, err)
	assert.True(t, ok)

	u, _ := repo.GetByID(ctx, "admin")
	assert.EqualValues(t, 5_001_000, u.TokenUsageThisMonth)
	assert.EqualValues(t, 3, u.ImageUsageThisMonth)

	ok, err = repo.ReserveUsage(ctx, "ghost", repository.UsageDelta{Tokens: 1, TokenLimit: entity.Unlimited, ImageLimit: entity.Unlimited})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReserveUsageConcurrent(t *testing.T) {
	repo := NewUserRepository(newTestClient(t))
	ctx := context.Background()
	seedUser(t, repo, "u1", nil)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.ReserveUsage(ctx, "u1", repository.UsageDelta{Tokens: 700, TokenLimit: 10000, ImageLimit: 5})
			if err == nil && ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	u, _ := repo.GetByID(ctx, "u1")
	assert.Equal(t, 14, allowed)
	assert.EqualValues(t, 14*700, u.TokenUsageThisMonth)
	assert.LessOrEqual(t, u.TokenUsageThisMonth, int64(10000))
}

func TestReleaseUsageFloorsAtZero(t *testing.T) {
	repo := NewUserRepository(newTestClient(t))
	ctx := context.Background()
	seedUser(t, repo, "u1", func(u *entity.User) {
		u.TokenUsageThisMonth = 300
		u.ImageUsageThisMonth = 2
	})

	ok, err := repo.ReleaseUsage(ctx, "u1", repository.UsageRelease{Tokens: 100, Images: 5})
	require.NoError(t, err)
	assert.True(t, ok)
	u, _ := repo.GetByID(ctx, "u1")
	assert.EqualValues(t, 200, u.TokenUsageThisMonth)
	assert.EqualValues(t, 0, u.ImageUsageThisMonth)
}

func TestUsageCycleRollover(t *testing.T) {
	repo := NewUserRepository(newTestClient(t))
	ctx := context.Background()
	past := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	seedUser(t, repo, "u1", func(u *entity.User) { u.UsageResetDate = &past })

	ok, err := repo.ReserveUsage(ctx, "u1", repository.UsageDelta{Tokens: 900, TokenLimit: 10000, ImageLimit: 5})
	require.NoError(t, err)
	require.True(t, ok)

	now := time.Date(2025, 7, 1, 0, 0, 1, 0, time.UTC)
	_, err = repo.ResetExpiredUsage(ctx, now, entity.NextResetDate(now), 10)
	require.NoError(t, err)

	u, _ := repo.GetByID(ctx, "u1")
	assert.EqualValues(t, 1, u.UsageCycle)

	// 新周期已有消耗，上一周期的退款不得冲减
	ok, err = repo.ReserveUsage(ctx, "u1", repository.UsageDelta{Tokens: 300, TokenLimit: 10000, ImageLimit: 5, Cycle: 1})
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.ReleaseUsage(ctx, "u1", repository.UsageRelease{Tokens: 900, Cycle: 0})
	require.NoError(t, err)
	assert.False(t, ok)
	u, _ = repo.GetByID(ctx, "u1")
	assert.EqualValues(t, 300, u.TokenUsageThisMonth)

	// 旧周期快照上的预占同样不会落到新周期
	ok, err = repo.ReserveUsage(ctx, "u1", repository.UsageDelta{Tokens: 10, TokenLimit: 10000, ImageLimit: 5, Cycle: 0})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestApplySubscription(t *testing.T) {
	repo := NewUserRepository(newTestClient(t))
	ctx := context.Background()
	seedUser(t, repo, "u1", nil)

	start := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	require.NoError(t, repo.ApplySubscription(ctx, "u1", repository.SubscriptionUpdate{
		Status: "pro", Plan: "pro_monthly", StartDate: start, EndDate: end,
	}))

	u, _ := repo.GetByID(ctx, "u1")
	assert.Equal(t, "pro", u.SubscriptionStatus)
	assert.Equal(t, "pro_monthly", u.SubscriptionPlan)
	require.NotNil(t, u.SubscriptionEndDate)
	assert.True(t, end.Equal(*u.SubscriptionEndDate))

	err := repo.ApplySubscription(ctx, "ghost", repository.SubscriptionUpdate{Status: "pro"})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestResetExpiredUsage(t *testing.T) {
	repo := NewUserRepository(newTestClient(t))
	ctx := context.Background()

	now := time.Date(2025, 7, 1, 0, 5, 0, 0, time.UTC)
	past := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	future := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

	seedUser(t, repo, "due", func(u *entity.User) {
		u.TokenUsageThisMonth, u.ImageUsageThisMonth, u.UsageResetDate = 8000, 4, &past
	})
	seedUser(t, repo, "legacy", func(u *entity.User) {
		u.TokenUsageThisMonth, u.UsageResetDate = 50, nil
	})
	seedUser(t, repo, "later", func(u *entity.User) {
		u.TokenUsageThisMonth, u.UsageResetDate = 700, &future
	})

	next := entity.NextResetDate(now)
	n, err := repo.ResetExpiredUsage(ctx, now, next, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	due, _ := repo.GetByID(ctx, "due")
	assert.EqualValues(t, 0, due.TokenUsageThisMonth)
	assert.EqualValues(t, 0, due.ImageUsageThisMonth)
	require.NotNil(t, due.UsageResetDate)
	assert.True(t, future.Equal(*due.UsageResetDate))

	legacy, _ := repo.GetByID(ctx, "legacy")
	assert.EqualValues(t, 0, legacy.TokenUsageThisMonth)

	later, _ := repo.GetByID(ctx, "later")
	assert.EqualValues(t, 700, later.TokenUsageThisMonth)

	n, err = repo.ResetExpiredUsage(ctx, now, next, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
}
