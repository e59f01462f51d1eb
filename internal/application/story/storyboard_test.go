package story

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyforge-ai-api/internal/application/quota"
	"storyforge-ai-api/internal/domain/entity"
)

func TestGenerateStoryboard(t *testing.T) {
	f := newFixture(entity.User{ID: "u1", ImageUsageThisMonth: 2})

	frame, err := f.svc.GenerateStoryboard(context.Background(), StoryboardInput{
		UserID: "u1", ProjectID: "p1", Description: "the keeper climbs the stairs in a storm",
	})
	require.NoError(t, err)

	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("png")), frame.ImageBase64)
	assert.Equal(t, int64(2), frame.ImagesRemaining)
	assert.Equal(t, int64(3), f.users.get("u1").ImageUsageThisMonth)
	assert.Contains(t, f.images.prompt, "climbs the stairs")

	require.Len(t, f.usage.ins, 1)
	assert.Equal(t, entity.UsageTypeImage, f.usage.ins[0].Type)
	assert.Equal(t, int64(1), f.usage.ins[0].Images)
}

func TestGenerateStoryboard_NoImageQuota(t *testing.T) {
	f := newFixture(entity.User{ID: "u1", ImageUsageThisMonth: 5})

	_, err := f.svc.GenerateStoryboard(context.Background(), StoryboardInput{UserID: "u1", ProjectID: "p1", Description: "x"})
	var exceeded *quota.ExceededError
	require.True(t, errors.As(err, &exceeded))
	assert.Equal(t, quota.ResourceImages, exceeded.Resource)
	assert.Empty(t, f.images.prompt)
}

func TestGenerateStoryboard_FailureReleasesImage(t *testing.T) {
	f := newFixture(entity.User{ID: "u1", ImageUsageThisMonth: 1})
	f.images.err = errors.New("safety filter")
	f.images.out = nil

	_, err := f.svc.GenerateStoryboard(context.Background(), StoryboardInput{UserID: "u1", ProjectID: "p1", Description: "x"})
	assert.ErrorIs(t, err, ErrGenerationFailed)
	assert.Equal(t, int64(1), f.users.get("u1").ImageUsageThisMonth)
	assert.Empty(t, f.usage.ins)
}

func TestGenerateStoryboard_RequiresDescription(t *testing.T) {
	f := newFixture(entity.User{ID: "u1"})
	_, err := f.svc.GenerateStoryboard(context.Background(), StoryboardInput{UserID: "u1", ProjectID: "p1"})
	assert.ErrorIs(t, err, ErrInvalidProject)
}
