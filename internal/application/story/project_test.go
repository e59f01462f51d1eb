package story

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyforge-ai-api/internal/domain/entity"
	"storyforge-ai-api/internal/domain/repository"
)

func TestCreateProject_EnforcesMaxProjects(t *testing.T) {
	f := newFixture(entity.User{ID: "u1"})
	ctx := context.Background()

	// p1 已存在，免费版上限 3
	for i := 0; i < 2; i++ {
		p, err := f.svc.CreateProject(ctx, CreateProjectInput{UserID: "u1", Title: "  Draft  ", Genre: "noir"})
		require.NoError(t, err)
		assert.Equal(t, "Draft", p.Title)
		assert.Equal(t, entity.ProjectKindShortFilm, p.Kind)
		assert.Equal(t, "noir", p.Genre)
	}

	_, err := f.svc.CreateProject(ctx, CreateProjectInput{UserID: "u1", Title: "One too many"})
	assert.ErrorIs(t, err, ErrProjectLimitReached)

	page, err := f.svc.ListProjects(ctx, "u1", repository.NewPagination(1, 10))
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
}

func TestCreateProject_AdminUnlimited(t *testing.T) {
	f := newFixture(entity.User{ID: "root", SubscriptionStatus: "admin"})
	for i := 0; i < 10; i++ {
		_, err := f.svc.CreateProject(context.Background(), CreateProjectInput{UserID: "root", Title: "x", Kind: entity.ProjectKindStory})
		require.NoError(t, err)
	}
}

func TestCreateProject_Validation(t *testing.T) {
	f := newFixture(entity.User{ID: "u1"})

	_, err := f.svc.CreateProject(context.Background(), CreateProjectInput{UserID: "u1", Title: "   "})
	assert.ErrorIs(t, err, ErrInvalidProject)

	_, err = f.svc.CreateProject(context.Background(), CreateProjectInput{UserID: "u1", Title: "x", Kind: "novel"})
	assert.ErrorIs(t, err, ErrInvalidProject)
}

func TestGetProject(t *testing.T) {
	f := newFixture(entity.User{ID: "u1"})

	p, err := f.svc.GetProject(context.Background(), "u1", "p1")
	require.NoError(t, err)
	assert.Equal(t, "The Last Lighthouse", p.Title)

	_, err = f.svc.GetProject(context.Background(), "u1", "missing")
	assert.ErrorIs(t, err, ErrProjectNotFound)
}
