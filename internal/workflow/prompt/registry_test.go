package prompt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storyVars() map[string]any {
	return map[string]any{
		"title":        "The Last Lighthouse",
		"kind":         "short_film",
		"genre":        "drama",
		"description":  "A keeper refuses to leave",
		"logline":      "",
		"treatment":    "",
		"instructions": "keep it hopeful",
	}
}

func TestRender(t *testing.T) {
	r := NewRegistry()

	system, user, err := r.Render(context.Background(), PromptLoglineV1, storyVars())
	require.NoError(t, err)
	assert.Contains(t, system, "logline")
	assert.Contains(t, user, "Project: The Last Lighthouse")
	assert.Contains(t, user, "keep it hopeful")
}

func TestRender_AllTemplates(t *testing.T) {
	r := NewRegistry()
	vars := storyVars()
	vars["message"] = "How do I end act two? {spoilers}"

	for _, id := range []PromptID{
		PromptLoglineV1, PromptTreatmentV1, PromptCharactersV1,
		PromptScenesV1, PromptDialogueV1, PromptStoryboardV1, PromptChatV1,
	} {
		system, user, err := r.Render(context.Background(), id, vars)
		require.NoError(t, err, id)
		assert.NotEmpty(t, system, id)
		assert.NotEmpty(t, user, id)
	}

	_, user, err := r.Render(context.Background(), PromptChatV1, vars)
	require.NoError(t, err)
	assert.Equal(t, "How do I end act two? {spoilers}", user)
}

func TestChatTemplate_Cached(t *testing.T) {
	r := NewRegistry()
	a, err := r.ChatTemplate(PromptScenesV1)
	require.NoError(t, err)
	b, err := r.ChatTemplate(PromptScenesV1)
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestChatTemplate_Unknown(t *testing.T) {
	_, err := NewRegistry().ChatTemplate("nope")
	assert.Error(t, err)
}
