package story

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateByRunes(t *testing.T) {
	assert.Equal(t, "", truncateByRunes("abc", 0))
	assert.Equal(t, "abc", truncateByRunes("abc", 5))
	assert.Equal(t, "ab", truncateByRunes("abc", 2))
	assert.Equal(t, "故事", truncateByRunes("故事板", 2))
}

func TestOrNone(t *testing.T) {
	assert.Equal(t, "(none)", orNone("  "))
	assert.Equal(t, "noir", orNone("noir"))
}
