package skills

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/resume-builder/internal/types"
)

func TestSet(t *testing.T) {
	set := NewSet([]types.SkillCategory{
		{Category: "A", Items: []string{" Go ", "", "python"}},
		{Category: "B", Items: []string{"Python"}},
	})

	assert.Equal(t, []string{"Go", "python"}, set.Values())
	assert.True(t, set.Contains("go"))
	assert.True(t, set.Contains("PYTHON"))
	assert.False(t, set.Committed("Go"))

	set.Add("Go")
	assert.True(t, set.Committed("go"))
	assert.Equal(t, 2, set.Len(), "committing a seeded value does not grow the set")

	set.Add("Rust")
	set.Add("rust")
	assert.Equal(t, []string{"Go", "python", "Rust"}, set.Values())
}

func TestNextFallback(t *testing.T) {
	set := NewSet([]types.SkillCategory{{Items: []string{"analytics"}}})

	word, ok := nextFallback(set)
	assert.True(t, ok)
	assert.Equal(t, "Strategy", word)

	for _, w := range FallbackVocabulary {
		set.Add(w)
	}
	_, ok = nextFallback(set)
	assert.False(t, ok)
}

func TestPlaceholder(t *testing.T) {
	set := NewSet([]types.SkillCategory{{Items: []string{"Enhanced3"}}})

	assert.Equal(t, "Enhanced2", placeholder(set, "Enhanced", 2, 5))
	assert.Equal(t, "Enhanced8", placeholder(set, "Enhanced", 3, 5))
}

func TestFallbackVocabulary(t *testing.T) {
	assert.Len(t, FallbackVocabulary, 26)
	assert.Equal(t, "Analytics", FallbackVocabulary[0])
	assert.Equal(t, "Maintenance", FallbackVocabulary[len(FallbackVocabulary)-1])

	seen := make(map[string]bool)
	for _, w := range FallbackVocabulary {
		assert.False(t, seen[w])
		seen[w] = true
		assert.Greater(t, len(w), 2)
	}
}
