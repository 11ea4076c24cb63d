package seed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daystep/daystep/models"
)

func TestChallenges(t *testing.T) {
	challenges, err := Challenges()
	require.NoError(t, err)
	require.NotEmpty(t, challenges)

	slugs := map[string]bool{}
	perCategory := map[string]map[int]bool{}
	for _, ch := range challenges {
		assert.NotEmpty(t, ch.Slug)
		assert.False(t, slugs[ch.Slug], "duplicate slug %q", ch.Slug)
		slugs[ch.Slug] = true

		assert.True(t, models.ValidCategory(ch.Category), "slug %q", ch.Slug)
		assert.GreaterOrEqual(t, ch.Difficulty, 1)
		assert.LessOrEqual(t, ch.Difficulty, 5)
		assert.NotEmpty(t, ch.Text)
		assert.True(t, ch.IsActive)

		if perCategory[ch.Category] == nil {
			perCategory[ch.Category] = map[int]bool{}
		}
		perCategory[ch.Category][ch.Difficulty] = true
	}

	// the adaptive engine needs every category at every difficulty so the
	// band query and the category exclusion never empty the pool together
	for _, category := range models.Categories {
		for diff := 1; diff <= 5; diff++ {
			assert.True(t, perCategory[category][diff],
				"category %s has no difficulty %d challenge", category, diff)
		}
	}
}
