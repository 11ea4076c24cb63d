// Package seed holds the embedded challenge catalog and its loader.
package seed

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/gosimple/slug"

	"github.com/daystep/daystep/models"
)

//go:embed challenges.json
var catalogJSON []byte

type catalogEntry struct {
	Name       string `json:"name"`
	Category   string `json:"category"`
	Difficulty int    `json:"difficulty"`
	Text       string `json:"text"`
}

// Challenges decodes the embedded catalog into model rows. Slugs are derived
// from the entry name, so renaming an entry creates a new row rather than
// rewriting an existing one.
func Challenges() ([]models.Challenge, error) {
	var entries []catalogEntry
	if err := json.Unmarshal(catalogJSON, &entries); err != nil {
		return nil, fmt.Errorf("decode challenge catalog: %w", err)
	}

	out := make([]models.Challenge, 0, len(entries))
	for i, e := range entries {
		if !models.ValidCategory(e.Category) {
			return nil, fmt.Errorf("catalog entry %d: unknown category %q", i, e.Category)
		}
		if e.Difficulty < 1 || e.Difficulty > 5 {
			return nil, fmt.Errorf("catalog entry %d: difficulty %d out of range", i, e.Difficulty)
		}
		if e.Name == "" || e.Text == "" {
			return nil, fmt.Errorf("catalog entry %d: name and text are required", i)
		}
		out = append(out, models.Challenge{
			Slug:       slug.Make(e.Name),
			Category:   e.Category,
			Difficulty: e.Difficulty,
			Text:       e.Text,
			IsActive:   true,
		})
	}
	return out, nil
}
