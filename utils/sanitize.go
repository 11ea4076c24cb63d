package utils

import "github.com/microcosm-cc/bluemonday"

var sanitizer = bluemonday.StrictPolicy()

// Sanitize strips all HTML from user-supplied text. Notes, wins and journal
// entries are plain text, so the strict policy applies.
func Sanitize(input string) string {
	return sanitizer.Sanitize(input)
}
