package utils

import "strings"

// Default word list masked on the public wins feed. Deployments extend it
// through config rather than editing code.
var baseProfanity = []string{
	"arse", "arsehole", "ass", "asshole", "bastard", "bitch", "bollocks",
	"bullshit", "crap", "cunt", "damn", "dick", "dickhead", "douche",
	"fuck", "fucker", "fucking", "goddamn", "jackass", "motherfucker",
	"piss", "prick", "shit", "shitty", "slut", "twat", "wanker", "whore",
}

// ProfanityFilter masks listed words with asterisks. Matching is
// case-insensitive on whole words; punctuation attached to a word does not
// hide it. A disabled filter passes text through untouched.
type ProfanityFilter struct {
	enabled bool
	words   map[string]bool
}

// NewProfanityFilter builds a filter from the base list plus extra words.
func NewProfanityFilter(enabled bool, extraWords []string) *ProfanityFilter {
	words := make(map[string]bool, len(baseProfanity)+len(extraWords))
	for _, w := range baseProfanity {
		words[w] = true
	}
	for _, w := range extraWords {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			words[w] = true
		}
	}
	return &ProfanityFilter{enabled: enabled, words: words}
}

// Clean returns text with every listed word replaced by asterisks of the
// same length.
func (f *ProfanityFilter) Clean(text string) string {
	if !f.enabled {
		return text
	}
	fields := strings.Split(text, " ")
	for i, field := range fields {
		core := strings.ToLower(strings.Trim(field, ".,!?;:'\"()"))
		if f.words[core] {
			idx := strings.Index(strings.ToLower(field), core)
			fields[i] = field[:idx] + strings.Repeat("*", len(core)) + field[idx+len(core):]
		}
	}
	return strings.Join(fields, " ")
}

// IsProfane reports whether text contains any listed word.
func (f *ProfanityFilter) IsProfane(text string) bool {
	if !f.enabled {
		return false
	}
	for _, field := range strings.Fields(text) {
		if f.words[strings.ToLower(strings.Trim(field, ".,!?;:'\"()"))] {
			return true
		}
	}
	return false
}
