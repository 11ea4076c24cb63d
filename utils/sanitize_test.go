package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	assert.Equal(t, "plain text stays", Sanitize("plain text stays"))
	assert.Equal(t, "hello", Sanitize(`<script>alert("x")</script>hello`))
	assert.Equal(t, "bold claim", Sanitize("<b>bold</b> claim"))
	assert.NotContains(t, Sanitize(`<img src=x onerror=alert(1)>ok`), "<img")
}
