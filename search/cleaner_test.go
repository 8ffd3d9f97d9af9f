package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHighlight(t *testing.T) {
	wrap := func(s string) string { return "[" + s + "]" }

	assert.Equal(t, "The [Cat] sat by the [cat]egory", Highlight("The Cat sat by the category", "cat", wrap))
	assert.Equal(t, "costs [a+b] now", Highlight("  costs a+b now ", " a+b ", wrap))
	assert.Equal(t, "unchanged", Highlight("unchanged", "  ", wrap))
	assert.Equal(t, "plain", Highlight("plain", "plain", nil))
}

func TestHighlightANSI(t *testing.T) {
	assert.Equal(t, "a \033[1;31mCAT\033[0m", HighlightANSI("a CAT", "cat"))
}

func TestFormatFileSize(t *testing.T) {
	assert.Equal(t, "512 B", FormatFileSize(512))
	assert.Equal(t, "1.5 KB", FormatFileSize(1536))
	assert.Equal(t, "5.0 MB", FormatFileSize(5<<20))
}

func TestFormatKB(t *testing.T) {
	assert.Equal(t, "2.00 KB", FormatKB(2048))
	assert.Equal(t, "0.50 KB", FormatKB(512))
}

func TestFormatCount(t *testing.T) {
	assert.Equal(t, "1 file", FormatCount(1, "file"))
	assert.Equal(t, "0 files", FormatCount(0, "file"))
	assert.Equal(t, "1,234 occurrences", FormatCount(1234, "occurrence"))
	assert.Equal(t, "-1,234,567", formatNumber(-1234567))
	assert.Equal(t, "999", formatNumber(999))
}
