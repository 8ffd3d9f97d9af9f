package pdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStringLiterals(t *testing.T) {
	stream := `BT /F1 12 Tf 72 712 Td (Hello, world.) Tj ( nested \(paren\) ) Tj ET`
	got := normalizeSpace(parseStringLiterals(stream, 1024))
	assert.Equal(t, "Hello, world. nested (paren)", got)
}

func TestParseStringLiteralsCapped(t *testing.T) {
	got := parseStringLiterals("(abcdefghij)", 4)
	assert.Equal(t, "abcd", got)
}

func TestParseStringLiteralsEscapes(t *testing.T) {
	got := normalizeSpace(parseStringLiterals(`(line\nbreak)`, 64))
	assert.Equal(t, "line break", got)
}

func TestNormalizeSpace(t *testing.T) {
	assert.Equal(t, "a b c", normalizeSpace("a\x00bé\t\tc "))
	assert.Equal(t, "", normalizeSpace("\x01\x02"))
}

func TestExtractContentTextRejectsGarbage(t *testing.T) {
	_, err := ExtractContentText([]byte("definitely not a pdf"), 0, 0)
	assert.Error(t, err)
}

func TestTruncateUTF8(t *testing.T) {
	assert.Equal(t, "short", truncateUTF8("short", 10))
	assert.Equal(t, "caf", truncateUTF8("café", 4))
	assert.Equal(t, "café", truncateUTF8("café", 5))
	assert.Equal(t, "", truncateUTF8("é", 1))
}
