package search

import (
	"regexp"
	"strconv"
	"strings"
)

// Highlight wraps every case-insensitive occurrence of term in text with wrap.
// The term is matched literally; an empty term returns text unchanged.
func Highlight(text, term string, wrap func(string) string) string {
	term = strings.TrimSpace(term)
	text = strings.TrimSpace(text)
	if term == "" || text == "" || wrap == nil {
		return text
	}
	re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(term))
	return re.ReplaceAllStringFunc(text, wrap)
}

// HighlightANSI highlights term in bold red for terminal output
func HighlightANSI(text, term string) string {
	const hi = "\033[1;31m"
	const nc = "\033[0m"
	return Highlight(text, term, func(match string) string {
		return hi + match + nc
	})
}

// FormatFileSize formats file size in human readable format
func FormatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return strconv.FormatInt(size, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return strconv.FormatFloat(float64(size)/float64(div), 'f', 1, 64) + " " + "KMGTPE"[exp:exp+1] + "B"
}

// FormatKB renders a size in kilobytes with two decimals, as upload cards show it
func FormatKB(size int64) string {
	return strconv.FormatFloat(float64(size)/1024, 'f', 2, 64) + " KB"
}

// formatNumber adds thousands separators
func formatNumber(n int) string {
	s := strconv.Itoa(n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// FormatCount renders a count with thousands separators and a pluralised noun
func FormatCount(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return formatNumber(n) + " " + noun + "s"
}
