package search

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// sentenceBreak splits on any run of terminal punctuation
var sentenceBreak = regexp.MustCompile(`[.!?]+`)

// SentenceMatch is one sentence containing the search term
type SentenceMatch struct {
	// Index is the sentence position among the non-empty sentences of the text
	Index int `json:"index"`
	// Number is the 1-based ordinal of this match within its file
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// MatchSummary is the per-text result of matching one term
type MatchSummary struct {
	Sentences         []SentenceMatch `json:"sentences"`
	MatchingSentences int             `json:"matching_sentences"`
	TotalOccurrences  int             `json:"total_occurrences"`
}

// SplitSentences splits text on runs of '.', '!' and '?', trims each
// fragment and drops the empty ones.
func SplitSentences(text string) []string {
	fragments := sentenceBreak.Split(text, -1)
	sentences := make([]string, 0, len(fragments))
	for _, f := range fragments {
		if s := strings.TrimSpace(f); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// Match finds the sentences containing term (case-insensitive substring) and
// counts whole-word occurrences of term across the whole text.
// The term is trimmed and matched literally.
func Match(text, term string) (MatchSummary, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return MatchSummary{}, ErrInvalidSearchTerm
	}
	needle := strings.ToLower(term)

	summary := MatchSummary{Sentences: []SentenceMatch{}}
	for i, sentence := range SplitSentences(text) {
		if strings.Contains(strings.ToLower(sentence), needle) {
			summary.Sentences = append(summary.Sentences, SentenceMatch{
				Index:  i,
				Number: len(summary.Sentences) + 1,
				Text:   sentence,
			})
		}
	}
	summary.MatchingSentences = len(summary.Sentences)
	summary.TotalOccurrences = CountWholeWord(text, term)
	return summary, nil
}

// CountWholeWord counts case-insensitive, non-overlapping occurrences of
// word that are bounded by non-word characters or the ends of text.
func CountWholeWord(text, word string) int {
	if word == "" {
		return 0
	}
	haystack := strings.ToLower(text)
	needle := strings.ToLower(word)
	wordLen := len(needle)

	count := 0
	pos := 0
	for pos < len(haystack) {
		index := strings.Index(haystack[pos:], needle)
		if index == -1 {
			break
		}
		absolutePos := pos + index

		if isWordBoundaryBefore(haystack, absolutePos) && isWordBoundaryAfter(haystack, absolutePos+wordLen) {
			count++
			pos = absolutePos + wordLen
			continue
		}
		_, size := utf8.DecodeRuneInString(haystack[absolutePos:])
		pos = absolutePos + size
	}
	return count
}

// isWordRune reports whether r is part of a word: letters, digits and '_'
func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// isWordBoundaryBefore checks the rune ending just before pos
func isWordBoundaryBefore(s string, pos int) bool {
	if pos <= 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:pos])
	return !isWordRune(r)
}

// isWordBoundaryAfter checks the rune starting at pos
func isWordBoundaryAfter(s string, pos int) bool {
	if pos >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[pos:])
	return !isWordRune(r)
}
