package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitSentences(t *testing.T) {
	got := SplitSentences("  First one.  Second?! ... Third\n\nand more!  ")
	assert.Equal(t, []string{"First one", "Second", "Third\n\nand more"}, got)

	assert.Empty(t, SplitSentences(""))
	assert.Empty(t, SplitSentences("...!?"))
	assert.Equal(t, []string{"no terminal punctuation"}, SplitSentences("no terminal punctuation"))
}

func TestMatchSubstringVersusWholeWord(t *testing.T) {
	summary, err := Match("The cat sat. A category exists.", "cat")
	require.NoError(t, err)

	// Both sentences contain "cat" as a substring; only one is a whole word.
	require.Len(t, summary.Sentences, 2)
	assert.Equal(t, SentenceMatch{Index: 0, Number: 1, Text: "The cat sat"}, summary.Sentences[0])
	assert.Equal(t, SentenceMatch{Index: 1, Number: 2, Text: "A category exists"}, summary.Sentences[1])
	assert.Equal(t, 2, summary.MatchingSentences)
	assert.Equal(t, 1, summary.TotalOccurrences)
}

func TestMatchIndexSkipsEmptyFragments(t *testing.T) {
	summary, err := Match("Intro... Nothing here! The dog barked. Dog days?", "dog")
	require.NoError(t, err)

	require.Len(t, summary.Sentences, 2)
	assert.Equal(t, 2, summary.Sentences[0].Index)
	assert.Equal(t, 1, summary.Sentences[0].Number)
	assert.Equal(t, 3, summary.Sentences[1].Index)
	assert.Equal(t, 2, summary.Sentences[1].Number)
	assert.Equal(t, 2, summary.TotalOccurrences)
}

func TestMatchSentenceCountedOnce(t *testing.T) {
	summary, err := Match("Cat and cat and CAT.", "cat")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.MatchingSentences)
	assert.Equal(t, 3, summary.TotalOccurrences)
}

func TestMatchTermIsTrimmedAndCaseInsensitive(t *testing.T) {
	summary, err := Match("Go is fun. GO home.", "  go ")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.MatchingSentences)
	assert.Equal(t, 2, summary.TotalOccurrences)
}

func TestMatchRejectsEmptyTerm(t *testing.T) {
	for _, term := range []string{"", "   ", "\t\n"} {
		_, err := Match("anything.", term)
		assert.ErrorIs(t, err, ErrInvalidSearchTerm)
	}
}

func TestMatchTermIsLiteral(t *testing.T) {
	summary, err := Match("Costs rose (a.b) fast. Then a+b happened.", "a+b")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.MatchingSentences)
	assert.Equal(t, 1, summary.TotalOccurrences)

	summary, err = Match("abc. a.c.", ".*")
	require.NoError(t, err)
	assert.Equal(t, 0, summary.MatchingSentences)
	assert.Equal(t, 0, summary.TotalOccurrences)
}

func TestMatchNoHits(t *testing.T) {
	summary, err := Match("Nothing relevant here.", "zebra")
	require.NoError(t, err)
	assert.NotNil(t, summary.Sentences)
	assert.Empty(t, summary.Sentences)
	assert.Zero(t, summary.TotalOccurrences)
}

func TestMatchedSentencesHaveNoTerminators(t *testing.T) {
	text := "Wait... what?! Yes. Really!!! Is it? It is.\nOK"
	summary, err := Match(text, "i")
	require.NoError(t, err)
	for _, s := range summary.Sentences {
		assert.False(t, strings.ContainsAny(s.Text, ".!?"), s.Text)
	}
}

func TestCountWholeWord(t *testing.T) {
	tests := []struct {
		name string
		text string
		word string
		want int
	}{
		{"start and end of text", "cat", "cat", 1},
		{"punctuation bounds", "(cat), cat. cat!", "cat", 3},
		{"prefix of longer word", "category cats", "cat", 0},
		{"suffix of longer word", "bobcat", "cat", 0},
		{"underscore is a word char", "cat_food", "cat", 0},
		{"digits are word chars", "cat9 9cat", "cat", 0},
		{"non-overlapping", "aaaa", "aa", 0},
		{"non-overlapping spaced", "aa aa", "aa", 2},
		{"unicode letters bound words", "écat caté cat", "cat", 1},
		{"case-insensitive", "Über über ÜBER", "über", 3},
		{"multi-word term", "New York, new york and newyork", "new york", 2},
		{"empty word", "text", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CountWholeWord(tt.text, tt.word))
		})
	}
}

func TestCountWholeWordAdvancesPastPartialHits(t *testing.T) {
	// first candidate "cat" sits inside "cats", the next one is whole
	assert.Equal(t, 1, CountWholeWord("cats cat", "cat"))
	assert.Equal(t, 2, CountWholeWord("ccat cat cat", "cat"))
}
