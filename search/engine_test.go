package search

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchOrderAndTotals(t *testing.T) {
	files := []UploadedFile{
		{Name: "one.txt", Text: "The cat sat. A category exists."},
		{Name: "none.txt", Text: "Only categories here."},
		{Name: "two.txt", Text: "Cat! cat? Dogs."},
	}

	outcome, err := Search(files, " cat ")
	require.NoError(t, err)
	assert.Equal(t, "cat", outcome.Term)
	assert.Equal(t, 3, outcome.FilesSearched)
	require.Len(t, outcome.Results, 2)

	assert.Equal(t, "one.txt", outcome.Results[0].FileName)
	assert.Equal(t, 1, outcome.Results[0].TotalOccurrences)
	assert.Equal(t, 2, outcome.Results[0].MatchingSentences)

	assert.Equal(t, "two.txt", outcome.Results[1].FileName)
	assert.Equal(t, 2, outcome.Results[1].TotalOccurrences)
	assert.Equal(t, 3, outcome.TotalOccurrences)
}

func TestSearchSubstringOnlyFileIsDropped(t *testing.T) {
	outcome, err := Search([]UploadedFile{{Name: "a.txt", Text: "A category exists."}}, "cat")
	require.NoError(t, err)
	assert.NotNil(t, outcome.Results)
	assert.Empty(t, outcome.Results)
	assert.Zero(t, outcome.TotalOccurrences)
}

func TestSearchValidatesTermBeforeCorpus(t *testing.T) {
	_, err := Search(nil, "  ")
	assert.ErrorIs(t, err, ErrInvalidSearchTerm)

	_, err = Search(nil, "cat")
	assert.ErrorIs(t, err, ErrEmptyCorpus)
}

func newTestSession() *Session {
	return NewSession(newTestIngester(IngestOptions{}), nil)
}

func TestSessionSearchKeepsOutcomeOnError(t *testing.T) {
	s := newTestSession()
	_, err := s.Search("cat")
	assert.ErrorIs(t, err, ErrEmptyCorpus)
	assert.Nil(t, s.Outcome())

	_, err = s.Add(context.Background(), []FileBlob{txtBlob("a.txt", "The cat sat.")}, true)
	require.NoError(t, err)

	first, err := s.Search("cat")
	require.NoError(t, err)
	assert.Same(t, first, s.Outcome())

	_, err = s.Search("   ")
	assert.ErrorIs(t, err, ErrInvalidSearchTerm)
	assert.Same(t, first, s.Outcome())

	// a search with no hits still replaces the outcome
	empty, err := s.Search("zebra")
	require.NoError(t, err)
	assert.Same(t, empty, s.Outcome())
	assert.Empty(t, empty.Results)
}

func TestSessionAddDropsOutcome(t *testing.T) {
	s := newTestSession()
	_, err := s.Add(context.Background(), []FileBlob{txtBlob("a.txt", "The cat sat.")}, true)
	require.NoError(t, err)
	_, err = s.Search("cat")
	require.NoError(t, err)
	require.NotNil(t, s.Outcome())

	// a rejected batch keeps it
	_, err = s.Add(context.Background(), []FileBlob{txtBlob("a.txt", "dup")}, true)
	assert.ErrorIs(t, err, ErrNoNewFiles)
	assert.NotNil(t, s.Outcome())

	_, err = s.Add(context.Background(), []FileBlob{
		NewBytesBlob("bad.pdf", "application/pdf", []byte("nope")),
	}, true)
	assert.ErrorIs(t, err, ErrBatchExtractionFailed)
	assert.NotNil(t, s.Outcome())
	assert.Len(t, s.Files(), 1)

	delta, err := s.Add(context.Background(), []FileBlob{txtBlob("b.txt", "Another cat.")}, true)
	require.NoError(t, err)
	assert.Equal(t, 2, delta.Total)
	assert.Nil(t, s.Outcome())
}

func TestSessionClear(t *testing.T) {
	s := newTestSession()
	_, err := s.Add(context.Background(), []FileBlob{txtBlob("a.txt", "The cat sat.")}, true)
	require.NoError(t, err)
	_, err = s.Search("cat")
	require.NoError(t, err)

	s.Clear()
	assert.Empty(t, s.Files())
	assert.Nil(t, s.Outcome())

	_, err = s.Search("cat")
	assert.ErrorIs(t, err, ErrEmptyCorpus)
}

func TestSessionReportsProgress(t *testing.T) {
	s := newTestSession()
	var mu sync.Mutex
	var stages []string
	s.OnProgress = func(stage string, processed, total int, name string) {
		mu.Lock()
		defer mu.Unlock()
		stages = append(stages, stage)
		assert.Equal(t, 2, total)
	}

	_, err := s.Add(context.Background(), []FileBlob{txtBlob("a.txt", "a"), txtBlob("b.txt", "b")}, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"extracting", "extracting", "extracting"}, stages)
}

func TestSessionConcurrentAddsKeepNamesUnique(t *testing.T) {
	s := NewSession(newTestIngester(IngestOptions{Concurrency: 4}), nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Add(context.Background(), []FileBlob{txtBlob("same.txt", "x"), txtBlob("other.txt", "y")}, true)
		}()
	}
	wg.Wait()

	assert.ElementsMatch(t, []string{"same.txt", "other.txt"}, names(s.Files()))
}
