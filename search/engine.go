package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docfind/logging"
)

// FileSearchResult is the match summary for one file with at least one occurrence
type FileSearchResult struct {
	FileID            uuid.UUID       `json:"file_id"`
	FileName          string          `json:"file_name"`
	FileSize          int64           `json:"file_size"`
	Kind              ExtractionKind  `json:"kind"`
	Sentences         []SentenceMatch `json:"sentences"`
	MatchingSentences int             `json:"matching_sentences"`
	TotalOccurrences  int             `json:"total_occurrences"`
}

// SearchOutcome is the result of searching a corpus for one term
type SearchOutcome struct {
	Term             string             `json:"term"`
	Results          []FileSearchResult `json:"results"`
	TotalOccurrences int                `json:"total_occurrences"`
	FilesSearched    int                `json:"files_searched"`
}

// Search matches term against every file in order and keeps the files with
// at least one whole-word occurrence. The term is validated before the corpus.
func Search(files []UploadedFile, term string) (*SearchOutcome, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, ErrInvalidSearchTerm
	}
	if len(files) == 0 {
		return nil, ErrEmptyCorpus
	}

	outcome := &SearchOutcome{
		Term:          term,
		Results:       []FileSearchResult{},
		FilesSearched: len(files),
	}
	for _, f := range files {
		summary, err := Match(f.Text, term)
		if err != nil {
			return nil, err
		}
		if summary.TotalOccurrences == 0 {
			continue
		}
		outcome.Results = append(outcome.Results, FileSearchResult{
			FileID:            f.ID,
			FileName:          f.Name,
			FileSize:          f.Size,
			Kind:              f.Kind,
			Sentences:         summary.Sentences,
			MatchingSentences: summary.MatchingSentences,
			TotalOccurrences:  summary.TotalOccurrences,
		})
		outcome.TotalOccurrences += summary.TotalOccurrences
	}
	return outcome, nil
}

// ProgressFunc is an optional callback to report progress like: stage, processed, total, name
type ProgressFunc func(stage string, processed, total int, name string)

// Session owns a corpus and the outcome of the last successful search
type Session struct {
	mu      sync.Mutex
	corpus  *Corpus
	outcome *SearchOutcome

	ingester *Ingester
	logger   *zap.Logger

	// Optional progress callback (nil if unused)
	OnProgress ProgressFunc
}

// NewSession creates an empty session extracting through ing
func NewSession(ing *Ingester, logger *zap.Logger) *Session {
	logger = logging.OrNop(logger)
	return &Session{
		corpus:   NewCorpus(),
		ingester: ing,
		logger:   logger,
	}
}

// Add loads a batch. Names already loaded are never reloaded, in either
// mode; a batch with nothing new fails with ErrNoNewFiles. Extraction runs
// without holding the session lock and the batch is committed all at once;
// a failed batch changes nothing. A successful Add drops the held search
// outcome.
func (s *Session) Add(ctx context.Context, blobs []FileBlob, appendMode bool) (CorpusDelta, error) {
	s.mu.Lock()
	keep, skipped := s.corpus.Filter(blobs)
	total := s.corpus.Len()
	s.mu.Unlock()

	if len(keep) == 0 {
		s.logger.Info("no new files", zap.Strings("skipped", skipped))
		return CorpusDelta{Skipped: skipped, Total: total}, ErrNoNewFiles
	}
	s.progress("extracting", 0, len(keep), "")

	files, err := s.ingester.ExtractProgress(ctx, keep, s.OnProgress)
	if err != nil {
		return CorpusDelta{Total: total}, err
	}

	s.mu.Lock()
	delta := s.corpus.Commit(files, appendMode)
	s.outcome = nil
	s.mu.Unlock()

	delta.Skipped = append(skipped, delta.Skipped...)
	s.logger.Info("files added",
		zap.Int("added", len(delta.Added)),
		zap.Int("skipped", len(delta.Skipped)),
		zap.Bool("replaced", delta.Replaced),
		zap.Int("total", delta.Total))
	return delta, nil
}

// Clear empties the corpus and forgets the last outcome
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.corpus.Clear()
	s.outcome = nil
	s.logger.Info("corpus cleared")
}

// Search runs term over the corpus. On success the outcome replaces the held
// one; on failure corpus and outcome are left as they were.
func (s *Session) Search(term string) (*SearchOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	started := time.Now()
	outcome, err := Search(s.corpus.files, term)
	if err != nil {
		s.logger.Debug("search rejected", zap.String("term", term), zap.Error(err))
		return nil, err
	}
	s.outcome = outcome
	s.logger.Info("search completed",
		zap.String("term", outcome.Term),
		zap.Int("files", len(outcome.Results)),
		zap.Int("occurrences", outcome.TotalOccurrences),
		zap.Duration("elapsed", time.Since(started)))
	return outcome, nil
}

// Files returns a snapshot of the corpus
func (s *Session) Files() []UploadedFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.corpus.Files()
}

// Outcome returns the last successful search outcome, or nil
func (s *Session) Outcome() *SearchOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome
}

func (s *Session) progress(stage string, processed, total int, name string) {
	if s.OnProgress != nil {
		s.OnProgress(stage, processed, total, name)
	}
}
