package search

import (
	"time"

	"github.com/google/uuid"
)

// UploadedFile is a loaded document and its extracted text
type UploadedFile struct {
	ID         uuid.UUID      `json:"id"`
	Name       string         `json:"name"`
	Size       int64          `json:"size"`
	MIMEType   string         `json:"mime_type"`
	Format     Format         `json:"format"`
	Kind       ExtractionKind `json:"kind"`
	Text       string         `json:"-"`
	UploadedAt time.Time      `json:"uploaded_at"`
}

// CorpusDelta describes what one Add changed
type CorpusDelta struct {
	Added    []UploadedFile `json:"added"`
	Skipped  []string       `json:"skipped,omitempty"`
	Replaced bool           `json:"replaced"`
	Total    int            `json:"total"`
}

// Corpus is the ordered set of loaded files, unique by name.
// It is not safe for concurrent use; Session serialises access.
type Corpus struct {
	files []UploadedFile
	index map[string]int
}

// NewCorpus returns an empty corpus
func NewCorpus() *Corpus {
	return &Corpus{index: make(map[string]int)}
}

// Len returns the number of loaded files
func (c *Corpus) Len() int { return len(c.files) }

// Has reports whether a file with this name is loaded
func (c *Corpus) Has(name string) bool {
	_, ok := c.index[name]
	return ok
}

// Files returns a copy of the loaded files in insertion order
func (c *Corpus) Files() []UploadedFile {
	out := make([]UploadedFile, len(c.files))
	copy(out, c.files)
	return out
}

// Clear removes every file
func (c *Corpus) Clear() {
	c.files = nil
	c.index = make(map[string]int)
}

// Filter drops blobs whose name is already loaded or repeats an earlier
// blob of the batch. Kept blobs stay in batch order; dropped names are
// returned separately.
func (c *Corpus) Filter(blobs []FileBlob) (keep []FileBlob, skipped []string) {
	seen := make(map[string]bool, len(blobs))
	for _, b := range blobs {
		if seen[b.Name] || c.Has(b.Name) {
			skipped = append(skipped, b.Name)
			continue
		}
		seen[b.Name] = true
		keep = append(keep, b)
	}
	return keep, skipped
}

// Commit applies an extracted batch. Append mode adds files after the
// existing ones and silently drops names loaded in the meantime; replace
// mode swaps the whole corpus.
func (c *Corpus) Commit(files []UploadedFile, appendMode bool) CorpusDelta {
	delta := CorpusDelta{Replaced: !appendMode}
	if !appendMode {
		c.Clear()
	}
	for _, f := range files {
		if c.Has(f.Name) {
			delta.Skipped = append(delta.Skipped, f.Name)
			continue
		}
		c.index[f.Name] = len(c.files)
		c.files = append(c.files, f)
		delta.Added = append(delta.Added, f)
	}
	delta.Total = len(c.files)
	return delta
}
