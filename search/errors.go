package search

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFormat is returned for files outside pdf, doc, docx and txt.
	ErrUnsupportedFormat = errors.New("unsupported file type")
	// ErrExtractionFailed is returned when a supported file cannot be decoded.
	ErrExtractionFailed = errors.New("text extraction failed")
	// ErrBatchExtractionFailed is returned when any file of an upload batch fails.
	ErrBatchExtractionFailed = errors.New("batch extraction failed")
	// ErrNoNewFiles is returned when every file of a batch is already loaded.
	ErrNoNewFiles = errors.New("no new files to add")
	// ErrInvalidSearchTerm is returned for an empty or whitespace-only term.
	ErrInvalidSearchTerm = errors.New("search term is empty")
	// ErrEmptyCorpus is returned when searching before any file is loaded.
	ErrEmptyCorpus = errors.New("no files loaded")
	// ErrFileTooLarge is wrapped by ExtractionError when a file exceeds the size limit.
	ErrFileTooLarge = errors.New("file exceeds size limit")
)

// UnsupportedFormatError names the file and declared type that could not be dispatched.
type UnsupportedFormatError struct {
	FileName string
	MIMEType string
}

func (e *UnsupportedFormatError) Error() string {
	mt := e.MIMEType
	if mt == "" {
		mt = "unknown"
	}
	return fmt.Sprintf("unsupported file type %s for %s", mt, e.FileName)
}

func (e *UnsupportedFormatError) Is(target error) bool { return target == ErrUnsupportedFormat }

// ExtractionError wraps a decode failure for one file.
type ExtractionError struct {
	FileName string
	Cause    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("error reading %s: %v", e.FileName, e.Cause)
}

func (e *ExtractionError) Unwrap() error { return e.Cause }

func (e *ExtractionError) Is(target error) bool { return target == ErrExtractionFailed }

// BatchError reports the file that made an upload batch fail.
type BatchError struct {
	FileName string
	Cause    error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch failed on %s: %v", e.FileName, e.Cause)
}

func (e *BatchError) Unwrap() error { return e.Cause }

func (e *BatchError) Is(target error) bool { return target == ErrBatchExtractionFailed }

// GenericUserMessage is shown for errors outside the pipeline taxonomy.
const GenericUserMessage = "Something went wrong. Please try again."

// UserMessage maps a pipeline error to the single line shown to a user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var unsupported *UnsupportedFormatError
	var extraction *ExtractionError
	var batch *BatchError

	switch {
	case errors.Is(err, ErrInvalidSearchTerm):
		return "Please enter a search term."
	case errors.Is(err, ErrEmptyCorpus):
		return "Please upload at least one file before searching."
	case errors.Is(err, ErrNoNewFiles):
		return "All selected files are already loaded."
	case errors.As(err, &unsupported):
		return fmt.Sprintf("Unsupported file type: %s", describeType(unsupported.MIMEType, unsupported.FileName))
	case errors.Is(err, context.DeadlineExceeded):
		if errors.As(err, &batch) {
			return fmt.Sprintf("Error reading %s: timed out", batch.FileName)
		}
		return "The operation timed out."
	case errors.Is(err, context.Canceled):
		return "The operation was cancelled."
	case errors.As(err, &extraction):
		if errors.Is(err, ErrFileTooLarge) {
			return fmt.Sprintf("Error reading %s: file is too large", extraction.FileName)
		}
		return fmt.Sprintf("Error reading %s: %v", extraction.FileName, extraction.Cause)
	case errors.As(err, &batch):
		return fmt.Sprintf("Error reading %s: %v", batch.FileName, batch.Cause)
	default:
		return GenericUserMessage
	}
}

func describeType(mimeType, name string) string {
	if mimeType != "" {
		return mimeType
	}
	return name
}
