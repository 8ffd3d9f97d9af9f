package search

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"docfind/logging"
)

// FileBlob is a file offered for loading. Open is called at most once.
type FileBlob struct {
	Name     string
	MIMEType string
	Size     int64
	Open     func(ctx context.Context) (io.ReadCloser, error)
}

// NewBytesBlob wraps in-memory content as a FileBlob
func NewBytesBlob(name, mimeType string, data []byte) FileBlob {
	return FileBlob{
		Name:     name,
		MIMEType: mimeType,
		Size:     int64(len(data)),
		Open: func(context.Context) (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// IngestOptions bounds batch extraction
type IngestOptions struct {
	Concurrency int
	FileTimeout time.Duration
	MaxFileSize int64
}

// Ingester turns blobs into UploadedFiles, extracting a batch concurrently
type Ingester struct {
	registry *ExtractorRegistry
	opts     IngestOptions
	logger   *zap.Logger

	now   func() time.Time
	newID func() uuid.UUID
}

// NewIngester creates an ingester over a registry
func NewIngester(registry *ExtractorRegistry, opts IngestOptions, logger *zap.Logger) *Ingester {
	logger = logging.OrNop(logger)
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Ingester{
		registry: registry,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.New,
	}
}

// Extract decodes every blob, at most Concurrency at a time. The first
// failure cancels the rest and is returned as a *BatchError; on success the
// files come back in blob order.
func (ing *Ingester) Extract(ctx context.Context, blobs []FileBlob) ([]UploadedFile, error) {
	return ing.ExtractProgress(ctx, blobs, nil)
}

// ExtractProgress is Extract with a callback fired as each file finishes.
func (ing *Ingester) ExtractProgress(ctx context.Context, blobs []FileBlob, onProgress ProgressFunc) ([]UploadedFile, error) {
	files := make([]UploadedFile, len(blobs))
	started := time.Now()
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ing.opts.Concurrency)
	for i, blob := range blobs {
		i, blob := i, blob
		g.Go(func() error {
			f, err := ing.extractOne(gctx, blob)
			if err != nil {
				return &BatchError{FileName: blob.Name, Cause: err}
			}
			files[i] = f
			if onProgress != nil {
				onProgress("extracting", int(done.Add(1)), len(blobs), blob.Name)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		ing.logger.Warn("batch extraction failed", zap.Int("files", len(blobs)), zap.Error(err))
		return nil, err
	}

	ing.logger.Info("batch extracted",
		zap.Int("files", len(blobs)),
		zap.Duration("elapsed", time.Since(started)))
	return files, nil
}

func (ing *Ingester) extractOne(ctx context.Context, blob FileBlob) (UploadedFile, error) {
	format, err := DetectFormat(blob.Name, blob.MIMEType)
	if err != nil {
		return UploadedFile{}, err
	}

	if ing.opts.FileTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ing.opts.FileTimeout)
		defer cancel()
	}

	data, err := ing.readBlob(ctx, blob)
	if err != nil {
		return UploadedFile{}, err
	}

	var ex Extraction
	var exErr error
	if err := executeWithTimeout(ctx, func() {
		ex, exErr = ing.registry.ExtractFormat(format, blob.Name, data)
	}); err != nil {
		return UploadedFile{}, &ExtractionError{FileName: blob.Name, Cause: err}
	}
	if exErr != nil {
		return UploadedFile{}, exErr
	}

	mimeType := blob.MIMEType
	if mimeType == "" {
		mimeType = format.MIMEType()
	}
	ing.logger.Debug("file extracted",
		zap.String("file", blob.Name),
		zap.Stringer("format", format),
		zap.Stringer("kind", ex.Kind),
		zap.Int("chars", len(ex.Text)))

	return UploadedFile{
		ID:         ing.newID(),
		Name:       blob.Name,
		Size:       int64(len(data)),
		MIMEType:   mimeType,
		Format:     format,
		Kind:       ex.Kind,
		Text:       ex.Text,
		UploadedAt: ing.now(),
	}, nil
}

// readBlob reads the whole blob, refusing anything over MaxFileSize.
func (ing *Ingester) readBlob(ctx context.Context, blob FileBlob) ([]byte, error) {
	limit := ing.opts.MaxFileSize
	if limit > 0 && blob.Size > limit {
		return nil, &ExtractionError{FileName: blob.Name, Cause: fmt.Errorf("%w: %s", ErrFileTooLarge, FormatFileSize(blob.Size))}
	}
	if blob.Open == nil {
		return nil, &ExtractionError{FileName: blob.Name, Cause: fmt.Errorf("no content")}
	}

	rc, err := blob.Open(ctx)
	if err != nil {
		return nil, &ExtractionError{FileName: blob.Name, Cause: fmt.Errorf("open: %w", err)}
	}
	defer rc.Close()

	var r io.Reader = rc
	if limit > 0 {
		r = io.LimitReader(rc, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ExtractionError{FileName: blob.Name, Cause: fmt.Errorf("read: %w", err)}
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, &ExtractionError{FileName: blob.Name, Cause: fmt.Errorf("%w: over %s", ErrFileTooLarge, FormatFileSize(limit))}
	}
	return data, nil
}

// executeWithTimeout runs fn and stops waiting once ctx is done. fn keeps
// running in the background; its results must not be read after a timeout.
func executeWithTimeout(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("extraction interrupted: %w", ctx.Err())
	}
}
