package source

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"docfind/config"
	"docfind/logging"
	"docfind/search"
)

// sniffLen is how much of an extensionless file is read to guess its type
const sniffLen = 512

// Local collects documents from the file system
type Local struct {
	documentTypes map[string]bool
	logger        *zap.Logger
}

// NewLocal creates a local source filtering walked directories to document types
func NewLocal(logger *zap.Logger) *Local {
	logger = logging.OrNop(logger)
	return &Local{
		documentTypes: config.BuildFileTypeMap(),
		logger:        logger,
	}
}

// isValidFileType checks if a file extension is one we can load
func (l *Local) isValidFileType(path string) bool {
	return l.documentTypes[strings.ToLower(filepath.Ext(path))]
}

// Collect turns paths into blobs in argument order. A file argument is
// always offered, so an unsupported one fails its batch; a directory is
// walked in lexical order and contributes only document files, named by
// their slash-separated path relative to it.
func (l *Local) Collect(ctx context.Context, paths []string) ([]search.FileBlob, error) {
	var blobs []search.FileBlob
	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", root, err)
		}
		if !info.IsDir() {
			blob, err := l.fileBlob(root, filepath.Base(root), info.Size())
			if err != nil {
				return nil, err
			}
			blobs = append(blobs, blob)
			continue
		}

		found, err := l.walk(ctx, root)
		if err != nil {
			return nil, err
		}
		blobs = append(blobs, found...)
	}
	return blobs, nil
}

func (l *Local) walk(ctx context.Context, root string) ([]search.FileBlob, error) {
	var blobs []search.FileBlob
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			l.logger.Debug("skipping unreadable path", zap.String("path", path), zap.Error(err))
			return nil // Skip files we can't access
		}

		// Check for cancellation
		if err := ctx.Err(); err != nil {
			return err
		}

		if d.IsDir() {
			if path != root && config.ShouldSkipDirectory(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if config.IsHiddenFile(d.Name()) || !l.isValidFileType(path) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = d.Name()
		}
		blob, err := l.fileBlob(path, filepath.ToSlash(rel), info.Size())
		if err != nil {
			return err
		}
		blobs = append(blobs, blob)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	l.logger.Debug("directory walked", zap.String("root", root), zap.Int("documents", len(blobs)))
	return blobs, nil
}

func (l *Local) fileBlob(path, name string, size int64) (search.FileBlob, error) {
	mimeType, err := detectMIME(path)
	if err != nil {
		return search.FileBlob{}, err
	}
	return search.FileBlob{
		Name:     name,
		MIMEType: mimeType,
		Size:     size,
		Open: func(context.Context) (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// detectMIME maps the extension to a media type, sniffing the first bytes
// when the extension is unknown.
func detectMIME(path string) (string, error) {
	if mt := mime.TypeByExtension(filepath.Ext(path)); mt != "" {
		return mt, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	if n == 0 {
		return "", nil
	}
	return http.DetectContentType(head[:n]), nil
}
