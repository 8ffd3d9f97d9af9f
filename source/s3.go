package source

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"docfind/config"
	"docfind/logging"
	"docfind/search"
)

// S3 lists and fetches documents from a MinIO/S3 bucket.
type S3 struct {
	client *minio.Client
	bucket string
	prefix string
	logger *zap.Logger
}

// NewS3 creates a MinIO client from the S3 settings.
func NewS3(cfg config.S3, logger *zap.Logger) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 source: bucket is not set")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}
	logger = logging.OrNop(logger)
	return &S3{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		logger: logger,
	}, nil
}

// Collect lists the document objects under prefix (the configured prefix
// when empty) in key order. Object bodies are fetched only when a blob is
// opened.
func (s *S3) Collect(ctx context.Context, prefix string) ([]search.FileBlob, error) {
	if prefix == "" {
		prefix = s.prefix
	}

	var blobs []search.FileBlob
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list %s/%s: %w", s.bucket, prefix, obj.Err)
		}
		if !keepObject(obj) {
			continue
		}
		blobs = append(blobs, s.objectBlob(obj, prefix))
	}

	s.logger.Debug("bucket listed",
		zap.String("bucket", s.bucket),
		zap.String("prefix", prefix),
		zap.Int("documents", len(blobs)))
	return blobs, nil
}

func (s *S3) objectBlob(obj minio.ObjectInfo, prefix string) search.FileBlob {
	key := obj.Key
	mimeType := obj.ContentType
	if mimeType == "" {
		mimeType = mime.TypeByExtension(path.Ext(key))
	}
	return search.FileBlob{
		Name:     objectName(key, prefix),
		MIMEType: mimeType,
		Size:     obj.Size,
		Open: func(ctx context.Context) (io.ReadCloser, error) {
			o, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
			if err != nil {
				return nil, fmt.Errorf("get object %s: %w", key, err)
			}
			return o, nil
		},
	}
}

// keepObject drops folder markers, hidden objects and non-document keys
func keepObject(obj minio.ObjectInfo) bool {
	if strings.HasSuffix(obj.Key, "/") {
		return false
	}
	base := path.Base(obj.Key)
	return !config.IsHiddenFile(base) && config.IsDocumentFile(base)
}

// objectName strips the directory part of the listing prefix so names read
// like relative paths
func objectName(key, prefix string) string {
	dir := prefix[:strings.LastIndex(prefix, "/")+1]
	name := strings.TrimPrefix(key, dir)
	if name == "" {
		return path.Base(key)
	}
	return name
}
