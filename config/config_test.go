package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(EnvConfigPath, "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.Extraction.FileTimeout)
	assert.Equal(t, int64(50<<20), cfg.Extraction.MaxFileSize)
	assert.GreaterOrEqual(t, cfg.Extraction.Concurrency, 1)
	assert.LessOrEqual(t, cfg.Extraction.Concurrency, 8)
	assert.True(t, cfg.Extraction.PDFSalvage)
	assert.False(t, cfg.Extraction.SalvageLegacyDoc)
	assert.Equal(t, "http://localhost:8080", cfg.Auth.BaseURL)
	assert.False(t, cfg.S3Enabled())
}

func TestLoadYAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "docfind.yaml")
	yml := `
log_level: DEBUG
extraction:
  concurrency: 3
  file_timeout: 5s
  salvage_legacy_doc: true
auth:
  base_url: http://auth.local:9000/
s3:
  endpoint: localhost:9000
  bucket: docs
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	t.Setenv("DOCFIND_CONCURRENCY", "6")
	t.Setenv("DOCFIND_S3_PREFIX", "inbox/")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 6, cfg.Extraction.Concurrency)
	assert.Equal(t, 5*time.Second, cfg.Extraction.FileTimeout)
	assert.True(t, cfg.Extraction.SalvageLegacyDoc)
	assert.Equal(t, "http://auth.local:9000", cfg.Auth.BaseURL)
	assert.Equal(t, "inbox/", cfg.S3.Prefix)
	assert.True(t, cfg.S3Enabled())
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadMissingEnvFileIsIgnored(t *testing.T) {
	t.Setenv(EnvConfigPath, filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := Load("")
	assert.NoError(t, err)
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("extraction: [1, 2"), 0o600))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestInvalidEnvKeepsPreviousValue(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	t.Setenv("DOCFIND_FILE_TIMEOUT", "soon")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.Extraction.FileTimeout)
}

func TestIsDocumentFile(t *testing.T) {
	assert.True(t, IsDocumentFile("report.PDF"))
	assert.True(t, IsDocumentFile("notes.txt"))
	assert.True(t, IsDocumentFile("a.b.docx"))
	assert.True(t, IsDocumentFile("legacy.doc"))
	assert.False(t, IsDocumentFile("image.png"))
	assert.False(t, IsDocumentFile("README"))
	assert.False(t, IsDocumentFile("trailing."))
}

func TestShouldSkipDirectory(t *testing.T) {
	assert.True(t, ShouldSkipDirectory(".git"))
	assert.True(t, ShouldSkipDirectory("node_modules"))
	assert.True(t, ShouldSkipDirectory(".cache"))
	assert.False(t, ShouldSkipDirectory("reports"))
}

func TestDeriveConcurrencyBounds(t *testing.T) {
	for _, cpus := range []int{0, 1, 2, 16, 128} {
		n := DeriveConcurrency(cpus)
		assert.GreaterOrEqual(t, n, 1)
		assert.LessOrEqual(t, n, 8)
	}
}
