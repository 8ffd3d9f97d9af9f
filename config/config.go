package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds runtime settings. Values are resolved as defaults, then the
// optional YAML file, then DOCFIND_* environment variables.
type Config struct {
	LogLevel   string     `yaml:"log_level"`
	LogFormat  string     `yaml:"log_format"`
	LogFile    string     `yaml:"log_file"`
	Extraction Extraction `yaml:"extraction"`
	Auth       Auth       `yaml:"auth"`
	S3         S3         `yaml:"s3"`
}

// Extraction tunes batch text extraction.
type Extraction struct {
	Concurrency      int           `yaml:"concurrency"`
	FileTimeout      time.Duration `yaml:"file_timeout"`
	MaxFileSize      int64         `yaml:"max_file_size"`
	SalvageLegacyDoc bool          `yaml:"salvage_legacy_doc"`
	PDFSalvage       bool          `yaml:"pdf_salvage"`
}

// Auth points the login client at its backend.
type Auth struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// S3 describes an object store used as a document source.
type S3 struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Region    string `yaml:"region"`
	UseSSL    bool   `yaml:"use_ssl"`
}

const (
	defaultLogLevel    = "info"
	defaultLogFormat   = "console"
	defaultFileTimeout = 30 * time.Second
	defaultMaxFileSize = 50 << 20 // 50 MiB
	defaultAuthBaseURL = "http://localhost:8080"
	defaultAuthTimeout = 10 * time.Second

	// EnvConfigPath names the variable holding the config file path.
	EnvConfigPath = "DOCFIND_CONFIG"
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel:  defaultLogLevel,
		LogFormat: defaultLogFormat,
		Extraction: Extraction{
			Concurrency: DeriveConcurrency(runtime.NumCPU()),
			FileTimeout: defaultFileTimeout,
			MaxFileSize: defaultMaxFileSize,
			PDFSalvage:  true,
		},
		Auth: Auth{
			BaseURL: defaultAuthBaseURL,
			Timeout: defaultAuthTimeout,
		},
	}
}

// Load resolves configuration. An empty path falls back to $DOCFIND_CONFIG;
// a missing file is only an error when the path was given explicitly.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = readEnv(EnvConfigPath, "")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist) && !explicit:
		default:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.normalize()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.LogLevel = readEnv("DOCFIND_LOG_LEVEL", c.LogLevel)
	c.LogFormat = readEnv("DOCFIND_LOG_FORMAT", c.LogFormat)
	c.LogFile = readEnv("DOCFIND_LOG_FILE", c.LogFile)

	c.Extraction.Concurrency = parseInt("DOCFIND_CONCURRENCY", c.Extraction.Concurrency)
	c.Extraction.FileTimeout = parseDuration("DOCFIND_FILE_TIMEOUT", c.Extraction.FileTimeout)
	c.Extraction.MaxFileSize = parseInt64("DOCFIND_MAX_FILE_BYTES", c.Extraction.MaxFileSize)
	c.Extraction.SalvageLegacyDoc = parseBool("DOCFIND_SALVAGE_DOC", c.Extraction.SalvageLegacyDoc)
	c.Extraction.PDFSalvage = parseBool("DOCFIND_PDF_SALVAGE", c.Extraction.PDFSalvage)

	c.Auth.BaseURL = readEnv("DOCFIND_AUTH_URL", c.Auth.BaseURL)
	c.Auth.Timeout = parseDuration("DOCFIND_AUTH_TIMEOUT", c.Auth.Timeout)

	c.S3.Endpoint = readEnv("DOCFIND_S3_ENDPOINT", c.S3.Endpoint)
	c.S3.AccessKey = readEnv("DOCFIND_S3_ACCESS_KEY", c.S3.AccessKey)
	c.S3.SecretKey = readEnv("DOCFIND_S3_SECRET_KEY", c.S3.SecretKey)
	c.S3.Bucket = readEnv("DOCFIND_S3_BUCKET", c.S3.Bucket)
	c.S3.Prefix = readEnv("DOCFIND_S3_PREFIX", c.S3.Prefix)
	c.S3.Region = readEnv("DOCFIND_S3_REGION", c.S3.Region)
	c.S3.UseSSL = parseBool("DOCFIND_S3_USE_SSL", c.S3.UseSSL)
}

func (c *Config) normalize() {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	if c.LogFormat == "" {
		c.LogFormat = defaultLogFormat
	}
	if c.Extraction.Concurrency <= 0 {
		c.Extraction.Concurrency = DeriveConcurrency(runtime.NumCPU())
	}
	if c.Extraction.FileTimeout <= 0 {
		c.Extraction.FileTimeout = defaultFileTimeout
	}
	if c.Extraction.MaxFileSize <= 0 {
		c.Extraction.MaxFileSize = defaultMaxFileSize
	}
	c.Auth.BaseURL = strings.TrimRight(c.Auth.BaseURL, "/")
	if c.Auth.BaseURL == "" {
		c.Auth.BaseURL = defaultAuthBaseURL
	}
	if c.Auth.Timeout <= 0 {
		c.Auth.Timeout = defaultAuthTimeout
	}
}

// S3Enabled reports whether enough is configured to reach an object store.
func (c *Config) S3Enabled() bool {
	return c.S3.Endpoint != "" && c.S3.Bucket != ""
}

func readEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func parseInt64(key string, def int64) int64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			return parsed
		}
	}
	return def
}

func parseInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func parseBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return def
}

func parseDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return def
}
