package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"docfind/auth"
	"docfind/config"
	"docfind/logging"
	"docfind/search"
	"docfind/source"
)

var version = "0.3"

// env carries what every subcommand needs once flags are parsed
type env struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *zap.Logger
}

// Run parses CLI arguments and dispatches to a subcommand. Returns a process exit code.
func Run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	e := &env{}
	err := newRootCommand(e).ExecuteContext(ctx)
	if e.logger != nil {
		_ = e.logger.Sync()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+describeError(err)))
		return 1
	}
	return 0
}

func newRootCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docfind",
		Short: "Search PDF, Word and text documents for a word",
		Long: logo() + `

docfind loads documents (pdf, doc, docx, txt) from local paths or an S3 bucket,
extracts their text and reports every sentence mentioning a term together
with whole-word occurrence counts.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.init(cmd.Name() == "tui")
		},
	}
	cmd.SetVersionTemplate(successStyle.Render("docfind v{{.Version}}") + "\n")
	cmd.PersistentFlags().StringVarP(&e.configPath, "config", "c", "", "YAML config file (default $"+config.EnvConfigPath+")")
	cmd.PersistentFlags().StringVar(&e.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	cmd.AddCommand(
		newSearchCmd(e),
		newTUICmd(e),
		newLoginCmd(e),
	)
	return cmd
}

// init loads configuration and builds the logger. Interactive sessions log
// only to the configured file so the screen stays clean.
func (e *env) init(interactive bool) error {
	cfg, err := config.Load(e.configPath)
	if err != nil {
		return err
	}
	if e.logLevel != "" {
		cfg.LogLevel = e.logLevel
	}
	e.cfg = cfg

	switch {
	case cfg.LogFile != "":
		e.logger, err = logging.New(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	case interactive:
		e.logger = zap.NewNop()
	default:
		e.logger, err = logging.New(cfg.LogLevel, cfg.LogFormat)
	}
	return err
}

// newSession wires the extraction pipeline. A known batch size caps the
// worker count by config.GetPerformanceProfile.
func (e *env) newSession(batchSize int) (*search.Session, int) {
	registry := search.NewExtractorRegistry(search.ExtractorOptions{
		SalvageLegacyDoc: e.cfg.Extraction.SalvageLegacyDoc,
		PDFSalvage:       e.cfg.Extraction.PDFSalvage,
	}, e.logger)

	workers := e.cfg.Extraction.Concurrency
	if batchSize > 0 {
		workers = min(workers, config.GetPerformanceProfile(batchSize))
	}
	ing := search.NewIngester(registry, search.IngestOptions{
		Concurrency: workers,
		FileTimeout: e.cfg.Extraction.FileTimeout,
		MaxFileSize: e.cfg.Extraction.MaxFileSize,
	}, e.logger)
	return search.NewSession(ing, e.logger), workers
}

// collect gathers blobs from local paths and, when useS3 is set, the bucket
func (e *env) collect(ctx context.Context, paths []string, useS3 bool, s3Prefix string) ([]search.FileBlob, error) {
	blobs, err := source.NewLocal(e.logger).Collect(ctx, paths)
	if err != nil {
		return nil, err
	}
	if !useS3 {
		return blobs, nil
	}
	if !e.cfg.S3Enabled() {
		return nil, errors.New("s3 source needs an endpoint and a bucket (DOCFIND_S3_ENDPOINT, DOCFIND_S3_BUCKET)")
	}
	store, err := source.NewS3(e.cfg.S3, e.logger)
	if err != nil {
		return nil, err
	}
	remote, err := store.Collect(ctx, s3Prefix)
	if err != nil {
		return nil, err
	}
	return append(blobs, remote...), nil
}

func (e *env) authClient() *auth.Client {
	return auth.NewClient(e.cfg.Auth.BaseURL, e.cfg.Auth.Timeout, e.logger)
}

// describeError renders err as the one line a user sees
func describeError(err error) string {
	if errors.Is(err, auth.ErrInvalidCredentials) {
		return "Invalid credentials."
	}
	if msg := search.UserMessage(err); msg != search.GenericUserMessage {
		return msg
	}
	return err.Error()
}

func logo() string {
	logoTop := " █▀▄ █▀█ █▀▀ █▀▀ █ █▄ █ █▀▄"
	logoBottom := fmt.Sprintf(" █▄▀ █▄█ █▄▄ █▀  █ █ ▀█ █▄▀  v%s", version)
	// Pad lines to equal width and render left-aligned to avoid odd spacing
	if n := lipgloss.Width(logoBottom) - lipgloss.Width(logoTop); n > 0 {
		logoTop += strings.Repeat(" ", n)
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("#7aa2f7")).Render(logoTop + "\n" + logoBottom)
}
