package app

import (
	"context"
	"errors"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"docfind/search"
)

// EnvPassword is read by login when --password is not given
const EnvPassword = "DOCFIND_PASSWORD"

func newSearchCmd(e *env) *cobra.Command {
	var (
		format   string
		useS3    bool
		s3Prefix string
		noColor  bool
	)
	cmd := &cobra.Command{
		Use:   "search TERM [PATH...]",
		Short: "Load documents and print the sentences mentioning TERM",
		Example: `  docfind search cat ./notes report.pdf
  docfind search "new york" --s3 --s3-prefix inbox/ --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := parseFormat(format)
			if err != nil {
				return err
			}
			term, paths := args[0], args[1:]
			if strings.TrimSpace(term) == "" {
				return search.ErrInvalidSearchTerm
			}

			ctx := cmd.Context()
			blobs, err := e.collect(ctx, paths, useS3, s3Prefix)
			if err != nil {
				return err
			}
			session, _ := e.newSession(len(blobs))
			if len(blobs) > 0 {
				if _, err := session.Add(ctx, blobs, true); err != nil && !errors.Is(err, search.ErrNoNewFiles) {
					return err
				}
			}

			outcome, err := session.Search(term)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), out, outcome, !noColor)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "o", string(formatText), "Output format: text, json or msgpack")
	cmd.Flags().BoolVar(&useS3, "s3", false, "Also load documents from the configured S3 bucket")
	cmd.Flags().StringVar(&s3Prefix, "s3-prefix", "", "Object key prefix to list (default from config)")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Do not highlight the term in text output")
	return cmd
}

func newTUICmd(e *env) *cobra.Command {
	var (
		useS3    bool
		s3Prefix string
	)
	cmd := &cobra.Command{
		Use:   "tui [PATH...]",
		Short: "Load documents and search them interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			session, workers := e.newSession(0)
			m := newModel(ctx, session, workers, func(ctx context.Context) ([]search.FileBlob, error) {
				return e.collect(ctx, args, useS3, s3Prefix)
			})

			p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
			_, err := p.Run()
			if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
				return nil
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&useS3, "s3", false, "Also load documents from the configured S3 bucket")
	cmd.Flags().StringVar(&s3Prefix, "s3-prefix", "", "Object key prefix to list (default from config)")
	return cmd
}

func newLoginCmd(e *env) *cobra.Command {
	var user, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Check credentials against the login backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv(EnvPassword)
			}
			if user == "" || password == "" {
				return errors.New("login needs --user and a password (--password or $" + EnvPassword + ")")
			}
			if err := e.authClient().Login(cmd.Context(), user, password); err != nil {
				return err
			}
			cmd.Println(successStyle.Render("Login successful!"))
			return nil
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", "", "Username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password")
	return cmd
}
