package main

import (
	"fmt"
	"io"
	"os"

	"github.com/samvad-hq/codereview/internal/config"
	"github.com/samvad-hq/codereview/internal/logger"
	"github.com/samvad-hq/codereview/pkg/reviewapi"
	"github.com/spf13/cobra"
)

const (
	outputJSON = "json"
	outputText = "text"
)

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	apiURL string
}

// closeLogger flushes the logger. Sync on a terminal stderr can fail, so the error is dropped.
var closeLogger = func() { _ = logger.Close() }

func main() {
	if err := newRootCmd(os.Stdin, os.Stdout).Execute(); err != nil {
		// Post-run hooks are skipped when a command fails.
		closeLogger()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(stdin io.Reader, stdout io.Writer) *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:           "reviewctl",
		Short:         "CLI client for the code review backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRun: func(*cobra.Command, []string) {
			closeLogger()
		},
	}
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.PersistentFlags().StringVar(&opts.apiURL, "api-url", "", "Backend base URL (defaults to API_BASE_URL)")

	rootCmd.AddCommand(newAnalyzeCmd(opts))
	rootCmd.AddCommand(newHealthCmd(opts))
	return rootCmd
}

// client builds an API client from the environment, with --api-url taking precedence.
func (o *rootOptions) client() (*reviewapi.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if o.apiURL != "" {
		cfg.APIBaseURL = o.apiURL
	}
	if err := cfg.ValidateClient(); err != nil {
		return nil, fmt.Errorf("api url: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return reviewapi.New(
		reviewapi.Config{BaseURL: cfg.APIBaseURL, Timeout: cfg.APITimeout},
		reviewapi.WithLogger(log),
	)
}
