package cli

import (
	"context"

	"talentsift/internal/config"
	"talentsift/internal/errors"

	"github.com/spf13/cobra"
)

// ctxKey keeps the config and logger context values private to this package
type ctxKey int

const (
	configCtxKey ctxKey = iota
	loggerCtxKey
)

var rootCmd = &cobra.Command{
	Use:   "talentsift",
	Short: "A CLI tool for screening resumes using AI",
	Long: `TalentSift is a command-line tool that screens candidate resumes
against a job description or structured criteria using AI. It extracts text
from PDF, DOCX and plain text resumes, scores each candidate and ranks the
batch by overall fit.`,
}

func init() {
	rootCmd.AddCommand(screenCmd, versionCmd, serveCmd)
}

// Execute runs the CLI with the config and logger threaded through the
// command context, so every subcommand sees the same instances.
func Execute(ctx context.Context, cfg *config.Config, logger *errors.Logger) error {
	ctx = context.WithValue(ctx, configCtxKey, cfg)
	ctx = context.WithValue(ctx, loggerCtxKey, logger)
	rootCmd.SetContext(ctx)
	return rootCmd.Execute()
}

// configFrom and loggerFrom panic on a missing value: Execute always
// installs both, so absence means a programming error, not a user one.
func configFrom(ctx context.Context) *config.Config {
	cfg, ok := ctx.Value(configCtxKey).(*config.Config)
	if !ok {
		panic("config not found in context")
	}
	return cfg
}

func loggerFrom(ctx context.Context) *errors.Logger {
	logger, ok := ctx.Value(loggerCtxKey).(*errors.Logger)
	if !ok {
		panic("logger not found in context")
	}
	return logger
}
