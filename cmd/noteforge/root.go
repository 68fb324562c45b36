package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/noteforge/internal/config"
)

// cli holds the streams and flags shared by every command.
type cli struct {
	stdout io.Writer
	stderr io.Writer
	editor func(ctx context.Context, path string) error

	remote  string
	timeout string
	verbose bool
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "noteforge",
		Short: "Convert photographed math notes to LaTeX and PDF",
		Long: `noteforge uploads photographed pages of handwritten math notes to the
recognition service, retrieves the LaTeX conversion, optionally opens it in
your editor, and downloads the typeset PDF.

Settings are read from config.toml, config.<NOTEFORGE_ENV>.toml, .env and
NOTEFORGE_* environment variables in the working directory.`,
		SilenceUsage: true,
	}
	root.SetOut(c.stdout)
	root.SetErr(c.stderr)

	root.PersistentFlags().StringVar(&c.remote, "remote", "", "remote service base URL (overrides remote.base_url)")
	root.PersistentFlags().StringVar(&c.timeout, "timeout", "", "remote call timeout (overrides remote.timeout)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log remote calls and stage transitions")

	root.AddCommand(newConvertCmd(c))
	root.AddCommand(newAddressCmd(c))

	return root
}

// load reads the configuration and applies flag overrides.
func (c *cli) load() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	if c.remote != "" {
		cfg.Remote.BaseURL = c.remote
	}
	if c.timeout != "" {
		cfg.Remote.Timeout = c.timeout
	}
	if err := cfg.Remote.Finalize(nil); err != nil {
		return nil, nil, fmt.Errorf("remote: %w", err)
	}

	level := slog.LevelWarn
	if c.verbose {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(c.stderr, &slog.HandlerOptions{Level: level}))

	return cfg, logger, nil
}

// runEditor opens path in $VISUAL, $EDITOR, or vi.
func runEditor(ctx context.Context, path string) error {
	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}

	args := strings.Fields(editor)
	cmd := exec.CommandContext(ctx, args[0], append(args[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("run editor %s: %w", args[0], err)
	}
	return nil
}
