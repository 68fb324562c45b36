package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/noteforge/internal/batch"
	"github.com/JaimeStill/noteforge/internal/render"
	"github.com/JaimeStill/noteforge/internal/transfer"
	"github.com/JaimeStill/noteforge/internal/workflow"
	"github.com/JaimeStill/noteforge/pkg/formatting"
	"github.com/JaimeStill/noteforge/pkg/lifecycle"
	"github.com/JaimeStill/noteforge/pkg/storage"
)

type convertOptions struct {
	out      string
	tex      string
	previews string
	edit     bool
	archive  bool
}

func newConvertCmd(c *cli) *cobra.Command {
	opts := &convertOptions{}

	cmd := &cobra.Command{
		Use:   "convert <image>...",
		Short: "Convert page images to a PDF",
		Long: `Upload up to five page images in page order, convert them to LaTeX,
and download the typeset PDF. With --edit the LaTeX opens in $EDITOR
before rendering; saving and closing the editor commits the changes.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.convert(cmd.Context(), args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "PDF output path (default mathNotes-<id>.pdf)")
	cmd.Flags().StringVar(&opts.tex, "tex", "", "also write the LaTeX source to this path")
	cmd.Flags().StringVar(&opts.previews, "previews", "", "write PNG page previews to this directory")
	cmd.Flags().BoolVarP(&opts.edit, "edit", "e", false, "edit the LaTeX in $EDITOR before rendering")
	cmd.Flags().BoolVar(&opts.archive, "archive", false, "archive the PDF to configured blob storage")

	return cmd
}

func (c *cli) convert(ctx context.Context, paths []string, opts *convertOptions) error {
	cfg, logger, err := c.load()
	if err != nil {
		return err
	}

	files, err := batch.ReadFiles(ctx, paths)
	if err != nil {
		return err
	}

	if opts.previews != "" {
		cfg.Render.Previews = true
	}

	client := transfer.New(&cfg.Remote, logger)
	retrieval := render.New(client, &cfg.Render, logger)

	var store storage.System
	if opts.archive {
		lc := lifecycle.NewWithContext(ctx)
		if store, err = openStorage(&cfg.Storage, lc, logger); err != nil {
			return err
		}
		defer lc.Shutdown(5 * time.Second)
	}

	sys := workflow.New(batch.NewBuilder(&cfg.Batch), client, retrieval, store, logger)

	snap, err := sys.Upload(ctx, files)
	if err != nil {
		return bannerError(snap, err)
	}
	fmt.Fprintf(c.stdout, "uploaded %d page(s) as document %s\n", len(files), snap.DocumentID)

	snap, err = sys.EnterReview(ctx)
	if err != nil {
		return bannerError(snap, err)
	}

	if opts.edit {
		if err := c.edit(ctx, sys, snap.Review.Text); err != nil {
			return err
		}
	}

	if opts.tex != "" {
		text, err := sys.Copy()
		if err != nil {
			return fmt.Errorf("copy latex: %w", err)
		}
		if err := os.WriteFile(opts.tex, []byte(text), 0644); err != nil {
			return fmt.Errorf("write latex: %w", err)
		}
		fmt.Fprintf(c.stdout, "wrote %s\n", opts.tex)
	}

	snap, err = sys.GeneratePDF(ctx)
	if err != nil {
		c.reportFailure(snap)
		return err
	}

	artifact, err := sys.Artifact()
	if err != nil {
		return err
	}

	out := opts.out
	if out == "" {
		out = artifact.Filename
	}
	if err := os.WriteFile(out, artifact.Data, 0644); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	fmt.Fprintf(c.stdout, "wrote %s (%d page(s), %s)\n", out, artifact.PageCount, formatting.FormatBytes(artifact.Size, 1))

	if opts.previews != "" {
		if err := c.writePreviews(ctx, retrieval, artifact, opts.previews); err != nil {
			return err
		}
	}

	if opts.archive {
		key, err := sys.Archive(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.stdout, "archived %s\n", key)
	}

	return nil
}

// edit round-trips the LaTeX through the editor and commits the result.
func (c *cli) edit(ctx context.Context, sys workflow.System, text string) error {
	f, err := os.CreateTemp("", "noteforge-*.tex")
	if err != nil {
		return fmt.Errorf("create edit buffer: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.WriteString(text); err != nil {
		f.Close()
		return fmt.Errorf("write edit buffer: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close edit buffer: %w", err)
	}

	if _, err := sys.BeginEdit(); err != nil {
		return err
	}

	if err := c.editor(ctx, path); err != nil {
		return cancelEdit(sys, err)
	}

	edited, err := os.ReadFile(path)
	if err != nil {
		return cancelEdit(sys, fmt.Errorf("read edit buffer: %w", err))
	}

	if _, err := sys.UpdateDraft(string(edited)); err != nil {
		return err
	}
	_, err = sys.SaveEdit()
	return err
}

// cancelEdit discards the draft and returns cause joined with any cancel failure.
func cancelEdit(sys workflow.System, cause error) error {
	if _, err := sys.CancelEdit(); err != nil {
		return errors.Join(cause, fmt.Errorf("cancel edit: %w", err))
	}
	return cause
}

// bannerError prefers the user-facing banner over the raw error.
func bannerError(snap workflow.Snapshot, err error) error {
	if snap.Error != "" {
		return errors.New(snap.Error)
	}
	return err
}

func (c *cli) reportFailure(snap workflow.Snapshot) {
	fmt.Fprintln(c.stderr, snap.Error)

	failure := snap.Render.Failure
	if failure == nil {
		return
	}
	fmt.Fprintln(c.stderr, failure.UserMessage)
	if failure.Detail != "" {
		fmt.Fprintln(c.stderr, failure.Detail)
	}
	if snap.Render.Hint != "" {
		fmt.Fprintln(c.stderr, snap.Render.Hint)
	}
	fmt.Fprintf(c.stderr, "render address: %s\n", snap.Render.Address)
}

func (c *cli) writePreviews(ctx context.Context, retrieval *render.Retrieval, artifact *render.Artifact, dir string) error {
	pages, err := retrieval.Preview(ctx, artifact)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create preview directory: %w", err)
	}

	for _, page := range pages {
		path := filepath.Join(dir, fmt.Sprintf("page-%d.png", page.Number))
		if err := os.WriteFile(path, page.Data, 0644); err != nil {
			return fmt.Errorf("write preview: %w", err)
		}
	}

	fmt.Fprintf(c.stdout, "wrote %d preview(s) to %s\n", len(pages), dir)
	return nil
}

func openStorage(cfg *storage.Config, lc *lifecycle.Coordinator, logger *slog.Logger) (storage.System, error) {
	store, err := storage.New(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := store.Start(lc); err != nil {
		return nil, err
	}
	if err := lc.WaitForStartup(); err != nil {
		return nil, err
	}
	return store, nil
}
