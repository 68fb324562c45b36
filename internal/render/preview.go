package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/JaimeStill/document-context/pkg/config"
	"github.com/JaimeStill/document-context/pkg/document"
	"github.com/JaimeStill/document-context/pkg/image"
	"golang.org/x/sync/errgroup"
)

// Page is a PNG rendering of one artifact page.
type Page struct {
	Number int
	Data   []byte
}

// Preview renders every page of the artifact to PNG through ImageMagick.
// Pages are rendered concurrently and returned in page order.
func (r *Retrieval) Preview(ctx context.Context, artifact *Artifact) ([]Page, error) {
	if !r.previews {
		return nil, ErrPreviewsDisabled
	}

	pdfDoc, cleanup, err := openArtifact(artifact)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	renderer, err := image.NewImageMagickRenderer(config.DefaultImageConfig())
	if err != nil {
		return nil, fmt.Errorf("create renderer: %w", err)
	}

	allPages, err := pdfDoc.ExtractAllPages()
	if err != nil {
		return nil, fmt.Errorf("extract pages: %w", err)
	}

	pages := make([]Page, len(allPages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(min(runtime.NumCPU(), len(allPages)), 1))

	for i, page := range allPages {
		pages[i].Number = i + 1

		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			data, err := page.ToImage(renderer, nil)
			if err != nil {
				return fmt.Errorf("render page %d: %w", i+1, err)
			}
			pages[i].Data = data
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	r.logger.InfoContext(ctx, "previews rendered", "document_id", artifact.DocumentID, "pages", len(pages))
	return pages, nil
}

// PreviewPage renders the single page with the given 1-based number.
func (r *Retrieval) PreviewPage(ctx context.Context, artifact *Artifact, number int) (*Page, error) {
	if number < 1 || number > artifact.PageCount {
		return nil, fmt.Errorf("%w: %d", ErrPageNotFound, number)
	}
	if !r.previews {
		return nil, ErrPreviewsDisabled
	}

	pdfDoc, cleanup, err := openArtifact(artifact)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	if number > pdfDoc.PageCount() {
		return nil, fmt.Errorf("%w: %d", ErrPageNotFound, number)
	}

	page, err := pdfDoc.ExtractPage(number)
	if err != nil {
		return nil, fmt.Errorf("extract page %d: %w", number, err)
	}

	renderer, err := image.NewImageMagickRenderer(config.DefaultImageConfig())
	if err != nil {
		return nil, fmt.Errorf("create renderer: %w", err)
	}

	data, err := page.ToImage(renderer, nil)
	if err != nil {
		return nil, fmt.Errorf("render page %d: %w", number, err)
	}

	r.logger.InfoContext(ctx, "preview rendered", "document_id", artifact.DocumentID, "page", number)
	return &Page{Number: number, Data: data}, nil
}

// openArtifact writes the artifact to a temp directory and opens it. The
// returned cleanup closes the document and removes the directory.
func openArtifact(artifact *Artifact) (*document.PDFDocument, func(), error) {
	tempDir, err := os.MkdirTemp("", "noteforge-preview-*")
	if err != nil {
		return nil, nil, fmt.Errorf("create temp directory: %w", err)
	}

	name := artifact.Filename
	if name == "" {
		name = Filename(artifact.DocumentID)
	}

	pdfPath := filepath.Join(tempDir, name)
	if err := os.WriteFile(pdfPath, artifact.Data, 0600); err != nil {
		os.RemoveAll(tempDir)
		return nil, nil, fmt.Errorf("write temp pdf: %w", err)
	}

	pdfDoc, err := document.OpenPDF(pdfPath)
	if err != nil {
		os.RemoveAll(tempDir)
		return nil, nil, fmt.Errorf("open pdf: %w", err)
	}

	return pdfDoc, func() {
		pdfDoc.Close()
		os.RemoveAll(tempDir)
	}, nil
}
