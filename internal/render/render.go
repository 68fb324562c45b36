// Package render resolves a document's render address and verifies the
// artifact served there before it is declared ready.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/JaimeStill/noteforge/internal/transfer"
)

var (
	// ErrInvalidArtifact indicates the render address answered with a body that is not a PDF.
	ErrInvalidArtifact = errors.New("render artifact is not a valid PDF")
	// ErrPreviewsDisabled indicates page previews were requested but are not enabled.
	ErrPreviewsDisabled = errors.New("page previews are disabled")
	// ErrPageNotFound indicates a preview page number outside the artifact.
	ErrPageNotFound = errors.New("page not found")
)

// Prober resolves and probes render addresses.
type Prober interface {
	ResolveRenderAddress(documentID string) string
	ProbeRender(ctx context.Context, address string) (*transfer.Probe, error)
}

// Artifact is a verified render of a document.
type Artifact struct {
	DocumentID string `json:"document_id"`
	Address    string `json:"address"`
	Filename   string `json:"filename"`
	PageCount  int    `json:"page_count"`
	Size       int64  `json:"size"`
	Data       []byte `json:"-"`
}

// Retrieval resolves, probes, and verifies rendered documents.
type Retrieval struct {
	prober   Prober
	previews bool
	logger   *slog.Logger
}

// New creates a Retrieval backed by prober.
func New(prober Prober, cfg *Config, logger *slog.Logger) *Retrieval {
	return &Retrieval{
		prober:   prober,
		previews: cfg.Previews,
		logger:   logger.With("system", "render"),
	}
}

// Resolve returns the render address for documentID without any network call.
func (r *Retrieval) Resolve(documentID string) string {
	return r.prober.ResolveRenderAddress(documentID)
}

// Retrieve probes the render address for documentID and verifies the
// response is a PDF. Failures are returned as *transfer.RenderError.
func (r *Retrieval) Retrieve(ctx context.Context, documentID string) (*Artifact, error) {
	address := r.Resolve(documentID)

	probe, err := r.prober.ProbeRender(ctx, address)
	if err != nil {
		return nil, err
	}

	pageCount, err := api.PageCount(bytes.NewReader(probe.Data), nil)
	if err != nil {
		r.logger.WarnContext(ctx, "render artifact failed verification", "address", address, "error", err)
		return nil, &transfer.RenderError{
			Address: address,
			Status:  200,
			Err:     fmt.Errorf("%w: %w", ErrInvalidArtifact, err),
		}
	}

	artifact := &Artifact{
		DocumentID: documentID,
		Address:    address,
		Filename:   Filename(documentID),
		PageCount:  pageCount,
		Size:       int64(len(probe.Data)),
		Data:       probe.Data,
	}

	r.logger.InfoContext(
		ctx, "render artifact ready",
		"document_id", documentID,
		"page_count", pageCount,
		"size", artifact.Size,
	)
	return artifact, nil
}

// PreviewsEnabled reports whether page previews can be generated.
func (r *Retrieval) PreviewsEnabled() bool {
	return r.previews
}

// Filename returns the download name for a rendered document.
func Filename(documentID string) string {
	return fmt.Sprintf("mathNotes-%s.pdf", documentID)
}
