package workflow

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/JaimeStill/noteforge/internal/batch"
	"github.com/JaimeStill/noteforge/pkg/handlers"
	"github.com/JaimeStill/noteforge/pkg/routes"
)

const (
	multipartMemory = 32 << 20
	maxDraftSize    = 4 << 20
)

// Handler provides HTTP endpoints for session operations.
type Handler struct {
	sys           System
	logger        *slog.Logger
	maxUploadSize int64
}

// DraftRequest carries the edited LaTeX text.
type DraftRequest struct {
	Text string `json:"text"`
}

// ArchiveResponse reports where an artifact was archived.
type ArchiveResponse struct {
	Key string `json:"key"`
}

// NewHandler creates a Handler for the given session.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:           sys,
		logger:        logger.With("handler", "session"),
		maxUploadSize: 50 << 20,
	}
}

// WithMaxUploadSize sets the multipart parsing limit for uploads.
func (h *Handler) WithMaxUploadSize(size int64) *Handler {
	if size > 0 {
		h.maxUploadSize = size
	}
	return h
}

// Routes returns the route group definition for session endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/session",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.Get},
			{Method: "POST", Pattern: "/upload", Handler: h.Upload, MaxBytes: h.maxUploadSize},
			{Method: "POST", Pattern: "/review", Handler: h.Review},
			{Method: "POST", Pattern: "/edit", Handler: h.Edit},
			{Method: "PUT", Pattern: "/draft", Handler: h.Draft, MaxBytes: maxDraftSize},
			{Method: "POST", Pattern: "/save", Handler: h.Save},
			{Method: "POST", Pattern: "/cancel", Handler: h.Cancel},
			{Method: "GET", Pattern: "/copy", Handler: h.Copy},
			{Method: "POST", Pattern: "/render", Handler: h.Render},
			{Method: "POST", Pattern: "/regenerate", Handler: h.Regenerate},
			{Method: "POST", Pattern: "/latex", Handler: h.Latex},
			{Method: "POST", Pattern: "/reset", Handler: h.Reset},
			{Method: "GET", Pattern: "/pdf", Handler: h.PDF},
			{Method: "GET", Pattern: "/pages/{page}", Handler: h.Page},
			{Method: "POST", Pattern: "/archive", Handler: h.Archive},
		},
	}
}

// Get returns the current session snapshot.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, h.sys.Snapshot())
}

// Upload accepts a multipart form of page images and submits them.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, batch.ErrFileTooLarge)
			return
		}
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("invalid upload: %w", err))
		return
	}

	files, err := batch.FromMultipart(r.MultipartForm)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	h.respond(w, r)(h.sys.Upload(r.Context(), files))
}

// Review enters the review stage, converting the document on first entry.
func (h *Handler) Review(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r)(h.sys.EnterReview(r.Context()))
}

// Edit opens the draft buffer.
func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r)(h.sys.BeginEdit())
}

// Draft replaces the draft buffer with the request text.
func (h *Handler) Draft(w http.ResponseWriter, r *http.Request) {
	var req DraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("invalid draft: %w", err))
		return
	}
	h.respond(w, r)(h.sys.UpdateDraft(req.Text))
}

// Save commits the draft buffer.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r)(h.sys.SaveEdit())
}

// Cancel discards the draft buffer.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r)(h.sys.CancelEdit())
}

// Copy returns the displayed LaTeX as plain text.
func (h *Handler) Copy(w http.ResponseWriter, r *http.Request) {
	text, err := h.sys.Copy()
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondText(w, http.StatusOK, text)
}

// Render moves the session to the render stage and probes the artifact.
func (h *Handler) Render(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r)(h.sys.GeneratePDF(r.Context()))
}

// Regenerate re-probes the render artifact.
func (h *Handler) Regenerate(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r)(h.sys.Regenerate(r.Context()))
}

// Latex returns from the render stage to the review stage.
func (h *Handler) Latex(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r)(h.sys.EditLatex())
}

// Reset discards the document and returns to the upload stage.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, h.sys.BackToUpload())
}

// PDF streams the verified artifact as an attachment.
func (h *Handler) PDF(w http.ResponseWriter, r *http.Request) {
	artifact, err := h.sys.Artifact()
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Length", strconv.FormatInt(artifact.Size, 10))
	disposition := "attachment"
	if r.URL.Query().Get("inline") == "true" {
		disposition = "inline"
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, artifact.Filename))
	w.WriteHeader(http.StatusOK)
	w.Write(artifact.Data)
}

// Page returns a PNG preview of one artifact page.
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.Atoi(r.PathValue("page"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("invalid page: %q", r.PathValue("page")))
		return
	}

	page, err := h.sys.Preview(r.Context(), number)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(page.Data)
}

// Archive stores the verified artifact in blob storage.
func (h *Handler) Archive(w http.ResponseWriter, r *http.Request) {
	key, err := h.sys.Archive(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusCreated, ArchiveResponse{Key: key})
}

// respond writes the snapshot, or the error with the snapshot attached so
// clients can render the resulting state.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request) func(Snapshot, error) {
	return func(snap Snapshot, err error) {
		if err == nil {
			handlers.RespondJSON(w, http.StatusOK, snap)
			return
		}

		status := MapHTTPStatus(err)
		if errors.Is(err, ErrStale) {
			h.logger.InfoContext(r.Context(), "stale response", "uri", r.URL.RequestURI())
		} else {
			h.logger.ErrorContext(r.Context(), "session operation failed", "error", err, "status", status)
		}

		handlers.RespondJSON(w, status, ErrorResponse{Error: err.Error(), Session: snap})
	}
}

// ErrorResponse is the body of a failed session operation.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Session Snapshot `json:"session"`
}
