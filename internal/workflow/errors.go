package workflow

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/noteforge/internal/batch"
	"github.com/JaimeStill/noteforge/internal/render"
	"github.com/JaimeStill/noteforge/internal/transfer"
)

// Session errors.
var (
	ErrWrongStage      = errors.New("operation not available in the current stage")
	ErrBusy            = errors.New("a remote call is in progress")
	ErrEditing         = errors.New("finish editing before continuing")
	ErrNotEditing      = errors.New("not editing")
	ErrNotConverted    = errors.New("document has not been converted")
	ErrNoDocument      = errors.New("no document")
	ErrNotReady        = errors.New("render is not ready")
	ErrStale           = errors.New("response discarded: session has moved on")
	ErrArchiveDisabled = errors.New("archive storage is not configured")
)

// MapHTTPStatus maps session and collaborator errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrWrongStage),
		errors.Is(err, ErrBusy),
		errors.Is(err, ErrEditing),
		errors.Is(err, ErrNotEditing),
		errors.Is(err, ErrNotConverted),
		errors.Is(err, ErrStale):
		return http.StatusConflict
	case errors.Is(err, ErrNoDocument),
		errors.Is(err, ErrNotReady),
		errors.Is(err, render.ErrPreviewsDisabled),
		errors.Is(err, render.ErrPageNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrArchiveDisabled):
		return http.StatusNotImplemented
	}

	var ve *batch.ValidationError
	if errors.As(err, &ve) {
		return batch.MapHTTPStatus(err)
	}

	var terr *transfer.TransferError
	var rerr *transfer.RenderError
	if errors.As(err, &terr) || errors.As(err, &rerr) {
		return http.StatusBadGateway
	}

	return http.StatusInternalServerError
}
