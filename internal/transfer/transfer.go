// Package transfer issues the remote recognition and typesetting calls
// that drive a conversion: upload, convert, and render probe. Failures are
// normalized into TransferError and RenderError; nothing is retried here.
package transfer

import (
	"time"
)

// UploadResult is the recognition service's record of an uploaded submission.
type UploadResult struct {
	FileID   string `json:"file_id"`
	Filename string `json:"filename,omitempty"`
	Status   string `json:"status,omitempty"`
}

// ConvertResult carries the LaTeX source generated for a document.
type ConvertResult struct {
	ID        string     `json:"id,omitempty"`
	Filename  string     `json:"filename,omitempty"`
	Content   string     `json:"content"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// Probe is a successful response from the render address.
type Probe struct {
	Address     string
	ContentType string
	Data        []byte
}

// ErrorPayload is the remote error body: {"error": {"message": "..."}}.
type ErrorPayload struct {
	Error *ErrorBody `json:"error"`
}

// ErrorBody is the nested error object of an ErrorPayload.
type ErrorBody struct {
	Message string `json:"message"`
}

// Message returns the nested message, or "" when absent.
func (p *ErrorPayload) Message() string {
	if p == nil || p.Error == nil {
		return ""
	}
	return p.Error.Message
}
