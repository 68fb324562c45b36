package transfer

import (
	"errors"
	"fmt"
)

// Sentinel errors identifying the failed operation.
var (
	ErrUploadFailed     = errors.New("upload failed")
	ErrConversionFailed = errors.New("conversion failed")
	ErrRenderFailed     = errors.New("failed to generate PDF")
)

// Operation names carried by TransferError.
const (
	OpUpload  = "upload"
	OpConvert = "convert"
)

// TransferError is a failed upload or convert call. Message is the remote
// error message when the body could be parsed, otherwise a generic
// fallback. Err holds the transport cause, if any.
type TransferError struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *TransferError) Error() string {
	return e.Message
}

// Unwrap exposes the operation sentinel and the transport cause.
func (e *TransferError) Unwrap() []error {
	errs := []error{opSentinel(e.Op)}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// RenderError is a failed render probe. Payload is nil when the body was
// absent or could not be parsed.
type RenderError struct {
	Address string
	Status  int
	Payload *ErrorPayload
	Err     error
}

func (e *RenderError) Error() string {
	if msg := e.Payload.Message(); msg != "" {
		return fmt.Sprintf("%v: %s", ErrRenderFailed, msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("%v: %v", ErrRenderFailed, e.Err)
	}
	if e.Status != 0 {
		return fmt.Sprintf("%v: status %d", ErrRenderFailed, e.Status)
	}
	return ErrRenderFailed.Error()
}

// Unwrap exposes ErrRenderFailed and the underlying cause.
func (e *RenderError) Unwrap() []error {
	errs := []error{ErrRenderFailed}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func opSentinel(op string) error {
	if op == OpConvert {
		return ErrConversionFailed
	}
	return ErrUploadFailed
}

func fallbackMessage(op string) string {
	if op == OpConvert {
		return "Conversion failed"
	}
	return "Upload failed"
}
