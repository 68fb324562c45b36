// Package classify maps render failures to user-facing error records,
// separating LaTeX compile failures from transport and service failures.
package classify

import (
	"errors"
	"strings"

	"github.com/JaimeStill/noteforge/internal/transfer"
)

// Fixed user-facing messages.
const (
	GenericMessage = "Failed to generate PDF"
	CompileMessage = "There was an error in the LaTeX code. This might be due to complex mathematical notation or an environment that needs additional packages."
	CompileHint    = "This typically happens with complex environments like theorems. Try editing the LaTeX to fix the issue or regenerate."
)

// compileMarkers are matched case-sensitively against the remote message.
var compileMarkers = []string{
	"LaTeX Error",
	"Undefined control sequence",
	"Emergency stop",
}

// Record describes a render failure for display. Detail carries the raw
// remote message for failures that are not compile errors.
type Record struct {
	UserMessage    string `json:"user_message"`
	Detail         string `json:"detail,omitempty"`
	IsCompileError bool   `json:"is_compile_error"`
}

// Hint returns guidance for fixing the document. It is empty unless the
// failure is a compile error.
func (r Record) Hint() string {
	if r.IsCompileError {
		return CompileHint
	}
	return ""
}

// Classify builds a Record from a render error payload. A nil payload or
// an empty message yields the generic record.
func Classify(payload *transfer.ErrorPayload) Record {
	msg := payload.Message()
	if msg == "" {
		return Record{UserMessage: GenericMessage}
	}

	if IsCompileMessage(msg) {
		return Record{
			UserMessage:    CompileMessage,
			IsCompileError: true,
		}
	}

	return Record{
		UserMessage: GenericMessage,
		Detail:      msg,
	}
}

// FromError classifies an error returned by the render path.
func FromError(err error) Record {
	var rerr *transfer.RenderError
	if errors.As(err, &rerr) {
		return Classify(rerr.Payload)
	}
	return Record{UserMessage: GenericMessage}
}

// IsCompileMessage reports whether msg contains a typesetting engine failure marker.
func IsCompileMessage(msg string) bool {
	for _, marker := range compileMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
