package classify_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/JaimeStill/noteforge/internal/classify"
	"github.com/JaimeStill/noteforge/internal/transfer"
)

func payload(msg string) *transfer.ErrorPayload {
	return &transfer.ErrorPayload{Error: &transfer.ErrorBody{Message: msg}}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		payload *transfer.ErrorPayload
		want    classify.Record
	}{
		{
			name:    "undefined control sequence",
			payload: payload("! Undefined control sequence"),
			want: classify.Record{
				UserMessage:    classify.CompileMessage,
				IsCompileError: true,
			},
		},
		{
			name:    "latex error",
			payload: payload("! LaTeX Error: Environment theorem undefined"),
			want: classify.Record{
				UserMessage:    classify.CompileMessage,
				IsCompileError: true,
			},
		},
		{
			name:    "emergency stop",
			payload: payload("PDF generation failed: Emergency stop."),
			want: classify.Record{
				UserMessage:    classify.CompileMessage,
				IsCompileError: true,
			},
		},
		{
			name:    "markers are case sensitive",
			payload: payload("latex error in line 4"),
			want: classify.Record{
				UserMessage: classify.GenericMessage,
				Detail:      "latex error in line 4",
			},
		},
		{
			name:    "generic message passes through",
			payload: payload("network unreachable"),
			want: classify.Record{
				UserMessage: classify.GenericMessage,
				Detail:      "network unreachable",
			},
		},
		{
			name:    "empty error object",
			payload: &transfer.ErrorPayload{Error: &transfer.ErrorBody{}},
			want:    classify.Record{UserMessage: classify.GenericMessage},
		},
		{
			name:    "no error object",
			payload: &transfer.ErrorPayload{},
			want:    classify.Record{UserMessage: classify.GenericMessage},
		},
		{
			name:    "nil payload",
			payload: nil,
			want:    classify.Record{UserMessage: classify.GenericMessage},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify.Classify(tt.payload)
			if got != tt.want {
				t.Errorf("Classify() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestHintFollowsCompileFlag(t *testing.T) {
	compile := classify.Classify(payload("! LaTeX Error: Environment theorem undefined"))
	if compile.Hint() != classify.CompileHint {
		t.Errorf("compile hint = %q", compile.Hint())
	}

	// mentions LaTeX but is not a compile failure
	generic := classify.Classify(payload("LaTeX service unavailable"))
	if generic.Hint() != "" {
		t.Errorf("generic hint = %q, want empty", generic.Hint())
	}
}

func TestFromError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCompile bool
		wantDetail  string
	}{
		{
			name:        "render error with compile payload",
			err:         &transfer.RenderError{Status: 500, Payload: payload("! Emergency stop")},
			wantCompile: true,
		},
		{
			name:       "wrapped render error",
			err:        fmt.Errorf("render: %w", &transfer.RenderError{Status: 500, Payload: payload("disk full")}),
			wantDetail: "disk full",
		},
		{
			name: "render error without payload",
			err:  &transfer.RenderError{Status: 502},
		},
		{
			name: "unrelated error",
			err:  errors.New("boom"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := classify.FromError(tt.err)
			if rec.IsCompileError != tt.wantCompile {
				t.Errorf("IsCompileError = %v, want %v", rec.IsCompileError, tt.wantCompile)
			}
			if rec.Detail != tt.wantDetail {
				t.Errorf("Detail = %q, want %q", rec.Detail, tt.wantDetail)
			}
		})
	}
}
