// Package workflow implements the conversion session: a three-stage state
// machine (upload → review → render) that serializes the remote calls
// behind each stage, preserves LaTeX edits across stages, and surfaces
// remote failures as user-facing state.
package workflow

import (
	"github.com/google/uuid"

	"github.com/JaimeStill/noteforge/internal/classify"
	"github.com/JaimeStill/noteforge/internal/render"
)

// Stage is a top-level workflow phase.
type Stage string

// Workflow stages.
const (
	StageUpload Stage = "upload"
	StageReview Stage = "review"
	StageRender Stage = "render"
)

// RenderStatus is the render stage sub-state.
type RenderStatus string

// Render sub-states.
const (
	RenderIdle    RenderStatus = "idle"
	RenderLoading RenderStatus = "loading"
	RenderReady   RenderStatus = "ready"
	RenderFailed  RenderStatus = "failed"
)

// Banner messages shown for session-level failures.
const (
	uploadFailedPrefix  = "Upload failed: "
	convertFailedPrefix = "Failed to convert: "
	renderFailedBanner  = "PDF generation failed"
)

// Snapshot is an immutable view of the session.
type Snapshot struct {
	SessionID  uuid.UUID   `json:"session_id"`
	Stage      Stage       `json:"stage"`
	DocumentID string      `json:"document_id,omitempty"`
	MultiPage  bool        `json:"multi_page"`
	Loading    bool        `json:"loading"`
	Error      string      `json:"error,omitempty"`
	Review     ReviewState `json:"review"`
	Render     RenderState `json:"render"`
}

// ReviewState describes the LaTeX document and its edit buffer. Text is
// the displayed copy: the draft while editing, the committed text otherwise.
type ReviewState struct {
	Converted bool   `json:"converted"`
	Editing   bool   `json:"editing"`
	Text      string `json:"text"`
	Committed string `json:"committed"`
	Draft     string `json:"draft"`
}

// RenderState describes the render stage sub-state.
type RenderState struct {
	Status   RenderStatus     `json:"status"`
	Address  string           `json:"address,omitempty"`
	Artifact *render.Artifact `json:"artifact,omitempty"`
	Failure  *classify.Record `json:"failure,omitempty"`
	Hint     string           `json:"hint,omitempty"`
}

// CanGenerate reports whether the review stage may transition to render.
func (s Snapshot) CanGenerate() bool {
	return s.Stage == StageReview && !s.Loading && !s.Review.Editing && s.Review.Converted
}

// renderState is the mutable render sub-state held by a session.
type renderState struct {
	status   RenderStatus
	address  string
	artifact *render.Artifact
	failure  *classify.Record
}

func (r renderState) snapshot() RenderState {
	status := r.status
	if status == "" {
		status = RenderIdle
	}

	state := RenderState{
		Status:   status,
		Address:  r.address,
		Artifact: r.artifact,
	}
	if r.failure != nil {
		failure := *r.failure
		state.Failure = &failure
		state.Hint = failure.Hint()
	}
	return state
}

// ticket tags an in-flight remote call with the activation it belongs to.
type ticket struct {
	activation uuid.UUID
	documentID string
	stage      Stage
}
