package api

import (
	"github.com/JaimeStill/noteforge/internal/batch"
	"github.com/JaimeStill/noteforge/internal/render"
	"github.com/JaimeStill/noteforge/internal/workflow"
)

// Domain holds the systems that comprise the API. The local client serves a
// single user, so one Session backs every module.
type Domain struct {
	Runtime *Runtime
	Render  *render.Retrieval
	Session workflow.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	retrieval := render.New(runtime.Transfer, runtime.Render, runtime.Logger)

	session := workflow.New(
		batch.NewBuilder(runtime.Batch),
		runtime.Transfer,
		retrieval,
		runtime.Storage,
		runtime.Logger,
	)

	return &Domain{
		Runtime: runtime,
		Render:  retrieval,
		Session: session,
	}
}
