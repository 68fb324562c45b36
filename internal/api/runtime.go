package api

import (
	"github.com/JaimeStill/noteforge/internal/batch"
	"github.com/JaimeStill/noteforge/internal/config"
	"github.com/JaimeStill/noteforge/internal/infrastructure"
	"github.com/JaimeStill/noteforge/internal/render"
)

// Runtime extends Infrastructure with session-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Batch         *batch.Config
	Render        *render.Config
	MaxUploadSize int64
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    infra.Logger.With("module", "api"),
			Transfer:  infra.Transfer,
			Storage:   infra.Storage,
		},
		Batch:         &cfg.Batch,
		Render:        &cfg.Render,
		MaxUploadSize: cfg.API.MaxUploadSizeBytes(),
	}
}
