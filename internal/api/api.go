// Package api assembles the API module with the session system and route registration.
package api

import (
	"net/http"

	"github.com/JaimeStill/noteforge/internal/config"
	"github.com/JaimeStill/noteforge/pkg/handlers"
	"github.com/JaimeStill/noteforge/pkg/middleware"
	"github.com/JaimeStill/noteforge/pkg/module"
)

// Info describes the running client so API consumers can adapt their
// upload form and hide unavailable actions.
type Info struct {
	Version       string   `json:"version"`
	Remote        string   `json:"remote"`
	MaxFiles      int      `json:"max_files"`
	MaxFileSize   int64    `json:"max_file_size"`
	MaxUploadSize int64    `json:"max_upload_size"`
	AllowedTypes  []string `json:"allowed_types"`
	Previews      bool     `json:"previews"`
	Archive       bool     `json:"archive"`
}

// NewModule creates the API module with all domain handlers and middleware.
func NewModule(cfg *config.Config, domain *Domain) (*module.Module, error) {
	if err := module.ValidatePrefix(cfg.API.BasePath); err != nil {
		return nil, err
	}

	info := Info{
		Version:       cfg.Version,
		Remote:        cfg.Remote.BaseURL,
		MaxFiles:      cfg.Batch.MaxFiles,
		MaxFileSize:   cfg.Batch.MaxFileSizeBytes(),
		MaxUploadSize: domain.Runtime.MaxUploadSize,
		AllowedTypes:  cfg.Batch.AllowedTypes,
		Previews:      domain.Render.PreviewsEnabled(),
		Archive:       domain.Runtime.Storage != nil,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /info", func(w http.ResponseWriter, r *http.Request) {
		handlers.RespondJSON(w, http.StatusOK, info)
	})
	registerRoutes(mux, domain)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(
		middleware.CORS(&cfg.API.CORS),
		middleware.Logger(domain.Runtime.Logger),
	)

	return m, nil
}
