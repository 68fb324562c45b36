package main

import (
	"github.com/JaimeStill/noteforge/internal/api"
	"github.com/JaimeStill/noteforge/internal/config"
	"github.com/JaimeStill/noteforge/internal/infrastructure"
	"github.com/JaimeStill/noteforge/pkg/middleware"
	"github.com/JaimeStill/noteforge/pkg/module"
	"github.com/JaimeStill/noteforge/web/app"
)

const appPrefix = "/app"

type Modules struct {
	API *module.Module
	App *module.Module
}

func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	domain := api.NewDomain(api.NewRuntime(cfg, infra))

	apiModule, err := api.NewModule(cfg, domain)
	if err != nil {
		return nil, err
	}

	appModule, err := app.NewModule(appPrefix, domain.Session, app.Options{
		APIPath:       cfg.API.BasePath,
		Previews:      domain.Render.PreviewsEnabled(),
		MaxFiles:      cfg.Batch.MaxFiles,
		AllowedTypes:  cfg.Batch.AllowedTypes,
		MaxFileSize:   cfg.Batch.MaxFileSizeBytes(),
		MaxUploadSize: cfg.API.MaxUploadSizeBytes(),
	}, infra.Logger)
	if err != nil {
		return nil, err
	}
	appModule.Use(middleware.Logger(infra.Logger))

	return &Modules{
		API: apiModule,
		App: appModule,
	}, nil
}

func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API)
	router.Mount(m.App)
}

func buildRouter(infra *infrastructure.Infrastructure) *module.Router {
	router := module.NewRouter()
	router.Redirect("/{$}", appPrefix+"/")
	router.HandleHealth(infra.Lifecycle)
	return router
}
