package api

import (
	"net/http"

	"github.com/JaimeStill/noteforge/pkg/routes"
)

func registerRoutes(mux *http.ServeMux, domain *Domain) {
	groups := []routes.Group{
		domain.Session.Handler().WithMaxUploadSize(domain.Runtime.MaxUploadSize).Routes(),
	}

	if domain.Runtime.Storage != nil {
		archive := newArchiveHandler(domain.Runtime.Storage, domain.Runtime.Logger)
		groups = append(groups, archive.routes())
	}

	routes.Register(mux, groups...)
}
