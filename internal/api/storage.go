package api

import (
	"log/slog"
	"mime"
	"net/http"
	"path"
	"strconv"

	"github.com/JaimeStill/noteforge/pkg/handlers"
	"github.com/JaimeStill/noteforge/pkg/routes"
	"github.com/JaimeStill/noteforge/pkg/storage"
)

// archiveHandler serves artifacts previously archived by the session.
type archiveHandler struct {
	store  storage.System
	logger *slog.Logger
}

func newArchiveHandler(store storage.System, logger *slog.Logger) *archiveHandler {
	return &archiveHandler{
		store:  store,
		logger: logger.With("handler", "archive"),
	}
}

func (h *archiveHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/archive",
		Routes: []routes.Route{
			{Method: "HEAD", Pattern: "/{key...}", Handler: h.stat},
			{Method: "GET", Pattern: "/{key...}", Handler: h.download},
			{Method: "DELETE", Pattern: "/{key...}", Handler: h.delete},
		},
	}
}

func (h *archiveHandler) stat(w http.ResponseWriter, r *http.Request) {
	info, err := h.store.Stat(r.Context(), r.PathValue("key"))
	if err != nil {
		w.WriteHeader(storage.MapHTTPStatus(err))
		return
	}
	writeInfo(w, info)
	w.WriteHeader(http.StatusOK)
}

func (h *archiveHandler) download(w http.ResponseWriter, r *http.Request) {
	obj, err := h.store.Get(r.Context(), r.PathValue("key"))
	if err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}

	writeInfo(w, &obj.Info)
	w.Header().Set("Content-Length", strconv.Itoa(len(obj.Data)))
	w.WriteHeader(http.StatusOK)
	w.Write(obj.Data)
}

func (h *archiveHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.Context(), r.PathValue("key")); err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeInfo(w http.ResponseWriter, info *storage.Info) {
	contentType := info.ContentType
	if contentType == "" {
		contentType = "application/pdf"
	}
	filename := info.Filename
	if filename == "" {
		filename = path.Base(info.Key)
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	if info.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	}
	if !info.LastModified.IsZero() {
		w.Header().Set("Last-Modified", info.LastModified.UTC().Format(http.TimeFormat))
	}
}
