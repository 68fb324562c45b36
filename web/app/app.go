// Package app serves the browser client: one server-rendered page per
// workflow stage, with forms that drive the session and redirect back.
package app

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JaimeStill/noteforge/internal/batch"
	"github.com/JaimeStill/noteforge/internal/workflow"
	"github.com/JaimeStill/noteforge/pkg/formatting"
	"github.com/JaimeStill/noteforge/pkg/module"
	"github.com/JaimeStill/noteforge/pkg/web"
)

//go:embed layouts/*.html views/*.html static/*
var assets embed.FS

const (
	layout             = "app"
	multipartMemory    = 32 << 20
	uploadFailedPrefix = "Upload failed: "
)

var errInvalidUpload = errors.New("invalid upload")

var (
	uploadView   = web.ViewDef{Route: "/upload", Template: "upload.html", Title: "Upload"}
	reviewView   = web.ViewDef{Route: "/review", Template: "review.html", Title: "Review LaTeX"}
	renderView   = web.ViewDef{Route: "/render", Template: "render.html", Title: "PDF"}
	notFoundView = web.ViewDef{Route: "/404", Template: "not-found.html", Title: "Not Found"}
)

// Options configures what the pages display.
type Options struct {
	APIPath       string
	Previews      bool
	MaxFiles      int
	AllowedTypes  []string
	MaxFileSize   int64
	MaxUploadSize int64
}

// PageData is passed to every stage view.
type PageData struct {
	Session     workflow.Snapshot
	APIPath     string
	Previews    bool
	MaxFiles    int
	Accept      string
	MaxFileSize string
}

type app struct {
	sys       workflow.System
	templates *web.TemplateSet
	opts      Options
	logger    *slog.Logger
}

// NewModule creates the app module mounted at basePath.
func NewModule(basePath string, sys workflow.System, opts Options, logger *slog.Logger) (*module.Module, error) {
	funcs := template.FuncMap{
		"pages": func(n int) []int {
			pages := make([]int, n)
			for i := range n {
				pages[i] = i + 1
			}
			return pages
		},
		"bytes": func(n int64) string {
			return formatting.FormatBytes(n, 1)
		},
	}

	ts, err := web.NewTemplateSet(
		assets, "layouts/*.html", "views", basePath, funcs,
		[]web.ViewDef{uploadView, reviewView, renderView, notFoundView},
	)
	if err != nil {
		return nil, fmt.Errorf("parse app templates: %w", err)
	}

	a := &app{
		sys:       sys,
		templates: ts,
		opts:      opts,
		logger:    logger.With("module", "app"),
	}

	return module.New(basePath, a.router()), nil
}

func (a *app) router() http.Handler {
	r := web.NewRouter()

	r.HandleFunc("GET /{$}", a.current)
	r.HandleFunc("GET /static/", web.DistServer(assets, "static", "/static/"))
	r.HandleFunc("GET /favicon.svg", web.PublicFile(assets, "static", "favicon.svg"))

	r.HandleFunc("GET "+uploadView.Route, a.page(workflow.StageUpload, uploadView))
	r.HandleFunc("POST /upload", a.upload)

	r.HandleFunc("GET "+reviewView.Route, a.review)
	r.HandleFunc("POST /review/edit", a.action(func(*http.Request) error {
		_, err := a.sys.BeginEdit()
		return err
	}))
	r.HandleFunc("POST /review/save", a.save)
	r.HandleFunc("POST /review/cancel", a.action(func(*http.Request) error {
		_, err := a.sys.CancelEdit()
		return err
	}))
	r.HandleFunc("POST /review/render", a.action(func(r *http.Request) error {
		_, err := a.sys.GeneratePDF(r.Context())
		return err
	}))

	r.HandleFunc("GET "+renderView.Route, a.page(workflow.StageRender, renderView))
	r.HandleFunc("POST /render/regenerate", a.action(func(r *http.Request) error {
		_, err := a.sys.Regenerate(r.Context())
		return err
	}))
	r.HandleFunc("POST /render/latex", a.action(func(*http.Request) error {
		_, err := a.sys.EditLatex()
		return err
	}))
	r.HandleFunc("POST /reset", a.action(func(*http.Request) error {
		a.sys.BackToUpload()
		return nil
	}))

	r.SetFallback(a.templates.ErrorHandler(layout, notFoundView, http.StatusNotFound))
	return r
}

// current redirects to the page of the session's stage.
func (a *app) current(w http.ResponseWriter, r *http.Request) {
	a.redirect(w, r, a.sys.Snapshot().Stage)
}

// page renders view when the session is in stage, otherwise redirects to
// the page of the current stage.
func (a *app) page(stage workflow.Stage, view web.ViewDef) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := a.sys.Snapshot()
		if snap.Stage != stage {
			a.redirect(w, r, snap.Stage)
			return
		}
		a.templates.Page(w, layout, view, a.data(snap))
	}
}

// review converts the document on first entry. Reloads reuse the text.
func (a *app) review(w http.ResponseWriter, r *http.Request) {
	snap, err := a.sys.EnterReview(r.Context())
	if err != nil {
		a.logger.Warn("enter review", "error", err)
	}
	if snap.Stage != workflow.StageReview {
		a.redirect(w, r, snap.Stage)
		return
	}
	a.templates.Page(w, layout, reviewView, a.data(snap))
}

func (a *app) upload(w http.ResponseWriter, r *http.Request) {
	if a.opts.MaxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, a.opts.MaxUploadSize)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		a.logger.Warn("parse upload form", "error", err)
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			a.rejectUpload(w, r, http.StatusRequestEntityTooLarge, fmt.Errorf("%w: limit is %s", batch.ErrFileTooLarge, formatting.FormatBytes(maxErr.Limit, 0)))
			return
		}
		a.rejectUpload(w, r, http.StatusBadRequest, errInvalidUpload)
		return
	}

	files, err := batch.FromMultipart(r.MultipartForm)
	if err != nil {
		a.logger.Warn("read upload form", "error", err)
	}

	if _, err := a.sys.Upload(r.Context(), files); err != nil {
		a.logger.Warn("upload", "error", err)
	}
	a.redirect(w, r, a.sys.Snapshot().Stage)
}

// save commits the submitted textarea, opening the draft first if needed.
func (a *app) save(w http.ResponseWriter, r *http.Request) {
	text := strings.ReplaceAll(r.FormValue("text"), "\r\n", "\n")

	err := func() error {
		if _, err := a.sys.BeginEdit(); err != nil {
			return err
		}
		if _, err := a.sys.UpdateDraft(text); err != nil {
			return err
		}
		_, err := a.sys.SaveEdit()
		return err
	}()
	if err != nil {
		a.logger.Warn("save edit", "error", err)
	}
	a.redirect(w, r, a.sys.Snapshot().Stage)
}

// action runs fn and redirects to the resulting stage. Failures surface
// through the session banner and render state.
func (a *app) action(fn func(r *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(r); err != nil {
			a.logger.Warn("session action", "path", r.URL.Path, "error", err)
		}
		a.redirect(w, r, a.sys.Snapshot().Stage)
	}
}

// rejectUpload re-renders the upload page with status and a banner for a
// body the session never saw.
func (a *app) rejectUpload(w http.ResponseWriter, r *http.Request, status int, err error) {
	snap := a.sys.Snapshot()
	if snap.Stage != workflow.StageUpload {
		a.redirect(w, r, snap.Stage)
		return
	}
	snap.Error = uploadFailedPrefix + err.Error()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := a.templates.Render(w, layout, uploadView, a.data(snap)); err != nil {
		a.logger.Error("render upload page", "error", err)
	}
}

func (a *app) redirect(w http.ResponseWriter, r *http.Request, stage workflow.Stage) {
	http.Redirect(w, r, a.templates.BasePath()+"/"+string(stage), http.StatusSeeOther)
}

func (a *app) data(snap workflow.Snapshot) PageData {
	return PageData{
		Session:     snap,
		APIPath:     a.opts.APIPath,
		Previews:    a.opts.Previews,
		MaxFiles:    a.opts.MaxFiles,
		Accept:      strings.Join(a.opts.AllowedTypes, ","),
		MaxFileSize: formatting.FormatBytes(a.opts.MaxFileSize, 0),
	}
}
