package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/JaimeStill/noteforge/internal/batch"
	"github.com/JaimeStill/noteforge/internal/classify"
	"github.com/JaimeStill/noteforge/internal/render"
	"github.com/JaimeStill/noteforge/pkg/storage"
)

type session struct {
	mu sync.Mutex

	id       uuid.UUID
	builder  *batch.Builder
	transfer Transfer
	renderer Renderer
	store    storage.System
	logger   *slog.Logger

	listeners []func(string)

	stage      Stage
	activation uuid.UUID
	documentID string
	multiPage  bool
	committed  string
	draft      string
	editing    bool
	banner     string
	fetched    bool
	pending    bool
	render     renderState
}

// New creates a session in the upload stage. store may be nil, in which
// case Archive returns ErrArchiveDisabled.
func New(
	builder *batch.Builder,
	tr Transfer,
	renderer Renderer,
	store storage.System,
	logger *slog.Logger,
) System {
	s := &session{
		id:       uuid.New(),
		builder:  builder,
		transfer: tr,
		renderer: renderer,
		store:    store,
	}
	s.logger = logger.With("system", "workflow", "session", s.id)
	s.activate(StageUpload)
	return s
}

func (s *session) Handler() *Handler {
	return NewHandler(s, s.logger)
}

func (s *session) OnText(fn func(text string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *session) Upload(ctx context.Context, files []batch.File) (Snapshot, error) {
	s.mu.Lock()
	if err := s.require(StageUpload); err != nil {
		defer s.mu.Unlock()
		return s.snapshot(), err
	}

	sub, err := s.builder.Build(files)
	if err != nil {
		defer s.mu.Unlock()
		s.banner = uploadFailedPrefix + err.Error()
		s.logger.Warn("submission rejected", "error", err)
		return s.snapshot(), err
	}

	s.pending = true
	t := s.ticket()
	s.mu.Unlock()

	result, err := s.transfer.Upload(context.WithoutCancel(ctx), sub)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.current(t) {
		s.logger.Warn("discarding stale upload response")
		return s.snapshot(), ErrStale
	}
	s.pending = false

	if err != nil {
		s.banner = uploadFailedPrefix + err.Error()
		s.logger.Error("upload failed", "error", err)
		return s.snapshot(), err
	}

	s.documentID = result.FileID
	s.multiPage = sub.MultiPage()
	s.committed = ""
	s.draft = ""
	s.editing = false
	s.banner = ""
	s.fetched = false
	s.render = renderState{}
	s.activate(StageReview)

	s.logger.Info("stage transition", "stage", s.stage, "document_id", s.documentID, "multi_page", s.multiPage)
	return s.snapshot(), nil
}

// EnterReview issues the convert call at most once per review activation.
// The fetch guard is set before the call is issued, so callers reacting to
// the text notification cannot trigger a second conversion. The remote call
// outlives ctx cancellation; stale results are dropped by ticket.
func (s *session) EnterReview(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	if s.stage != StageReview {
		defer s.mu.Unlock()
		return s.snapshot(), ErrWrongStage
	}
	if s.fetched {
		defer s.mu.Unlock()
		return s.snapshot(), nil
	}

	s.fetched = true
	s.pending = true
	t := s.ticket()
	documentID, multiPage := s.documentID, s.multiPage
	s.mu.Unlock()

	result, err := s.transfer.Convert(context.WithoutCancel(ctx), documentID, multiPage)

	s.mu.Lock()
	if !s.current(t) {
		defer s.mu.Unlock()
		s.logger.Warn("discarding stale convert response", "document_id", documentID)
		return s.snapshot(), ErrStale
	}
	s.pending = false

	if err != nil {
		defer s.mu.Unlock()
		s.banner = convertFailedPrefix + err.Error()
		s.logger.Error("convert failed", "document_id", documentID, "error", err)
		return s.snapshot(), err
	}

	s.committed = result.Content
	s.draft = result.Content
	snap := s.snapshot()
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	notify(listeners, result.Content)
	return snap, nil
}

func (s *session) BeginEdit() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireText(); err != nil {
		return s.snapshot(), err
	}
	if !s.editing {
		s.editing = true
		s.draft = s.committed
	}
	return s.snapshot(), nil
}

func (s *session) UpdateDraft(text string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireEditing(); err != nil {
		return s.snapshot(), err
	}
	s.draft = text
	return s.snapshot(), nil
}

func (s *session) SaveEdit() (Snapshot, error) {
	s.mu.Lock()
	if err := s.requireEditing(); err != nil {
		defer s.mu.Unlock()
		return s.snapshot(), err
	}

	s.committed = s.draft
	s.editing = false
	snap := s.snapshot()
	listeners := slices.Clone(s.listeners)
	text := s.committed
	s.mu.Unlock()

	s.logger.Info("edit saved", "document_id", snap.DocumentID, "bytes", len(text))
	notify(listeners, text)
	return snap, nil
}

func (s *session) CancelEdit() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireEditing(); err != nil {
		return s.snapshot(), err
	}
	s.draft = s.committed
	s.editing = false
	return s.snapshot(), nil
}

func (s *session) Copy() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.documentID == "" {
		return "", ErrNoDocument
	}
	return s.displayed(), nil
}

func (s *session) GeneratePDF(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	if err := s.requireText(); err != nil {
		defer s.mu.Unlock()
		return s.snapshot(), err
	}
	if s.editing {
		defer s.mu.Unlock()
		return s.snapshot(), ErrEditing
	}

	s.banner = ""
	s.activate(StageRender)
	t := s.beginRender()
	s.mu.Unlock()

	return s.finishRender(ctx, t)
}

// Regenerate re-runs the render entry sequence without touching upload or
// review state.
func (s *session) Regenerate(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	if err := s.require(StageRender); err != nil {
		defer s.mu.Unlock()
		return s.snapshot(), err
	}

	s.banner = ""
	s.activate(StageRender)
	t := s.beginRender()
	s.mu.Unlock()

	return s.finishRender(ctx, t)
}

func (s *session) EditLatex() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stage != StageRender {
		return s.snapshot(), ErrWrongStage
	}

	s.pending = false
	s.render = renderState{}
	s.activate(StageReview)

	s.logger.Info("stage transition", "stage", s.stage, "document_id", s.documentID)
	return s.snapshot(), nil
}

// BackToUpload discards all document state. No server-side cleanup is issued.
func (s *session) BackToUpload() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.documentID = ""
	s.multiPage = false
	s.committed = ""
	s.draft = ""
	s.editing = false
	s.banner = ""
	s.fetched = false
	s.pending = false
	s.render = renderState{}
	s.activate(StageUpload)

	s.logger.Info("stage transition", "stage", s.stage)
	return s.snapshot()
}

func (s *session) Artifact() (*render.Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.artifact()
}

func (s *session) Preview(ctx context.Context, page int) (*render.Page, error) {
	artifact, err := s.Artifact()
	if err != nil {
		return nil, err
	}
	return s.renderer.PreviewPage(ctx, artifact, page)
}

// Archive stores the ready artifact at renders/{document id}/{filename}
// and returns the storage key.
func (s *session) Archive(ctx context.Context) (string, error) {
	if s.store == nil {
		return "", ErrArchiveDisabled
	}

	artifact, err := s.Artifact()
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("renders/%s/%s", artifact.DocumentID, artifact.Filename)
	obj := &storage.Object{
		Info: storage.Info{
			ContentType: "application/pdf",
			Filename:    artifact.Filename,
			Size:        artifact.Size,
		},
		Data: artifact.Data,
	}
	if err := s.store.Put(ctx, key, obj); err != nil {
		return "", fmt.Errorf("archive artifact: %w", err)
	}

	s.logger.Info("artifact archived", "key", key)
	return key, nil
}

// beginRender resolves the render address and enters the loading
// sub-state. The caller must hold s.mu.
func (s *session) beginRender() ticket {
	s.pending = true
	s.render = renderState{
		status:  RenderLoading,
		address: s.renderer.Resolve(s.documentID),
	}
	s.logger.Info("stage transition", "stage", s.stage, "document_id", s.documentID, "address", s.render.address)
	return s.ticket()
}

func (s *session) finishRender(ctx context.Context, t ticket) (Snapshot, error) {
	artifact, err := s.renderer.Retrieve(context.WithoutCancel(ctx), t.documentID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.current(t) {
		s.logger.Warn("discarding stale render probe", "document_id", t.documentID)
		return s.snapshot(), ErrStale
	}
	s.pending = false

	if err != nil {
		record := classify.FromError(err)
		s.render.status = RenderFailed
		s.render.failure = &record
		s.banner = renderFailedBanner
		s.logger.Error(
			"render failed",
			"document_id", t.documentID,
			"compile_error", record.IsCompileError,
			"error", err,
		)
		return s.snapshot(), err
	}

	s.render.status = RenderReady
	s.render.artifact = artifact
	return s.snapshot(), nil
}

func (s *session) artifact() (*render.Artifact, error) {
	if s.documentID == "" {
		return nil, ErrNoDocument
	}
	if s.stage != StageRender || s.render.status != RenderReady || s.render.artifact == nil {
		return nil, ErrNotReady
	}
	return s.render.artifact, nil
}

func (s *session) require(stage Stage) error {
	if s.stage != stage {
		return ErrWrongStage
	}
	if s.pending {
		return ErrBusy
	}
	return nil
}

func (s *session) requireText() error {
	if err := s.require(StageReview); err != nil {
		return err
	}
	if !s.fetched {
		return ErrNotConverted
	}
	return nil
}

func (s *session) requireEditing() error {
	if s.stage != StageReview {
		return ErrWrongStage
	}
	if !s.editing {
		return ErrNotEditing
	}
	return nil
}

func (s *session) activate(stage Stage) {
	s.stage = stage
	s.activation = uuid.New()
}

func (s *session) ticket() ticket {
	return ticket{
		activation: s.activation,
		documentID: s.documentID,
		stage:      s.stage,
	}
}

func (s *session) current(t ticket) bool {
	return t == s.ticket()
}

func (s *session) displayed() string {
	if s.editing {
		return s.draft
	}
	return s.committed
}

func (s *session) snapshot() Snapshot {
	return Snapshot{
		SessionID:  s.id,
		Stage:      s.stage,
		DocumentID: s.documentID,
		MultiPage:  s.multiPage,
		Loading:    s.pending,
		Error:      s.banner,
		Review: ReviewState{
			Converted: s.fetched && !(s.stage == StageReview && s.pending),
			Editing:   s.editing,
			Text:      s.displayed(),
			Committed: s.committed,
			Draft:     s.draft,
		},
		Render: s.render.snapshot(),
	}
}

func notify(listeners []func(string), text string) {
	for _, fn := range listeners {
		fn(text)
	}
}
