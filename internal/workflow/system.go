package workflow

import (
	"context"

	"github.com/JaimeStill/noteforge/internal/batch"
	"github.com/JaimeStill/noteforge/internal/render"
	"github.com/JaimeStill/noteforge/internal/transfer"
)

// Transfer issues the upload and convert calls.
type Transfer interface {
	Upload(ctx context.Context, sub *batch.Submission) (*transfer.UploadResult, error)
	Convert(ctx context.Context, documentID string, multiPage bool) (*transfer.ConvertResult, error)
}

// Renderer resolves and verifies render artifacts.
type Renderer interface {
	Resolve(documentID string) string
	Retrieve(ctx context.Context, documentID string) (*render.Artifact, error)
	PreviewPage(ctx context.Context, artifact *render.Artifact, number int) (*render.Page, error)
}

// System defines the public contract of a conversion session. Every
// mutating operation returns the snapshot taken once the operation settled.
type System interface {
	Handler() *Handler

	// OnText registers fn to receive the committed LaTeX text whenever a
	// conversion completes or an edit is saved.
	OnText(fn func(text string))

	Snapshot() Snapshot

	Upload(ctx context.Context, files []batch.File) (Snapshot, error)
	EnterReview(ctx context.Context) (Snapshot, error)

	BeginEdit() (Snapshot, error)
	UpdateDraft(text string) (Snapshot, error)
	SaveEdit() (Snapshot, error)
	CancelEdit() (Snapshot, error)
	Copy() (string, error)

	GeneratePDF(ctx context.Context) (Snapshot, error)
	Regenerate(ctx context.Context) (Snapshot, error)
	EditLatex() (Snapshot, error)
	BackToUpload() Snapshot

	Artifact() (*render.Artifact, error)
	Preview(ctx context.Context, page int) (*render.Page, error)
	Archive(ctx context.Context) (string, error)
}
