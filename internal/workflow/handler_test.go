package workflow_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/JaimeStill/noteforge/internal/classify"
	"github.com/JaimeStill/noteforge/internal/render"
	"github.com/JaimeStill/noteforge/internal/render/rendertest"
	"github.com/JaimeStill/noteforge/internal/transfer"
	"github.com/JaimeStill/noteforge/internal/workflow"
	"github.com/JaimeStill/noteforge/pkg/routes"
)

// remote fakes the recognition and typesetting service.
type remote struct {
	uploads   atomic.Int32
	converts  atomic.Int32
	probes    atomic.Int32
	failFirst bool
	multiPage string
	fields    []string
	paths     []string
}

func (f *remote) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/upload":
		f.uploads.Add(1)
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.multiPage = r.FormValue("is_multi_page")
		for i := range 5 {
			if _, ok := r.MultipartForm.File[fmt.Sprintf("file_%d", i)]; ok {
				f.fields = append(f.fields, fmt.Sprintf("file_%d", i))
			}
		}
		fmt.Fprint(w, `{"file_id":"abc123"}`)

	case r.Method == http.MethodGet && r.URL.Path == "/convert/abc123":
		f.converts.Add(1)
		if r.URL.Query().Get("is_multi_page") != "true" {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error":{"message":"expected multi page"}}`)
			return
		}
		fmt.Fprint(w, `{"id":"abc123","content":"\\begin{theorem}x\\end{theorem}"}`)

	case r.Method == http.MethodGet && r.URL.Path == "/pdf/abc123":
		n := f.probes.Add(1)
		f.paths = append(f.paths, r.URL.Path)
		if f.failFirst && n == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"error":{"message":"! LaTeX Error: Environment theorem undefined."}}`)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Write(rendertest.PDF(1))

	default:
		http.NotFound(w, r)
	}
}

func newServer(t *testing.T, rem *remote) *httptest.Server {
	t.Helper()

	upstream := httptest.NewServer(rem)
	t.Cleanup(upstream.Close)

	cfg := &transfer.Config{BaseURL: upstream.URL}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	client := transfer.NewWithHTTPClient(cfg, upstream.Client(), discardLogger())
	retrieval := render.New(client, &render.Config{}, discardLogger())

	sys := workflow.New(newBuilder(t), client, retrieval, nil, discardLogger())

	mux := http.NewServeMux()
	routes.Register(mux, sys.Handler().Routes())

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func uploadBody(t *testing.T, n int) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for i := range n {
		part, err := w.CreateFormFile(fmt.Sprintf("file_%d", i), fmt.Sprintf("page-%d.png", i+1))
		if err != nil {
			t.Fatalf("CreateFormFile() error = %v", err)
		}
		part.Write(pngHeader)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return &buf, w.FormDataContentType()
}

func call(t *testing.T, method, url string, body io.Reader, contentType string) (*http.Response, []byte) {
	t.Helper()

	req, err := http.NewRequestWithContext(context.Background(), method, url, body)
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s error = %v", method, url, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body error = %v", err)
	}
	return resp, data
}

func decodeSnapshot(t *testing.T, data []byte) workflow.Snapshot {
	t.Helper()
	var snap workflow.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("decode snapshot: %v (%s)", err, data)
	}
	return snap
}

func TestScenarioCompileErrorThenRegenerate(t *testing.T) {
	rem := &remote{failFirst: true}
	srv := newServer(t, rem)
	base := srv.URL + "/session"

	body, ct := uploadBody(t, 3)
	resp, data := call(t, http.MethodPost, base+"/upload", body, ct)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload status = %d, body = %s", resp.StatusCode, data)
	}
	snap := decodeSnapshot(t, data)
	if snap.Stage != workflow.StageReview || snap.DocumentID != "abc123" || !snap.MultiPage {
		t.Fatalf("after upload: %+v", snap)
	}
	if rem.multiPage != "true" {
		t.Errorf("is_multi_page = %q, want true", rem.multiPage)
	}
	if strings.Join(rem.fields, ",") != "file_0,file_1,file_2" {
		t.Errorf("fields = %v", rem.fields)
	}

	for range 2 {
		resp, data = call(t, http.MethodPost, base+"/review", nil, "")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("review status = %d, body = %s", resp.StatusCode, data)
		}
	}
	snap = decodeSnapshot(t, data)
	if snap.Review.Text != `\begin{theorem}x\end{theorem}` {
		t.Errorf("text = %q", snap.Review.Text)
	}
	if got := rem.converts.Load(); got != 1 {
		t.Errorf("converts = %d, want 1", got)
	}

	resp, data = call(t, http.MethodPost, base+"/render", nil, "")
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("render status = %d, want 502", resp.StatusCode)
	}
	var failed workflow.ErrorResponse
	if err := json.Unmarshal(data, &failed); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if failed.Session.Render.Status != workflow.RenderFailed {
		t.Errorf("render status = %s, want failed", failed.Session.Render.Status)
	}
	if failed.Session.Render.Failure == nil || !failed.Session.Render.Failure.IsCompileError {
		t.Errorf("failure = %+v, want compile error", failed.Session.Render.Failure)
	}
	if failed.Session.Render.Hint != classify.CompileHint {
		t.Errorf("hint = %q", failed.Session.Render.Hint)
	}

	resp, data = call(t, http.MethodPost, base+"/regenerate", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("regenerate status = %d, body = %s", resp.StatusCode, data)
	}
	snap = decodeSnapshot(t, data)
	if snap.Render.Status != workflow.RenderReady {
		t.Errorf("render status = %s, want ready", snap.Render.Status)
	}
	if snap.Render.Artifact == nil || snap.Render.Artifact.PageCount != 1 {
		t.Errorf("artifact = %+v", snap.Render.Artifact)
	}
	if len(rem.paths) != 2 || rem.paths[0] != rem.paths[1] {
		t.Errorf("probe paths = %v, want the same address twice", rem.paths)
	}
	if rem.uploads.Load() != 1 || rem.converts.Load() != 1 {
		t.Errorf("uploads = %d converts = %d", rem.uploads.Load(), rem.converts.Load())
	}

	resp, data = call(t, http.MethodGet, base+"/pdf", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("pdf status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Disposition"); got != `attachment; filename="mathNotes-abc123.pdf"` {
		t.Errorf("Content-Disposition = %s", got)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Error("body is not a PDF")
	}
}

func TestHandlerEditFlow(t *testing.T) {
	srv := newServer(t, &remote{})
	base := srv.URL + "/session"

	body, ct := uploadBody(t, 2)
	call(t, http.MethodPost, base+"/upload", body, ct)
	call(t, http.MethodPost, base+"/review", nil, "")

	resp, _ := call(t, http.MethodPut, base+"/draft", strings.NewReader(`{"text":"x"}`), "application/json")
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("draft before edit status = %d, want 409", resp.StatusCode)
	}

	call(t, http.MethodPost, base+"/edit", nil, "")
	call(t, http.MethodPut, base+"/draft", strings.NewReader(`{"text":"edited"}`), "application/json")

	resp, _ = call(t, http.MethodPost, base+"/render", nil, "")
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("render while editing status = %d, want 409", resp.StatusCode)
	}

	resp, data := call(t, http.MethodGet, base+"/copy", nil, "")
	if resp.StatusCode != http.StatusOK || string(data) != "edited" {
		t.Errorf("copy = %d %q, want draft", resp.StatusCode, data)
	}

	resp, data = call(t, http.MethodPost, base+"/save", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("save status = %d", resp.StatusCode)
	}
	if snap := decodeSnapshot(t, data); snap.Review.Committed != "edited" {
		t.Errorf("committed = %q", snap.Review.Committed)
	}

	resp, data = call(t, http.MethodPost, base+"/reset", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reset status = %d", resp.StatusCode)
	}
	if snap := decodeSnapshot(t, data); snap.Stage != workflow.StageUpload || snap.Review.Committed != "" {
		t.Errorf("after reset: %+v", snap)
	}
}

func TestHandlerErrors(t *testing.T) {
	srv := newServer(t, &remote{})
	base := srv.URL + "/session"

	tests := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{name: "review before upload", method: http.MethodPost, path: "/review", want: http.StatusConflict},
		{name: "render before upload", method: http.MethodPost, path: "/render", want: http.StatusConflict},
		{name: "pdf before render", method: http.MethodGet, path: "/pdf", want: http.StatusNotFound},
		{name: "copy without document", method: http.MethodGet, path: "/copy", want: http.StatusNotFound},
		{name: "invalid page", method: http.MethodGet, path: "/pages/one", want: http.StatusBadRequest},
		{name: "archive disabled", method: http.MethodPost, path: "/archive", want: http.StatusNotImplemented},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, data := call(t, tt.method, base+tt.path, nil, "")
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d (%s)", resp.StatusCode, tt.want, data)
			}
		})
	}
}

func TestHandlerUploadTooManyFiles(t *testing.T) {
	rem := &remote{}
	srv := newServer(t, rem)

	body, ct := uploadBody(t, 6)
	resp, data := call(t, http.MethodPost, srv.URL+"/session/upload", body, ct)

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 (%s)", resp.StatusCode, data)
	}
	if rem.uploads.Load() != 0 {
		t.Errorf("remote uploads = %d, want 0", rem.uploads.Load())
	}
}
