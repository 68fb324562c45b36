package batch_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/JaimeStill/noteforge/internal/batch"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func newBuilder(t *testing.T) *batch.Builder {
	t.Helper()
	cfg := &batch.Config{}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	return batch.NewBuilder(cfg)
}

func pages(n int) []batch.File {
	files := make([]batch.File, n)
	for i := range n {
		files[i] = batch.File{
			Name:        fmt.Sprintf("page-%d.png", i+1),
			ContentType: "image/png",
			Data:        append(bytes.Clone(pngHeader), byte(i)),
		}
	}
	return files
}

func TestBuildPreservesOrder(t *testing.T) {
	b := newBuilder(t)

	for n := 1; n <= batch.MaxFiles; n++ {
		t.Run(fmt.Sprintf("%d files", n), func(t *testing.T) {
			files := pages(n)

			sub, err := b.Build(files)
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}

			got := sub.Files()
			if len(got) != n {
				t.Fatalf("len = %d, want %d", len(got), n)
			}
			for i := range got {
				if got[i].Name != files[i].Name {
					t.Errorf("page %d: got %s, want %s", i, got[i].Name, files[i].Name)
				}
			}

			if sub.MultiPage() != (n > 1) {
				t.Errorf("MultiPage() = %v, want %v", sub.MultiPage(), n > 1)
			}
		})
	}
}

func TestBuildRejectsCount(t *testing.T) {
	b := newBuilder(t)

	tests := []struct {
		name string
		n    int
		want error
	}{
		{name: "no files", n: 0, want: batch.ErrNoFiles},
		{name: "six files", n: 6, want: batch.ErrTooManyFiles},
		{name: "ten files", n: 10, want: batch.ErrTooManyFiles},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub, err := b.Build(pages(tt.n))
			if sub != nil {
				t.Error("expected nil submission")
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}

			var ve *batch.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("error %T is not *ValidationError", err)
			}
		})
	}
}

func TestBuildRejectsFiles(t *testing.T) {
	cfg := &batch.Config{MaxFileSize: "16B"}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	b := batch.NewBuilder(cfg)

	tests := []struct {
		name string
		file batch.File
		want error
	}{
		{
			name: "empty",
			file: batch.File{Name: "empty.png", ContentType: "image/png"},
			want: batch.ErrEmptyFile,
		},
		{
			name: "too large",
			file: batch.File{Name: "big.png", ContentType: "image/png", Data: bytes.Repeat([]byte{1}, 32)},
			want: batch.ErrFileTooLarge,
		},
		{
			name: "unsupported type",
			file: batch.File{Name: "notes.txt", ContentType: "text/plain", Data: []byte("x")},
			want: batch.ErrUnsupportedType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.Build([]batch.File{tt.file})
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestBuildSniffsGenericContentType(t *testing.T) {
	b := newBuilder(t)

	sub, err := b.Build([]batch.File{{
		Name:        "scan",
		ContentType: "application/octet-stream",
		Data:        pngHeader,
	}})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if ct := sub.Files()[0].ContentType; ct != "image/png" {
		t.Errorf("content type = %s, want image/png", ct)
	}
}

func TestBuildDoesNotAliasInput(t *testing.T) {
	b := newBuilder(t)
	files := pages(2)

	sub, err := b.Build(files)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	files[0], files[1] = files[1], files[0]
	if got := sub.Files()[0].Name; got != "page-1.png" {
		t.Errorf("first page = %s, want page-1.png", got)
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "no files", err: &batch.ValidationError{Err: batch.ErrNoFiles}, want: http.StatusBadRequest},
		{name: "too large", err: &batch.ValidationError{Err: batch.ErrFileTooLarge}, want: http.StatusRequestEntityTooLarge},
		{name: "unsupported", err: &batch.ValidationError{Err: batch.ErrUnsupportedType}, want: http.StatusUnsupportedMediaType},
		{name: "unknown", err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := batch.MapHTTPStatus(tt.err); got != tt.want {
				t.Errorf("MapHTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestReadFilesPreservesOrder(t *testing.T) {
	dir := t.TempDir()
	names := []string{"c.png", "a.png", "b.png"}
	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(dir, name)
		if err := os.WriteFile(paths[i], pngHeader, 0600); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	files, err := batch.ReadFiles(context.Background(), paths)
	if err != nil {
		t.Fatalf("ReadFiles() error = %v", err)
	}

	for i, f := range files {
		if f.Name != names[i] {
			t.Errorf("file %d: got %s, want %s", i, f.Name, names[i])
		}
		if f.ContentType != "image/png" {
			t.Errorf("file %d: content type %s", i, f.ContentType)
		}
	}
}

func TestReadFilesMissing(t *testing.T) {
	_, err := batch.ReadFiles(context.Background(), []string{filepath.Join(t.TempDir(), "missing.png")})
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestFromMultipartIndexedOrder(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, i := range []int{2, 0, 1} {
		fw, err := mw.CreateFormFile(fmt.Sprintf("file_%d", i), fmt.Sprintf("page-%d.png", i))
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		fw.Write(pngHeader)
	}
	mw.Close()

	req, _ := http.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if err := req.ParseMultipartForm(1 << 20); err != nil {
		t.Fatalf("parse: %v", err)
	}

	files, err := batch.FromMultipart(req.MultipartForm)
	if err != nil {
		t.Fatalf("FromMultipart() error = %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("len = %d, want 3", len(files))
	}
	for i, f := range files {
		if want := fmt.Sprintf("page-%d.png", i); f.Name != want {
			t.Errorf("file %d: got %s, want %s", i, f.Name, want)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := &batch.Config{MaxFiles: 9}
	if err := cfg.Finalize(nil); err == nil {
		t.Fatal("expected error for max_files above limit")
	}

	cfg = &batch.Config{MaxFileSize: "lots"}
	if err := cfg.Finalize(nil); err == nil {
		t.Fatal("expected error for invalid max_file_size")
	}
}
