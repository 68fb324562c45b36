// Package batch validates and packages user-selected page images into a
// single ordered document submission.
package batch

import (
	"net/http"
	"slices"
	"strings"
)

// MaxFiles is the largest number of pages accepted in one submission.
const MaxFiles = 5

// File is a single page image selected for upload.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Size returns the file size in bytes.
func (f File) Size() int64 {
	return int64(len(f.Data))
}

// Submission is an ordered set of page images. Page i of the resulting
// document is Files[i].
type Submission struct {
	files     []File
	multiPage bool
}

// Files returns the pages in submission order.
func (s *Submission) Files() []File {
	return slices.Clone(s.files)
}

// Len returns the number of pages.
func (s *Submission) Len() int {
	return len(s.files)
}

// MultiPage reports whether the server should merge the pages into one
// logical document. It is fixed when the submission is built.
func (s *Submission) MultiPage() bool {
	return s.multiPage
}

// Builder validates selected files against configured limits.
type Builder struct {
	maxFiles     int
	maxFileSize  int64
	allowedTypes []string
}

// NewBuilder creates a Builder from the batch configuration.
func NewBuilder(cfg *Config) *Builder {
	return &Builder{
		maxFiles:     cfg.MaxFiles,
		maxFileSize:  cfg.MaxFileSizeBytes(),
		allowedTypes: cfg.AllowedTypes,
	}
}

// Build validates files and packages them into a Submission, preserving
// the caller's order. It performs no I/O.
func (b *Builder) Build(files []File) (*Submission, error) {
	if len(files) == 0 {
		return nil, &ValidationError{Err: ErrNoFiles}
	}
	if len(files) > b.maxFiles {
		return nil, &ValidationError{Err: ErrTooManyFiles, Count: len(files), Limit: b.maxFiles}
	}

	packaged := make([]File, len(files))
	for i, f := range files {
		if len(f.Data) == 0 {
			return nil, &ValidationError{File: f.Name, Err: ErrEmptyFile}
		}
		if b.maxFileSize > 0 && f.Size() > b.maxFileSize {
			return nil, &ValidationError{File: f.Name, Err: ErrFileTooLarge}
		}

		f.ContentType = DetectContentType(f.ContentType, f.Data)
		if len(b.allowedTypes) > 0 && !slices.Contains(b.allowedTypes, f.ContentType) {
			return nil, &ValidationError{File: f.Name, Err: ErrUnsupportedType}
		}

		packaged[i] = f
	}

	return &Submission{
		files:     packaged,
		multiPage: len(packaged) > 1,
	}, nil
}

// DetectContentType returns the declared type unless it is empty or
// generic, in which case the type is sniffed from the data.
func DetectContentType(declared string, data []byte) string {
	declared = strings.TrimSpace(declared)
	if declared != "" && declared != "application/octet-stream" {
		if mediaType, _, ok := strings.Cut(declared, ";"); ok {
			return strings.TrimSpace(mediaType)
		}
		return declared
	}
	return http.DetectContentType(data)
}
