package batch

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
)

// ReadFiles loads the files at paths concurrently. The result preserves
// the order of paths.
func ReadFiles(ctx context.Context, paths []string) ([]File, error) {
	files := make([]File, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(MaxFiles)

	for i, path := range paths {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}

			files[i] = File{
				Name:        filepath.Base(path),
				ContentType: DetectContentType("", data),
				Data:        data,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

// FromMultipart collects uploaded files from a parsed multipart form.
// Accepted layouts are a single "file" field, indexed "file_0".."file_N"
// fields ordered by index, or repeated "files" fields in form order.
func FromMultipart(form *multipart.Form) ([]File, error) {
	if form == nil {
		return nil, nil
	}

	var headers []*multipart.FileHeader
	headers = append(headers, form.File["file"]...)
	headers = append(headers, indexedHeaders(form.File)...)
	headers = append(headers, form.File["files"]...)

	files := make([]File, 0, len(headers))
	for _, h := range headers {
		f, err := readHeader(h)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

func indexedHeaders(fields map[string][]*multipart.FileHeader) []*multipart.FileHeader {
	type indexed struct {
		index  int
		header *multipart.FileHeader
	}

	var found []indexed
	for name, hs := range fields {
		suffix, ok := strings.CutPrefix(name, "file_")
		if !ok || len(hs) == 0 {
			continue
		}
		idx, err := strconv.Atoi(suffix)
		if err != nil {
			continue
		}
		found = append(found, indexed{index: idx, header: hs[0]})
	}

	sort.Slice(found, func(i, j int) bool {
		return found[i].index < found[j].index
	})

	headers := make([]*multipart.FileHeader, len(found))
	for i, f := range found {
		headers[i] = f.header
	}
	return headers
}

func readHeader(h *multipart.FileHeader) (File, error) {
	file, err := h.Open()
	if err != nil {
		return File{}, fmt.Errorf("open %s: %w", h.Filename, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return File{}, fmt.Errorf("read %s: %w", h.Filename, err)
	}

	return File{
		Name:        h.Filename,
		ContentType: h.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
