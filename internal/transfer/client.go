package transfer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"

	"github.com/JaimeStill/noteforge/internal/batch"
	"github.com/JaimeStill/noteforge/pkg/formatting"
)

// Client issues requests against the remote recognition and typesetting service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a Client for the configured base URL.
func New(cfg *Config, logger *slog.Logger) *Client {
	return NewWithHTTPClient(cfg, &http.Client{Timeout: cfg.TimeoutDuration()}, logger)
}

// NewWithHTTPClient creates a Client that sends requests through httpClient.
func NewWithHTTPClient(cfg *Config, httpClient *http.Client, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		logger:     logger.With("system", "transfer"),
	}
}

// Upload sends the submission as one multipart request. A single page is
// sent as "file"; multiple pages as "file_0".."file_{N-1}" in submission
// order. is_multi_page is always set from the submission.
func (c *Client) Upload(ctx context.Context, sub *batch.Submission) (*UploadResult, error) {
	body, contentType, err := encodeSubmission(sub)
	if err != nil {
		return nil, &TransferError{Op: OpUpload, Message: fallbackMessage(OpUpload), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", body)
	if err != nil {
		return nil, &TransferError{Op: OpUpload, Message: fallbackMessage(OpUpload), Err: err}
	}
	req.Header.Set("Content-Type", contentType)

	result, err := doJSON[UploadResult](c, req, OpUpload)
	if err != nil {
		return nil, err
	}
	if result.FileID == "" {
		return nil, &TransferError{Op: OpUpload, Status: http.StatusOK, Message: fallbackMessage(OpUpload)}
	}

	c.logger.InfoContext(
		ctx, "submission uploaded",
		"file_id", result.FileID,
		"pages", sub.Len(),
		"multi_page", sub.MultiPage(),
	)
	return result, nil
}

// Convert requests the LaTeX source for documentID. multiPage must be the
// flag recorded at upload time.
func (c *Client) Convert(ctx context.Context, documentID string, multiPage bool) (*ConvertResult, error) {
	endpoint := fmt.Sprintf(
		"%s/convert/%s?is_multi_page=%s",
		c.baseURL,
		url.PathEscape(documentID),
		strconv.FormatBool(multiPage),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &TransferError{Op: OpConvert, Message: fallbackMessage(OpConvert), Err: err}
	}

	result, err := doJSON[ConvertResult](c, req, OpConvert)
	if err != nil {
		return nil, err
	}

	c.logger.InfoContext(ctx, "document converted", "file_id", documentID, "bytes", len(result.Content))
	return result, nil
}

// ResolveRenderAddress returns the address of the rendered artifact for
// documentID. The same id always yields the same address.
func (c *Client) ResolveRenderAddress(documentID string) string {
	return c.baseURL + "/pdf/" + url.PathEscape(documentID)
}

// ProbeRender requests the artifact at address. A non-success response
// returns a RenderError carrying the parsed error payload when available.
func (c *Client) ProbeRender(ctx context.Context, address string) (*Probe, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, address, nil)
	if err != nil {
		return nil, &RenderError{Address: address, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RenderError{Address: address, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RenderError{Address: address, Status: resp.StatusCode, Err: err}
	}

	if !success(resp.StatusCode) {
		rerr := &RenderError{Address: address, Status: resp.StatusCode}
		if payload, perr := formatting.Parse[ErrorPayload](data); perr == nil {
			rerr.Payload = &payload
		}
		c.logger.WarnContext(ctx, "render probe failed", "address", address, "status", resp.StatusCode)
		return nil, rerr
	}

	return &Probe{
		Address:     address,
		ContentType: resp.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func doJSON[T any](c *Client, req *http.Request, op string) (*T, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransferError{Op: op, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransferError{Op: op, Status: resp.StatusCode, Message: fallbackMessage(op), Err: err}
	}

	if !success(resp.StatusCode) {
		return nil, responseError(op, resp.StatusCode, data)
	}

	result, err := formatting.Parse[T](data)
	if err != nil {
		return nil, &TransferError{Op: op, Status: resp.StatusCode, Message: fallbackMessage(op), Err: err}
	}
	return &result, nil
}

func success(status int) bool {
	return status/100 == 2
}

func responseError(op string, status int, data []byte) *TransferError {
	terr := &TransferError{Op: op, Status: status, Message: fallbackMessage(op)}

	payload, err := formatting.Parse[ErrorPayload](data)
	if err != nil {
		terr.Err = err
		return terr
	}
	if msg := payload.Message(); msg != "" {
		terr.Message = msg
	}
	return terr
}

func encodeSubmission(sub *batch.Submission) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	files := sub.Files()
	for i, f := range files {
		field := "file"
		if sub.MultiPage() {
			field = fmt.Sprintf("file_%d", i)
		}
		if err := writeFilePart(w, field, f); err != nil {
			return nil, "", err
		}
	}

	if err := w.WriteField("is_multi_page", strconv.FormatBool(sub.MultiPage())); err != nil {
		return nil, "", fmt.Errorf("write is_multi_page: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}

	return &buf, w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeFilePart(w *multipart.Writer, field string, f batch.File) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(
		`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(field),
		quoteEscaper.Replace(f.Name),
	))
	h.Set("Content-Type", f.ContentType)

	part, err := w.CreatePart(h)
	if err != nil {
		return fmt.Errorf("create part %s: %w", field, err)
	}
	if _, err := part.Write(f.Data); err != nil {
		return fmt.Errorf("write part %s: %w", field, err)
	}
	return nil
}
