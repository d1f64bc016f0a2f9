// Package restclient calls the REST API served for the browser variant.
package restclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/SAP-F-2025/exam-desk/internal/models"
	"github.com/SAP-F-2025/exam-desk/internal/services"
)

// APIError is a non-2xx answer of the API.
type APIError struct {
	Status  int
	Message string
	Details json.RawMessage
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

type Client struct {
	base   string
	http   *http.Client
	logger *slog.Logger
}

func New(base string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		base:   strings.TrimRight(base, "/"),
		http:   httpClient,
		logger: logger.With("component", "restclient"),
	}
}

func (c *Client) ListQuestions(ctx context.Context) ([]services.QuestionView, error) {
	var out []services.QuestionView
	err := c.do(ctx, http.MethodGet, "/api/questions", nil, "", &out)
	return out, err
}

func (c *Client) DeleteQuestion(ctx context.Context, id uint) error {
	return c.do(ctx, http.MethodDelete, "/api/questions/"+strconv.FormatUint(uint64(id), 10), nil, "", nil)
}

// UploadPDF sends the file at path and waits until its questions are imported.
func (c *Client) UploadPDF(ctx context.Context, path string) (*services.ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	var out services.ImportResult
	if err := c.do(ctx, http.MethodPost, "/api/upload-pdf", &body, w.FormDataContentType(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GenerateTest(ctx context.Context, req services.GenerateTestRequest) (*services.GeneratedPDF, error) {
	var out services.GeneratedPDF
	if err := c.doJSON(ctx, http.MethodPost, "/api/generate-test", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GenerateRandomTest(ctx context.Context, req services.RandomTestRequest) (*services.GeneratedPDF, error) {
	var out services.GeneratedPDF
	if err := c.doJSON(ctx, http.MethodPost, "/api/generate-random-test", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListTests(ctx context.Context) ([]services.GeneratedFile, error) {
	var out []services.GeneratedFile
	err := c.do(ctx, http.MethodGet, "/api/tests", nil, "", &out)
	return out, err
}

func (c *Client) Stats(ctx context.Context) (*models.QuestionStats, error) {
	var out models.QuestionStats
	if err := c.do(ctx, http.MethodGet, "/api/stats", nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Download copies a served file, e.g. a GeneratedPDF.URL, to w.
func (c *Client) Download(ctx context.Context, urlPath string, w io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+urlPath, nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to download %s: %w", urlPath, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, decodeError(resp)
	}
	return io.Copy(w, resp.Body)
}

func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, "", nil)
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	return c.do(ctx, method, path, bytes.NewReader(data), "application/json", out)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := decodeError(resp)
		c.logger.Debug("API call rejected", "method", method, "path", path, "status", resp.StatusCode)
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response) *APIError {
	apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	var body struct {
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Message != "" {
		apiErr.Message = body.Message
		apiErr.Details = body.Details
	}
	return apiErr
}
