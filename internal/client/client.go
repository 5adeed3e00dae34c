// Package client talks to the student-data backend. It owns request encoding
// and response decoding only; validation and state live in the view-models.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/student-console/internal/models"
	appErrors "github.com/noah-isme/student-console/pkg/errors"
	"github.com/noah-isme/student-console/pkg/middleware/requestid"
)

const maxErrorBody = 64 * 1024

// CallObserver records the outcome of each backend call.
type CallObserver interface {
	ObserveBackendCall(operation string, status int, duration time.Duration)
}

// Config configures the backend client.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client is a typed wrapper around the backend HTTP API.
type Client struct {
	baseURL  string
	http     *http.Client
	observer CallObserver
	logger   *zap.Logger
}

// New constructs a Client. observer and logger may be nil.
func New(cfg Config, observer CallObserver, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		http:     &http.Client{Timeout: timeout},
		observer: observer,
		logger:   logger,
	}
}

// BaseURL returns the backend base URL the client was configured with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Generate asks the backend to synthesise recordCount students into a spreadsheet.
func (c *Client) Generate(ctx context.Context, recordCount int) (*models.APIResponse, error) {
	body, err := json.Marshal(models.GenerateRequest{RecordCount: recordCount})
	if err != nil {
		return nil, fmt.Errorf("encode generate request: %w", err)
	}
	var out models.APIResponse
	if err := c.doJSON(ctx, "generate", http.MethodPost, "/generate", nil, bytes.NewReader(body), "application/json", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ProcessSpreadsheet uploads an .xlsx file for conversion to CSV.
func (c *Client) ProcessSpreadsheet(ctx context.Context, file models.FileUpload) (*models.APIResponse, error) {
	return c.postFile(ctx, "process", "/process", file)
}

// UploadCSV uploads a CSV file to be persisted by the backend.
func (c *Client) UploadCSV(ctx context.Context, file models.FileUpload) (*models.APIResponse, error) {
	return c.postFile(ctx, "upload", "/upload", file)
}

// StudentCount returns the number of persisted students.
func (c *Client) StudentCount(ctx context.Context) (int64, error) {
	var count int64
	if err := c.doJSON(ctx, "count", http.MethodGet, "/upload/count", nil, nil, "", &count); err != nil {
		return 0, err
	}
	return count, nil
}

// ClearStudents deletes every persisted student. Callers must have obtained
// an explicit confirmation first.
func (c *Client) ClearStudents(ctx context.Context) (*models.APIResponse, error) {
	var out models.APIResponse
	if err := c.doJSON(ctx, "clear", http.MethodDelete, "/upload/clear", nil, nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StudentReport fetches one page of the student report.
func (c *Client) StudentReport(ctx context.Context, q models.ReportQuery) (*models.PagedResponse[models.Student], error) {
	var out models.PagedResponse[models.Student]
	if err := c.doJSON(ctx, "report", http.MethodGet, "/report", reportParams(q), nil, "", &out); err != nil {
		return nil, err
	}
	if out.Content == nil {
		out.Content = []models.Student{}
	}
	return &out, nil
}

// AvailableClasses lists the distinct student classes known to the backend.
func (c *Client) AvailableClasses(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.doJSON(ctx, "classes", http.MethodGet, "/report/classes", nil, nil, "", &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

// Export downloads the report rendered in format, narrowed by filter.
func (c *Client) Export(ctx context.Context, format models.ExportFormat, filter models.ReportFilter) (*models.Blob, error) {
	op := "export_" + string(format)
	resp, err := c.do(ctx, op, http.MethodGet, "/report/export/"+string(format), filterParams(filter), nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, appErrors.Network(fmt.Errorf("read %s export: %w", format.Label(), err))
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = format.ContentType()
	}
	return &models.Blob{Data: data, ContentType: contentType, Filename: format.Filename()}, nil
}

// ExportExcel is Export with the Excel format.
func (c *Client) ExportExcel(ctx context.Context, filter models.ReportFilter) (*models.Blob, error) {
	return c.Export(ctx, models.ExportExcel, filter)
}

// ExportCSV is Export with the CSV format.
func (c *Client) ExportCSV(ctx context.Context, filter models.ReportFilter) (*models.Blob, error) {
	return c.Export(ctx, models.ExportCSV, filter)
}

// ExportPDF is Export with the PDF format.
func (c *Client) ExportPDF(ctx context.Context, filter models.ReportFilter) (*models.Blob, error) {
	return c.Export(ctx, models.ExportPDF, filter)
}

func (c *Client) postFile(ctx context.Context, op, path string, file models.FileUpload) (*models.APIResponse, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", file.Name)
	if err != nil {
		return nil, fmt.Errorf("create multipart file: %w", err)
	}
	if _, err := part.Write(file.Content); err != nil {
		return nil, fmt.Errorf("write multipart file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart body: %w", err)
	}

	var out models.APIResponse
	if err := c.doJSON(ctx, op, http.MethodPost, path, nil, body, writer.FormDataContentType(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, params queryParams, body io.Reader, contentType string, dest interface{}) error {
	resp, err := c.do(ctx, op, method, path, params, body, contentType)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return appErrors.Wrap(err, appErrors.ErrServer.Code, appErrors.ErrServer.Status, fmt.Sprintf("malformed %s response", op))
	}
	return nil
}

// do executes the request and returns the response only for 2xx statuses.
// Any other outcome is converted to a network or server error.
func (c *Client) do(ctx context.Context, op, method, path string, params queryParams, body io.Reader, contentType string) (*http.Response, error) {
	url := c.baseURL + path
	if encoded := params.Encode(); encoded != "" {
		url += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", op, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json, */*")
	if id := requestid.FromContext(ctx); id != "" {
		req.Header.Set(requestid.Header, id)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.observe(op, 0, duration)
		c.logger.Warn("backend call failed", zap.String("operation", op), zap.String("url", url), zap.Error(err))
		return nil, appErrors.Network(err)
	}
	c.observe(op, resp.StatusCode, duration)
	c.logger.Debug("backend call",
		zap.String("operation", op),
		zap.String("method", method),
		zap.String("url", url),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", duration),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, appErrors.Server(resp.StatusCode, errorMessage(resp))
	}
	return resp, nil
}

func (c *Client) observe(op string, status int, duration time.Duration) {
	if c.observer != nil {
		c.observer.ObserveBackendCall(op, status, duration)
	}
}

// errorMessage extracts the backend's "message" field when the error body is
// JSON, and falls back to the status line.
func errorMessage(resp *http.Response) string {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return "backend responded with " + strconv.Itoa(resp.StatusCode) + " " + http.StatusText(resp.StatusCode)
}
