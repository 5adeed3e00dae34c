package handler

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/student-console/internal/models"
	"github.com/noah-isme/student-console/internal/viewmodel"
)

type stubBackend struct {
	mu     sync.Mutex
	calls  map[string]int
	total  int64
	err    error
	export *models.Blob
}

func newStubBackend(total int64) *stubBackend {
	return &stubBackend{calls: make(map[string]int), total: total}
}

func (s *stubBackend) hit(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[op]++
	return s.err
}

func (s *stubBackend) count(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func (s *stubBackend) Generate(ctx context.Context, n int) (*models.APIResponse, error) {
	if err := s.hit("generate"); err != nil {
		return nil, err
	}
	name := "students.xlsx"
	records := int64(n)
	elapsed := int64(3)
	return &models.APIResponse{Success: true, FileName: &name, RecordCount: &records, ProcessingTimeMs: &elapsed}, nil
}

func (s *stubBackend) ProcessSpreadsheet(ctx context.Context, file models.FileUpload) (*models.APIResponse, error) {
	if err := s.hit("process"); err != nil {
		return nil, err
	}
	name := "students.csv"
	return &models.APIResponse{Success: true, FileName: &name}, nil
}

func (s *stubBackend) UploadCSV(ctx context.Context, file models.FileUpload) (*models.APIResponse, error) {
	if err := s.hit("upload"); err != nil {
		return nil, err
	}
	records := int64(len(bytes.Split(bytes.TrimSpace(file.Content), []byte("\n"))) - 1)
	return &models.APIResponse{Success: true, RecordCount: &records}, nil
}

func (s *stubBackend) ClearStudents(ctx context.Context) (*models.APIResponse, error) {
	if err := s.hit("clear"); err != nil {
		return nil, err
	}
	return &models.APIResponse{Success: true}, nil
}

func (s *stubBackend) StudentCount(ctx context.Context) (int64, error) {
	if err := s.hit("count"); err != nil {
		return 0, err
	}
	return s.total, nil
}

func (s *stubBackend) StudentReport(ctx context.Context, q models.ReportQuery) (*models.PagedResponse[models.Student], error) {
	if err := s.hit("report"); err != nil {
		return nil, err
	}
	pages := int((s.total + int64(q.Size) - 1) / int64(q.Size))
	content := []models.Student{}
	for i := 0; i < q.Size; i++ {
		id := int64(q.Page*q.Size + i + 1)
		if id > s.total {
			break
		}
		content = append(content, models.Student{StudentID: id, StudentClass: "5A"})
	}
	return &models.PagedResponse[models.Student]{Content: content, PageNumber: q.Page, PageSize: q.Size, TotalElements: s.total, TotalPages: pages}, nil
}

func (s *stubBackend) Export(ctx context.Context, format models.ExportFormat, filter models.ReportFilter) (*models.Blob, error) {
	if err := s.hit("export"); err != nil {
		return nil, err
	}
	if s.export != nil {
		return s.export, nil
	}
	return &models.Blob{Data: []byte("id,class\n1,5A\n")}, nil
}

type stubClasses struct {
	classes []string
}

func (s *stubClasses) AvailableClasses(ctx context.Context) ([]string, error) {
	return s.classes, nil
}

func (s *stubClasses) Invalidate(ctx context.Context) error { return nil }

func newTestConsole(backend *stubBackend) *viewmodel.Console {
	return viewmodel.NewConsole(backend, &stubClasses{classes: []string{"5A", "5B"}}, nil,
		viewmodel.Options{DefaultRecordCount: 100, PageSize: 20}, nil, nil)
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.Request = req
	return c, w
}

func newMultipartContext(path, filename string, content []byte) (*gin.Context, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, _ := writer.CreateFormFile("file", filename)
	_, _ = part.Write(content)
	_ = writer.Close()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.Request = req
	return c, w
}
