package viewmodel

import (
	"context"
	"encoding/json"
	"path"
	"sync"
	"time"

	"github.com/noah-isme/student-console/internal/models"
	appErrors "github.com/noah-isme/student-console/pkg/errors"
)

func int64Ptr(v int64) *int64    { return &v }
func stringPtr(v string) *string { return &v }

// fakeBackend records every call. Unset funcs return canned successes.
type fakeBackend struct {
	mu    sync.Mutex
	calls map[string]int

	generateFn func(n int) (*models.APIResponse, error)
	processFn  func(file models.FileUpload) (*models.APIResponse, error)
	uploadFn   func(file models.FileUpload) (*models.APIResponse, error)
	clearFn    func() (*models.APIResponse, error)
	countFn    func() (int64, error)
	reportFn   func(q models.ReportQuery) (*models.PagedResponse[models.Student], error)
	exportFn   func(format models.ExportFormat, filter models.ReportFilter) (*models.Blob, error)

	queries []models.ReportQuery
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{calls: make(map[string]int)}
}

func (f *fakeBackend) record(op string) {
	f.mu.Lock()
	f.calls[op]++
	f.mu.Unlock()
}

func (f *fakeBackend) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeBackend) Generate(ctx context.Context, n int) (*models.APIResponse, error) {
	f.record("generate")
	if f.generateFn != nil {
		return f.generateFn(n)
	}
	return &models.APIResponse{Success: true}, nil
}

func (f *fakeBackend) ProcessSpreadsheet(ctx context.Context, file models.FileUpload) (*models.APIResponse, error) {
	f.record("process")
	if f.processFn != nil {
		return f.processFn(file)
	}
	return &models.APIResponse{Success: true}, nil
}

func (f *fakeBackend) UploadCSV(ctx context.Context, file models.FileUpload) (*models.APIResponse, error) {
	f.record("upload")
	if f.uploadFn != nil {
		return f.uploadFn(file)
	}
	return &models.APIResponse{Success: true, RecordCount: int64Ptr(10), ProcessingTimeMs: int64Ptr(5)}, nil
}

func (f *fakeBackend) ClearStudents(ctx context.Context) (*models.APIResponse, error) {
	f.record("clear")
	if f.clearFn != nil {
		return f.clearFn()
	}
	return &models.APIResponse{Success: true}, nil
}

func (f *fakeBackend) StudentCount(ctx context.Context) (int64, error) {
	f.record("count")
	if f.countFn != nil {
		return f.countFn()
	}
	return 0, nil
}

func (f *fakeBackend) StudentReport(ctx context.Context, q models.ReportQuery) (*models.PagedResponse[models.Student], error) {
	f.record("report")
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()
	if f.reportFn != nil {
		return f.reportFn(q)
	}
	return &models.PagedResponse[models.Student]{Content: []models.Student{}}, nil
}

func (f *fakeBackend) Export(ctx context.Context, format models.ExportFormat, filter models.ReportFilter) (*models.Blob, error) {
	f.record("export")
	if f.exportFn != nil {
		return f.exportFn(format, filter)
	}
	return &models.Blob{Data: []byte("x")}, nil
}

func (f *fakeBackend) lastQuery() models.ReportQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries[len(f.queries)-1]
}

type fakeClasses struct {
	mu          sync.Mutex
	classes     []string
	err         error
	loads       int
	invalidated int
}

func (f *fakeClasses) AvailableClasses(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	return f.classes, f.err
}

func (f *fakeClasses) Invalidate(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated++
	return nil
}

type recordingNotifier struct {
	mu         sync.Mutex
	components []string
}

func (n *recordingNotifier) Notify(component string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.components = append(n.components, component)
}

func (n *recordingNotifier) seen(component string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, c := range n.components {
		if c == component {
			return true
		}
	}
	return false
}

// pageOf builds a report page of size entries out of total.
func pageOf(page, size int, total int64) *models.PagedResponse[models.Student] {
	pages := int((total + int64(size) - 1) / int64(size))
	content := make([]models.Student, 0, size)
	for i := 0; i < size; i++ {
		id := int64(page*size + i + 1)
		if id > total {
			break
		}
		content = append(content, models.Student{StudentID: id, StudentClass: "5A"})
	}
	return &models.PagedResponse[models.Student]{
		Content:       content,
		PageNumber:    page,
		PageSize:      size,
		TotalElements: total,
		TotalPages:    pages,
	}
}

// memoryCache is an in-process stand-in for the redis cache repository.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	raw, ok := m.entries[key]
	m.mu.Unlock()
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.entries[key] = raw
	m.mu.Unlock()
	return nil
}

func (m *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.entries {
		if ok, _ := path.Match(pattern, key); ok {
			delete(m.entries, key)
		}
	}
	return nil
}
