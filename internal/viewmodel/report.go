package viewmodel

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/student-console/internal/models"
	appErrors "github.com/noah-isme/student-console/pkg/errors"
)

// ReportSource is the backend surface the report reads from.
type ReportSource interface {
	StudentReport(ctx context.Context, q models.ReportQuery) (*models.PagedResponse[models.Student], error)
	Export(ctx context.Context, format models.ExportFormat, filter models.ReportFilter) (*models.Blob, error)
}

// ReportState is an immutable snapshot of the report.
type ReportState struct {
	Page          int                 `json:"page"`
	Size          int                 `json:"size"`
	SortBy        string              `json:"sortBy"`
	SortOrder     string              `json:"sortOrder"`
	Filter        models.ReportFilter `json:"filter"`
	Students      []models.Student    `json:"students"`
	TotalElements int64               `json:"totalElements"`
	TotalPages    int                 `json:"totalPages"`
	Loading       bool                `json:"loading"`
	Error         string              `json:"error,omitempty"`
	HasNext       bool                `json:"hasNext"`
	HasPrevious   bool                `json:"hasPrevious"`
}

// Report is the paginated, filterable student listing.
//
// Fetches are not de-duplicated and superseded HTTP requests are not
// cancelled. Every fetch takes a sequence number instead, and only the
// completion of the most recently issued fetch is applied; earlier ones are
// dropped when they resolve.
type Report struct {
	api      ReportSource
	notifier Notifier
	logger   *zap.Logger

	mu            sync.Mutex
	query         models.ReportQuery
	students      []models.Student
	totalElements int64
	totalPages    int
	loading       bool
	errMsg        string
	issued        uint64
}

// NewReport constructs a report starting at page 0 with the given page size
// and sort. Zero values fall back to the defaults.
func NewReport(api ReportSource, size int, sortBy, sortOrder string, notifier Notifier, logger *zap.Logger) *Report {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	q := models.NewReportQuery()
	if size > 0 {
		q.Size = size
	}
	if strings.TrimSpace(sortBy) != "" {
		q.SortBy = sortBy
	}
	if strings.TrimSpace(sortOrder) != "" {
		q.SortOrder = sortOrder
	}
	return &Report{api: api, notifier: notifier, logger: logger, query: q, students: []models.Student{}}
}

// State returns a snapshot of the report.
func (r *Report) State() ReportState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// Load fetches the current query.
func (r *Report) Load(ctx context.Context) (ReportState, error) {
	return r.fetch(ctx, func(q *models.ReportQuery) {})
}

// Search replaces the filter and fetches page 0.
func (r *Report) Search(ctx context.Context, filter models.ReportFilter) (ReportState, error) {
	return r.fetch(ctx, func(q *models.ReportQuery) {
		q.Filter = filter
		q.Page = 0
	})
}

// ClearFilters drops the filter and fetches page 0.
func (r *Report) ClearFilters(ctx context.Context) (ReportState, error) {
	return r.fetch(ctx, func(q *models.ReportQuery) {
		q.Filter = models.ReportFilter{}
		q.Page = 0
	})
}

// GoToPage fetches page n when 0 <= n < totalPages. Out of range requests
// are ignored: no fetch is issued and accepted is false.
func (r *Report) GoToPage(ctx context.Context, n int) (state ReportState, accepted bool, err error) {
	r.mu.Lock()
	inRange := n >= 0 && n < r.totalPages
	r.mu.Unlock()
	if !inRange {
		return r.State(), false, nil
	}
	state, err = r.fetch(ctx, func(q *models.ReportQuery) { q.Page = n })
	return state, true, err
}

// NextPage moves forward unless the last page is shown.
func (r *Report) NextPage(ctx context.Context) (ReportState, bool, error) {
	r.mu.Lock()
	next := r.query.Page + 1
	r.mu.Unlock()
	return r.GoToPage(ctx, next)
}

// PreviousPage moves back unless the first page is shown.
func (r *Report) PreviousPage(ctx context.Context) (ReportState, bool, error) {
	r.mu.Lock()
	prev := r.query.Page - 1
	r.mu.Unlock()
	return r.GoToPage(ctx, prev)
}

// Export renders the report with the current filter. The report state is
// not touched.
func (r *Report) Export(ctx context.Context, format models.ExportFormat) (*models.Blob, error) {
	r.mu.Lock()
	filter := r.query.Filter
	r.mu.Unlock()

	blob, err := r.api.Export(ctx, format, filter)
	if err != nil {
		appErr := appErrors.FromError(err)
		r.logger.Warn("export failed", zap.String("format", string(format)), zap.Error(err))
		return nil, appErrors.Clone(appErr, "Failed to export "+format.Label()+": "+appErr.Message)
	}
	blob.Filename = format.Filename()
	if blob.ContentType == "" {
		blob.ContentType = format.ContentType()
	}
	return blob, nil
}

func (r *Report) fetch(ctx context.Context, mutate func(q *models.ReportQuery)) (ReportState, error) {
	r.mu.Lock()
	mutate(&r.query)
	r.issued++
	seq := r.issued
	q := r.query
	r.loading = true
	r.mu.Unlock()
	r.notifier.Notify("report")

	page, err := r.api.StudentReport(ctx, q)

	r.mu.Lock()
	if latest := r.issued; seq != latest {
		state := r.snapshotLocked()
		r.mu.Unlock()
		r.logger.Debug("discarding superseded report response",
			zap.Uint64("sequence", seq), zap.Uint64("latest", latest))
		return state, nil
	}
	r.loading = false
	var result error
	if err != nil {
		appErr := appErrors.FromError(err)
		r.errMsg = "Error loading students: " + appErr.Message
		result = appErrors.Clone(appErr, r.errMsg)
	} else {
		r.students = page.Content
		if r.students == nil {
			r.students = []models.Student{}
		}
		r.totalElements = page.TotalElements
		r.totalPages = page.TotalPages
		r.errMsg = ""
	}
	state := r.snapshotLocked()
	r.mu.Unlock()
	r.notifier.Notify("report")

	if result != nil {
		r.logger.Warn("report fetch failed", zap.Int("page", q.Page), zap.Error(err))
	}
	return state, result
}

func (r *Report) snapshotLocked() ReportState {
	students := make([]models.Student, len(r.students))
	copy(students, r.students)
	return ReportState{
		Page:          r.query.Page,
		Size:          r.query.Size,
		SortBy:        r.query.SortBy,
		SortOrder:     r.query.SortOrder,
		Filter:        r.query.Filter,
		Students:      students,
		TotalElements: r.totalElements,
		TotalPages:    r.totalPages,
		Loading:       r.loading,
		Error:         r.errMsg,
		HasNext:       r.query.Page < r.totalPages-1,
		HasPrevious:   r.query.Page > 0,
	}
}
