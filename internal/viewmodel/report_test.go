package viewmodel

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-console/internal/models"
	appErrors "github.com/noah-isme/student-console/pkg/errors"
)

func newPagedBackend(total int64) *fakeBackend {
	backend := newFakeBackend()
	backend.reportFn = func(q models.ReportQuery) (*models.PagedResponse[models.Student], error) {
		return pageOf(q.Page, q.Size, total), nil
	}
	return backend
}

func TestReportLoadComputesPages(t *testing.T) {
	report := NewReport(newPagedBackend(45), 20, "", "", nil, nil)

	state, err := report.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, state.TotalPages)
	assert.Equal(t, int64(45), state.TotalElements)
	assert.Len(t, state.Students, 20)
	assert.False(t, state.Loading)
	assert.True(t, state.HasNext)
	assert.False(t, state.HasPrevious)
}

func TestReportNavigationGuards(t *testing.T) {
	backend := newPagedBackend(45)
	report := NewReport(backend, 20, "", "", nil, nil)
	ctx := context.Background()

	_, err := report.Load(ctx)
	require.NoError(t, err)

	_, accepted, err := report.PreviousPage(ctx)
	require.NoError(t, err)
	assert.False(t, accepted)

	state, accepted, err := report.GoToPage(ctx, 2)
	require.NoError(t, err)
	assert.True(t, accepted)
	assert.Equal(t, 2, state.Page)
	assert.Len(t, state.Students, 5)
	assert.False(t, state.HasNext)

	calls := backend.count("report")
	state, accepted, err = report.NextPage(ctx)
	require.NoError(t, err)
	assert.False(t, accepted)
	assert.Equal(t, 2, state.Page)
	assert.Equal(t, calls, backend.count("report"))

	for _, n := range []int{-1, 3, 99} {
		_, accepted, err = report.GoToPage(ctx, n)
		require.NoError(t, err)
		assert.False(t, accepted, "page %d", n)
	}
	assert.Equal(t, calls, backend.count("report"))

	state, accepted, err = report.PreviousPage(ctx)
	require.NoError(t, err)
	assert.True(t, accepted)
	assert.Equal(t, 1, state.Page)
}

func TestReportSearchResetsPageAndForwardsFilter(t *testing.T) {
	backend := newPagedBackend(45)
	report := NewReport(backend, 20, "", "", nil, nil)
	ctx := context.Background()

	_, err := report.Load(ctx)
	require.NoError(t, err)
	_, _, err = report.GoToPage(ctx, 1)
	require.NoError(t, err)

	state, err := report.Search(ctx, models.ReportFilter{StudentID: 42, StudentClass: "5 A"})
	require.NoError(t, err)
	assert.Equal(t, 0, state.Page)
	q := backend.lastQuery()
	assert.Equal(t, 0, q.Page)
	assert.Equal(t, models.ReportFilter{StudentID: 42, StudentClass: "5 A"}, q.Filter)

	state, err = report.ClearFilters(ctx)
	require.NoError(t, err)
	assert.True(t, state.Filter.IsEmpty())
	assert.True(t, backend.lastQuery().Filter.IsEmpty())
}

func TestReportFailureKeepsStaleStudents(t *testing.T) {
	backend := newPagedBackend(45)
	report := NewReport(backend, 20, "", "", nil, nil)
	ctx := context.Background()

	before, err := report.Load(ctx)
	require.NoError(t, err)

	backend.reportFn = func(models.ReportQuery) (*models.PagedResponse[models.Student], error) {
		return nil, appErrors.Network(errors.New("timeout"))
	}
	state, err := report.Load(ctx)
	require.Error(t, err)
	assert.Equal(t, "Error loading students: timeout", state.Error)
	assert.Equal(t, before.Students, state.Students)
	assert.Equal(t, before.TotalPages, state.TotalPages)
	assert.False(t, state.Loading)

	backend.reportFn = func(q models.ReportQuery) (*models.PagedResponse[models.Student], error) {
		return pageOf(q.Page, q.Size, 3), nil
	}
	state, err = report.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, state.Error)
	assert.Len(t, state.Students, 3)
}

func TestReportDiscardsSupersededResponse(t *testing.T) {
	backend := newPagedBackend(100)
	report := NewReport(backend, 10, "", "", nil, nil)
	ctx := context.Background()
	_, err := report.Load(ctx)
	require.NoError(t, err)

	slowEntered := make(chan struct{})
	releaseSlow := make(chan struct{})
	backend.reportFn = func(q models.ReportQuery) (*models.PagedResponse[models.Student], error) {
		if q.Page == 1 {
			close(slowEntered)
			<-releaseSlow
		}
		return pageOf(q.Page, q.Size, 100), nil
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _, _ = report.GoToPage(ctx, 1)
	}()
	<-slowEntered

	state, accepted, err := report.GoToPage(ctx, 2)
	require.NoError(t, err)
	require.True(t, accepted)
	assert.Equal(t, 2, state.Page)
	assert.Equal(t, int64(21), state.Students[0].StudentID)

	close(releaseSlow)
	wg.Wait()

	final := report.State()
	assert.Equal(t, 2, final.Page)
	assert.Equal(t, int64(21), final.Students[0].StudentID)
	assert.False(t, final.Loading)
}

func TestReportLoadingUntilLatestResolves(t *testing.T) {
	backend := newPagedBackend(100)
	report := NewReport(backend, 10, "", "", nil, nil)
	ctx := context.Background()
	_, err := report.Load(ctx)
	require.NoError(t, err)

	entered := make(chan struct{})
	release := make(chan struct{})
	backend.reportFn = func(q models.ReportQuery) (*models.PagedResponse[models.Student], error) {
		close(entered)
		<-release
		return pageOf(q.Page, q.Size, 100), nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _, _ = report.NextPage(ctx)
	}()
	<-entered
	assert.True(t, report.State().Loading)
	close(release)
	<-done
	assert.False(t, report.State().Loading)
}

func TestReportExportUsesCurrentFilter(t *testing.T) {
	backend := newPagedBackend(5)
	var gotFilter models.ReportFilter
	backend.exportFn = func(format models.ExportFormat, filter models.ReportFilter) (*models.Blob, error) {
		gotFilter = filter
		return &models.Blob{Data: []byte("%PDF")}, nil
	}
	report := NewReport(backend, 20, "", "", nil, nil)
	ctx := context.Background()

	_, err := report.Search(ctx, models.ReportFilter{StudentClass: "5B"})
	require.NoError(t, err)

	blob, err := report.Export(ctx, models.ExportPDF)
	require.NoError(t, err)
	assert.Equal(t, "students_report.pdf", blob.Filename)
	assert.Equal(t, "application/pdf", blob.ContentType)
	assert.Equal(t, "5B", gotFilter.StudentClass)
}

func TestReportExportFailureMessage(t *testing.T) {
	backend := newFakeBackend()
	backend.exportFn = func(models.ExportFormat, models.ReportFilter) (*models.Blob, error) {
		return nil, appErrors.Server(500, "renderer crashed")
	}
	report := NewReport(backend, 20, "", "", nil, nil)

	_, err := report.Export(context.Background(), models.ExportExcel)
	require.Error(t, err)
	assert.True(t, appErrors.IsServer(err))
	assert.Equal(t, "Failed to export Excel: renderer crashed", appErrors.FromError(err).Message)
	assert.Empty(t, report.State().Error)
}
