package viewmodel

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-console/internal/models"
	appErrors "github.com/noah-isme/student-console/pkg/errors"
)

func TestGeneratePanelRejectsInvalidCountWithoutCall(t *testing.T) {
	backend := newFakeBackend()
	panel := NewGeneratePanel(backend, nil, 1000000, nil, nil)

	for _, n := range []int{0, -5} {
		state, err := panel.Submit(context.Background(), n)
		require.Error(t, err)
		assert.True(t, appErrors.IsValidation(err))
		assert.Equal(t, PhaseFailed, state.Phase)
		assert.Equal(t, "Please enter a valid number of records (minimum 1)", state.Message)
	}
	assert.Zero(t, backend.count("generate"))
}

func TestGeneratePanelSuccessMessage(t *testing.T) {
	backend := newFakeBackend()
	backend.generateFn = func(n int) (*models.APIResponse, error) {
		return &models.APIResponse{
			Success:          true,
			FileName:         stringPtr("students_1.xlsx"),
			RecordCount:      int64Ptr(int64(n)),
			ProcessingTimeMs: int64Ptr(812),
		}, nil
	}
	notifier := &recordingNotifier{}
	panel := NewGeneratePanel(backend, nil, 1000000, notifier, nil)

	state, err := panel.Submit(context.Background(), 1000000)
	require.NoError(t, err)
	assert.Equal(t, PhaseSucceeded, state.Phase)
	assert.Equal(t, "Success! Generated 1,000,000 records in 812ms. File: students_1.xlsx", state.Message)
	assert.True(t, notifier.seen("generate"))
}

func TestGeneratePanelUnsuccessfulResponse(t *testing.T) {
	backend := newFakeBackend()
	backend.generateFn = func(int) (*models.APIResponse, error) {
		return &models.APIResponse{Success: false, Message: "disk full"}, nil
	}
	panel := NewGeneratePanel(backend, nil, 10, nil, nil)

	state, err := panel.Submit(context.Background(), 10)
	require.Error(t, err)
	assert.True(t, appErrors.IsServer(err))
	assert.Equal(t, "disk full", state.Message)
}

func TestGeneratePanelNetworkFailure(t *testing.T) {
	backend := newFakeBackend()
	backend.generateFn = func(int) (*models.APIResponse, error) {
		return nil, appErrors.Network(errors.New("connection refused"))
	}
	panel := NewGeneratePanel(backend, nil, 10, nil, nil)

	state, err := panel.Submit(context.Background(), 10)
	require.Error(t, err)
	assert.True(t, appErrors.IsNetwork(err))
	assert.Equal(t, PhaseFailed, state.Phase)
	assert.Equal(t, "Error: connection refused", state.Message)
}

func TestPanelRejectsSubmitWhileLoading(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	backend := newFakeBackend()
	backend.generateFn = func(int) (*models.APIResponse, error) {
		close(entered)
		<-release
		return &models.APIResponse{Success: true}, nil
	}
	panel := NewGeneratePanel(backend, nil, 10, nil, nil)

	done := make(chan error, 1)
	go func() {
		_, err := panel.Submit(context.Background(), 10)
		done <- err
	}()
	<-entered
	assert.True(t, panel.State().IsLoading())
	assert.Empty(t, panel.State().Message)

	_, err := panel.Submit(context.Background(), 10)
	assert.ErrorIs(t, err, appErrors.ErrConflict)
	_, err = panel.Submit(context.Background(), 0)
	assert.ErrorIs(t, err, appErrors.ErrConflict)
	assert.True(t, panel.State().IsLoading())

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, backend.count("generate"))
}

func TestProcessPanelSelection(t *testing.T) {
	backend := newFakeBackend()
	panel := NewProcessPanel(backend, nil, nil)

	state, err := panel.Select(models.FileUpload{Name: "students.csv"})
	require.Error(t, err)
	assert.Equal(t, "Please select an Excel file (.xlsx)", state.Message)
	assert.Empty(t, panel.Selected())

	state, err = panel.Submit(context.Background())
	require.Error(t, err)
	assert.True(t, appErrors.IsValidation(err))
	assert.Equal(t, "Please select an Excel file first", state.Message)
	assert.Zero(t, backend.count("process"))

	state, err = panel.Select(models.FileUpload{Name: "Students.XLSX", Content: []byte("wb")})
	require.NoError(t, err)
	assert.Equal(t, PhaseIdle, state.Phase)
	assert.Equal(t, "Students.XLSX", panel.Selected())
}

func TestProcessPanelSubmit(t *testing.T) {
	backend := newFakeBackend()
	backend.processFn = func(file models.FileUpload) (*models.APIResponse, error) {
		assert.Equal(t, "students.xlsx", file.Name)
		return &models.APIResponse{Success: true, FileName: stringPtr("students.csv"), ProcessingTimeMs: int64Ptr(42)}, nil
	}
	panel := NewProcessPanel(backend, nil, nil)

	_, err := panel.Select(models.FileUpload{Name: "students.xlsx"})
	require.NoError(t, err)
	state, err := panel.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Success! Processed to CSV. File: students.csv. Time: 42ms", state.Message)
}

func TestUploadPanelPublishesOnSuccessOnly(t *testing.T) {
	backend := newFakeBackend()
	panel := NewUploadPanel(backend, nil, nil)

	var events []Event
	panel.Subscribe(func(ctx context.Context, ev Event) { events = append(events, ev) })

	_, err := panel.Select(models.FileUpload{Name: "students.xlsx"})
	require.Error(t, err)
	assert.Equal(t, "Please select a CSV file (.csv)", panel.State().Message)

	_, err = panel.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Please select a CSV file first", panel.State().Message)
	assert.Empty(t, events)

	backend.uploadFn = func(models.FileUpload) (*models.APIResponse, error) {
		return nil, appErrors.Server(500, "")
	}
	_, err = panel.Select(models.FileUpload{Name: "students.csv"})
	require.NoError(t, err)
	_, err = panel.Submit(context.Background())
	require.Error(t, err)
	assert.Empty(t, events)

	backend.uploadFn = func(models.FileUpload) (*models.APIResponse, error) {
		return &models.APIResponse{Success: true, RecordCount: int64Ptr(1500), ProcessingTimeMs: int64Ptr(90)}, nil
	}
	state, err := panel.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Success! Uploaded 1,500 records in 90ms", state.Message)
	require.Len(t, events, 1)
	assert.Equal(t, EventUploaded, events[0].Kind)
	assert.Equal(t, int64(1500), events[0].RecordCount)
}

func TestUploadPanelClearRequiresConfirmation(t *testing.T) {
	backend := newFakeBackend()
	panel := NewUploadPanel(backend, nil, nil)

	var events []Event
	panel.Subscribe(func(ctx context.Context, ev Event) { events = append(events, ev) })

	state, err := panel.Clear(context.Background(), false)
	assert.ErrorIs(t, err, appErrors.ErrConfirmationRequired)
	assert.Equal(t, PhaseIdle, state.Phase)
	assert.Zero(t, backend.count("clear"))

	state, err = panel.Clear(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, "Database cleared successfully", state.Message)
	require.Len(t, events, 1)
	assert.Equal(t, EventCleared, events[0].Kind)
}

func TestUploadPanelClearFailure(t *testing.T) {
	backend := newFakeBackend()
	backend.clearFn = func() (*models.APIResponse, error) {
		return nil, appErrors.Server(500, "locked")
	}
	panel := NewUploadPanel(backend, nil, nil)

	state, err := panel.Clear(context.Background(), true)
	require.Error(t, err)
	assert.Equal(t, "Error clearing database: locked", state.Message)
}

func TestUploadPanelClearUnsuccessfulResponse(t *testing.T) {
	backend := newFakeBackend()
	backend.clearFn = func() (*models.APIResponse, error) {
		return &models.APIResponse{Success: false, Message: "clear refused"}, nil
	}
	panel := NewUploadPanel(backend, nil, nil)

	var events []Event
	panel.Subscribe(func(ctx context.Context, ev Event) { events = append(events, ev) })

	state, err := panel.Clear(context.Background(), true)
	require.Error(t, err)
	assert.True(t, appErrors.IsServer(err))
	assert.Equal(t, PhaseFailed, state.Phase)
	assert.Equal(t, "clear refused", state.Message)
	assert.Empty(t, events)
}
