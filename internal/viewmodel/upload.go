package viewmodel

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/student-console/internal/models"
	appErrors "github.com/noah-isme/student-console/pkg/errors"
)

// StudentStore is the backend surface behind the upload panel.
type StudentStore interface {
	UploadCSV(ctx context.Context, file models.FileUpload) (*models.APIResponse, error)
	ClearStudents(ctx context.Context) (*models.APIResponse, error)
}

// UploadPanel loads a CSV file into the backend database and can clear it.
// Both operations publish an Event once the backend confirmed the change.
type UploadPanel struct {
	filePanel
	broadcaster
	api    StudentStore
	logger *zap.Logger
}

// NewUploadPanel constructs the panel.
func NewUploadPanel(api StudentStore, notifier Notifier, logger *zap.Logger) *UploadPanel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UploadPanel{
		filePanel: newFilePanel("upload", ".csv",
			"Please select a CSV file (.csv)",
			"Please select a CSV file first",
			notifier),
		api:    api,
		logger: logger,
	}
}

// Submit uploads the selected CSV file.
func (p *UploadPanel) Submit(ctx context.Context) (PanelState, error) {
	file, state, err := p.beginWithSelection()
	if err != nil {
		return state, err
	}

	resp, err := p.api.UploadCSV(ctx, file)
	if err != nil {
		p.logger.Warn("upload failed", zap.String("file", file.Name), zap.Error(err))
		state := p.settle(Failed(failure(err, "Failed to upload CSV")))
		return state, state.Err()
	}
	if !resp.Success {
		state := p.settle(Failed(appErrors.Clone(appErrors.ErrServer, resp.Message)))
		return state, state.Err()
	}

	records := derefInt(resp.RecordCount)
	msg := fmt.Sprintf("Success! Uploaded %s records in %dms", groupInt(records), derefInt(resp.ProcessingTimeMs))
	state = p.settle(Succeeded(msg))
	p.logger.Info("students uploaded", zap.String("file", file.Name), zap.Int64("records", records))
	p.publish(ctx, Event{Kind: EventUploaded, RecordCount: records})
	return state, nil
}

// Clear deletes every persisted student. Without confirmed it does nothing
// and reports that a confirmation is required.
func (p *UploadPanel) Clear(ctx context.Context, confirmed bool) (PanelState, error) {
	if !confirmed {
		return p.State(), appErrors.ErrConfirmationRequired
	}
	if err := p.begin(); err != nil {
		return p.State(), err
	}

	resp, err := p.api.ClearStudents(ctx)
	if err != nil {
		p.logger.Warn("clear students failed", zap.Error(err))
		appErr := appErrors.FromError(err)
		state := p.settle(Failed(appErrors.Clone(appErr, "Error clearing database: "+appErr.Message)))
		return state, state.Err()
	}
	if !resp.Success {
		p.logger.Warn("clear students refused", zap.String("message", resp.Message))
		state := p.settle(Failed(appErrors.Clone(appErrors.ErrServer, resp.Message)))
		return state, state.Err()
	}

	state := p.settle(Succeeded("Database cleared successfully"))
	p.logger.Info("students cleared")
	p.publish(ctx, Event{Kind: EventCleared})
	return state, nil
}
