package viewmodel

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/student-console/internal/models"
	appErrors "github.com/noah-isme/student-console/pkg/errors"
)

// SpreadsheetProcessor is the backend operation behind the process panel.
type SpreadsheetProcessor interface {
	ProcessSpreadsheet(ctx context.Context, file models.FileUpload) (*models.APIResponse, error)
}

// ProcessPanel sends an .xlsx workbook to the backend for conversion to CSV.
type ProcessPanel struct {
	filePanel
	api    SpreadsheetProcessor
	logger *zap.Logger
}

// NewProcessPanel constructs the panel.
func NewProcessPanel(api SpreadsheetProcessor, notifier Notifier, logger *zap.Logger) *ProcessPanel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProcessPanel{
		filePanel: newFilePanel("process", ".xlsx",
			"Please select an Excel file (.xlsx)",
			"Please select an Excel file first",
			notifier),
		api:    api,
		logger: logger,
	}
}

// Submit converts the selected workbook.
func (p *ProcessPanel) Submit(ctx context.Context) (PanelState, error) {
	file, state, err := p.beginWithSelection()
	if err != nil {
		return state, err
	}

	resp, err := p.api.ProcessSpreadsheet(ctx, file)
	if err != nil {
		p.logger.Warn("process failed", zap.String("file", file.Name), zap.Error(err))
		state := p.settle(Failed(failure(err, "Failed to process Excel")))
		return state, state.Err()
	}
	if !resp.Success {
		state := p.settle(Failed(appErrors.Clone(appErrors.ErrServer, resp.Message)))
		return state, state.Err()
	}

	msg := fmt.Sprintf("Success! Processed to CSV. File: %s. Time: %dms",
		derefString(resp.FileName), derefInt(resp.ProcessingTimeMs))
	return p.settle(Succeeded(msg)), nil
}
