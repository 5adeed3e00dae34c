package viewmodel

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/student-console/internal/models"
	appErrors "github.com/noah-isme/student-console/pkg/errors"
)

const msgInvalidRecordCount = "Please enter a valid number of records (minimum 1)"

// Generator is the backend operation behind the generate panel.
type Generator interface {
	Generate(ctx context.Context, recordCount int) (*models.APIResponse, error)
}

// GeneratePanel asks the backend to synthesise student records.
type GeneratePanel struct {
	panel
	api          Generator
	validate     *validator.Validate
	logger       *zap.Logger
	defaultCount int
}

// NewGeneratePanel constructs the panel. defaultCount pre-fills the form.
func NewGeneratePanel(api Generator, validate *validator.Validate, defaultCount int, notifier Notifier, logger *zap.Logger) *GeneratePanel {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeneratePanel{
		panel:        newPanel("generate", notifier),
		api:          api,
		validate:     validate,
		logger:       logger,
		defaultCount: defaultCount,
	}
}

// DefaultRecordCount is the value the form starts with.
func (p *GeneratePanel) DefaultRecordCount() int {
	return p.defaultCount
}

// Submit validates recordCount and, when valid, asks the backend to generate.
// Invalid input settles the panel as failed without any network call.
func (p *GeneratePanel) Submit(ctx context.Context, recordCount int) (PanelState, error) {
	req := models.GenerateRequest{RecordCount: recordCount}
	if err := p.validate.Struct(req); err != nil {
		return p.reject(appErrors.Validation(msgInvalidRecordCount))
	}
	if err := p.begin(); err != nil {
		return p.State(), err
	}

	resp, err := p.api.Generate(ctx, recordCount)
	if err != nil {
		p.logger.Warn("generate failed", zap.Int("record_count", recordCount), zap.Error(err))
		state := p.settle(Failed(failure(err, "Failed to generate Excel")))
		return state, state.Err()
	}
	if !resp.Success {
		state := p.settle(Failed(appErrors.Clone(appErrors.ErrServer, resp.Message)))
		return state, state.Err()
	}

	msg := fmt.Sprintf("Success! Generated %s records in %dms. File: %s",
		groupInt(derefInt(resp.RecordCount)), derefInt(resp.ProcessingTimeMs), derefString(resp.FileName))
	return p.settle(Succeeded(msg)), nil
}
