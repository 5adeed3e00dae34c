package viewmodel

import (
	"path/filepath"
	"strings"

	"github.com/noah-isme/student-console/internal/models"
	appErrors "github.com/noah-isme/student-console/pkg/errors"
)

// filePanel adds a single selected file to a panel. The selection is
// checked against the expected extension before it is kept.
type filePanel struct {
	panel
	extension    string
	msgWrongType string
	msgNoFile    string

	selected *models.FileUpload
}

func newFilePanel(name, extension, msgWrongType, msgNoFile string, notifier Notifier) filePanel {
	return filePanel{
		panel:        newPanel(name, notifier),
		extension:    extension,
		msgWrongType: msgWrongType,
		msgNoFile:    msgNoFile,
	}
}

// Select keeps file when its extension matches; otherwise the selection is
// cleared and the panel settles with a validation error.
func (p *filePanel) Select(file models.FileUpload) (PanelState, error) {
	if strings.TrimSpace(file.Name) == "" {
		p.clearSelection()
		return p.reject(appErrors.Validation(p.msgNoFile))
	}
	if !strings.EqualFold(filepath.Ext(file.Name), p.extension) {
		p.clearSelection()
		return p.reject(appErrors.Validation(p.msgWrongType))
	}

	p.mu.Lock()
	if p.state.IsLoading() {
		state := p.state
		p.mu.Unlock()
		return state, appErrors.ErrConflict
	}
	selected := file
	p.selected = &selected
	if p.state.Phase == PhaseFailed && appErrors.IsValidation(p.state.Err()) {
		p.state = Idle()
	}
	state := p.state
	p.mu.Unlock()
	p.notifier.Notify(p.name)
	return state, nil
}

// Selected returns the name of the selected file, if any.
func (p *filePanel) Selected() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.selected == nil {
		return ""
	}
	return p.selected.Name
}

// beginWithSelection enters Loading and returns the selected file. Without a
// selection the panel settles with a validation error and no call is made.
func (p *filePanel) beginWithSelection() (models.FileUpload, PanelState, error) {
	p.mu.Lock()
	selected := p.selected
	p.mu.Unlock()
	if selected == nil {
		state, err := p.reject(appErrors.Validation(p.msgNoFile))
		return models.FileUpload{}, state, err
	}
	if err := p.begin(); err != nil {
		return models.FileUpload{}, p.State(), err
	}
	return *selected, PanelState{}, nil
}

func (p *filePanel) clearSelection() {
	p.mu.Lock()
	p.selected = nil
	p.mu.Unlock()
}
