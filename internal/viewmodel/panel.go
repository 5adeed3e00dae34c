// Package viewmodel holds the console's UI state: three independent task
// panels, the paginated report and the aggregate that wires them together.
// Every type is safe for concurrent use; network calls never run under a lock.
package viewmodel

import (
	"sync"

	appErrors "github.com/noah-isme/student-console/pkg/errors"
)

// Phase is the tag of a panel's state.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseLoading   Phase = "loading"
	PhaseSucceeded Phase = "succeeded"
	PhaseFailed    Phase = "failed"
)

// PanelState is the tagged union {Idle, Loading, Settled(success|error)}.
// Build it only through Idle, Loading, Succeeded and Failed.
type PanelState struct {
	Phase   Phase            `json:"phase"`
	Message string           `json:"message,omitempty"`
	Error   *appErrors.Error `json:"error,omitempty"`
}

func Idle() PanelState    { return PanelState{Phase: PhaseIdle} }
func Loading() PanelState { return PanelState{Phase: PhaseLoading} }

// Succeeded settles a panel with a user-facing success message.
func Succeeded(message string) PanelState {
	return PanelState{Phase: PhaseSucceeded, Message: message}
}

// Failed settles a panel with err; Message mirrors the error text.
func Failed(err *appErrors.Error) PanelState {
	if err == nil {
		err = appErrors.ErrInternal
	}
	return PanelState{Phase: PhaseFailed, Message: err.Message, Error: err}
}

// IsLoading reports whether an operation is in flight.
func (s PanelState) IsLoading() bool { return s.Phase == PhaseLoading }

// Err returns the settled error, or nil.
func (s PanelState) Err() error {
	if s.Error == nil {
		return nil
	}
	return s.Error
}

// Notifier is told which component changed so the presentation can re-render.
type Notifier interface {
	Notify(component string)
}

type nopNotifier struct{}

func (nopNotifier) Notify(string) {}

// panel is the state cell shared by the task panels.
type panel struct {
	name     string
	notifier Notifier

	mu    sync.Mutex
	state PanelState
}

func newPanel(name string, notifier Notifier) panel {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return panel{name: name, notifier: notifier, state: Idle()}
}

// State returns the current panel state.
func (p *panel) State() PanelState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// begin moves the panel to Loading. It fails with a conflict when an
// operation is already in flight.
func (p *panel) begin() error {
	p.mu.Lock()
	if p.state.IsLoading() {
		p.mu.Unlock()
		return appErrors.ErrConflict
	}
	p.state = Loading()
	p.mu.Unlock()
	p.notifier.Notify(p.name)
	return nil
}

func (p *panel) settle(state PanelState) PanelState {
	p.mu.Lock()
	p.state = state
	p.mu.Unlock()
	p.notifier.Notify(p.name)
	return state
}

// reject settles a validation failure without entering Loading. An
// operation in flight is not interrupted; the caller gets a conflict instead.
func (p *panel) reject(err *appErrors.Error) (PanelState, error) {
	p.mu.Lock()
	if p.state.IsLoading() {
		state := p.state
		p.mu.Unlock()
		return state, appErrors.ErrConflict
	}
	p.state = Failed(err)
	state := p.state
	p.mu.Unlock()
	p.notifier.Notify(p.name)
	return state, state.Err()
}

// failure turns a backend error into the settled message "Error: <msg>".
func failure(err error, fallback string) *appErrors.Error {
	appErr := appErrors.FromError(err)
	msg := appErr.Message
	if appErr.Code == appErrors.ErrInternal.Code || msg == "" {
		msg = fallback
	}
	return appErrors.Clone(appErr, "Error: "+msg)
}
