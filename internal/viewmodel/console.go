package viewmodel

import (
	"context"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Backend is every backend operation the console drives.
type Backend interface {
	Generator
	SpreadsheetProcessor
	StudentStore
	ReportSource
	StudentCount(ctx context.Context) (int64, error)
}

// ClassLister serves the class list and forgets it when students change.
type ClassLister interface {
	AvailableClasses(ctx context.Context) ([]string, error)
	Invalidate(ctx context.Context) error
}

// Options tune the initial console state.
type Options struct {
	DefaultRecordCount int
	PageSize           int
	SortBy             string
	SortOrder          string
}

// ConsoleState is the full snapshot handed to the presentation layer.
type ConsoleState struct {
	Generate           PanelState  `json:"generate"`
	DefaultRecordCount int         `json:"defaultRecordCount"`
	Process            PanelState  `json:"process"`
	ProcessFile        string      `json:"processFile,omitempty"`
	Upload             PanelState  `json:"upload"`
	UploadFile         string      `json:"uploadFile,omitempty"`
	StudentCount       int64       `json:"studentCount"`
	Classes            []string    `json:"classes"`
	Report             ReportState `json:"report"`
}

// Console composes the task panels, the report and the student statistics.
// A successful upload or clear refreshes the statistics and the report.
type Console struct {
	Generate *GeneratePanel
	Process  *ProcessPanel
	Upload   *UploadPanel
	Report   *Report

	api      Backend
	classes  ClassLister
	notifier Notifier
	logger   *zap.Logger

	mu           sync.RWMutex
	studentCount int64
	classList    []string
}

// NewConsole wires the panels together and subscribes to upload events.
func NewConsole(api Backend, classes ClassLister, validate *validator.Validate, opts Options, notifier Notifier, logger *zap.Logger) *Console {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Console{
		Generate:  NewGeneratePanel(api, validate, opts.DefaultRecordCount, notifier, logger),
		Process:   NewProcessPanel(api, notifier, logger),
		Upload:    NewUploadPanel(api, notifier, logger),
		Report:    NewReport(api, opts.PageSize, opts.SortBy, opts.SortOrder, notifier, logger),
		api:       api,
		classes:   classes,
		notifier:  notifier,
		logger:    logger.Named("console"),
		classList: []string{},
	}
	c.Upload.Subscribe(c.onStudentsChanged)
	return c
}

// Init loads the count, the class list and the first report page
// concurrently. Every load is attempted; the first failure is returned.
func (c *Console) Init(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error {
		_, err := c.LoadCount(ctx)
		return err
	})
	g.Go(func() error {
		_, err := c.LoadClasses(ctx)
		return err
	})
	g.Go(func() error {
		_, err := c.Report.Load(ctx)
		return err
	})
	return g.Wait()
}

// LoadCount refreshes the student count. On failure the previous value is kept.
func (c *Console) LoadCount(ctx context.Context) (int64, error) {
	count, err := c.api.StudentCount(ctx)
	if err != nil {
		c.logger.Warn("error loading student count", zap.Error(err))
		return c.StudentCount(), err
	}

	c.mu.Lock()
	c.studentCount = count
	c.mu.Unlock()
	c.notifier.Notify("stats")
	return count, nil
}

// LoadClasses refreshes the class list. On failure the previous list is kept.
func (c *Console) LoadClasses(ctx context.Context) ([]string, error) {
	classes, err := c.classes.AvailableClasses(ctx)
	if err != nil {
		c.logger.Warn("error loading classes", zap.Error(err))
		return c.Classes(), err
	}
	if classes == nil {
		classes = []string{}
	}

	c.mu.Lock()
	c.classList = classes
	c.mu.Unlock()
	c.notifier.Notify("stats")
	return c.Classes(), nil
}

// StudentCount returns the last loaded count.
func (c *Console) StudentCount() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.studentCount
}

// Classes returns a copy of the last loaded class list.
func (c *Console) Classes() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.classList))
	copy(out, c.classList)
	return out
}

// State returns a full snapshot.
func (c *Console) State() ConsoleState {
	return ConsoleState{
		Generate:           c.Generate.State(),
		DefaultRecordCount: c.Generate.DefaultRecordCount(),
		Process:            c.Process.State(),
		ProcessFile:        c.Process.Selected(),
		Upload:             c.Upload.State(),
		UploadFile:         c.Upload.Selected(),
		StudentCount:       c.StudentCount(),
		Classes:            c.Classes(),
		Report:             c.Report.State(),
	}
}

func (c *Console) onStudentsChanged(ctx context.Context, ev Event) {
	var g errgroup.Group
	g.Go(func() error {
		_, err := c.LoadCount(ctx)
		return err
	})
	g.Go(func() error {
		_, err := c.Report.Load(ctx)
		return err
	})

	g.Go(func() error {
		if err := c.classes.Invalidate(ctx); err != nil {
			c.logger.Debug("class cache not invalidated", zap.Error(err))
		}
		_, err := c.LoadClasses(ctx)
		return err
	})

	if err := g.Wait(); err != nil {
		c.logger.Warn("refresh after student change incomplete",
			zap.String("event", string(ev.Kind)), zap.Error(err))
	}
}
