package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/student-console/internal/client"
	"github.com/noah-isme/student-console/internal/models"
	"github.com/noah-isme/student-console/internal/viewmodel"
	"github.com/noah-isme/student-console/pkg/config"
	"github.com/noah-isme/student-console/pkg/logger"
	"github.com/noah-isme/student-console/pkg/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := &app{}
	if err := newRootCmd(a).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if a.logr != nil {
		_ = a.logr.Sync()
	}
}

// app carries what every command needs. Fields left nil are resolved from
// pkg/config before the first command runs.
type app struct {
	cfg  *config.Config
	api  *client.Client
	logr *zap.Logger
}

func newRootCmd(a *app) *cobra.Command {
	var (
		baseURL string
		timeout time.Duration
		verbose bool
	)

	root := &cobra.Command{
		Use:           "studentctl",
		Short:         "Drive the student-data backend from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg == nil {
				cfg, err := config.Load()
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				a.cfg = cfg
			}
			if cmd.Flags().Changed("base-url") {
				a.cfg.Backend.BaseURL = baseURL
			}
			if cmd.Flags().Changed("timeout") {
				a.cfg.Backend.Timeout = timeout
			}

			if a.logr == nil {
				a.logr = zap.NewNop()
				if verbose {
					a.cfg.Log = config.LogConfig{Level: "debug", Format: "console"}
					l, err := logger.New(a.cfg)
					if err != nil {
						return fmt.Errorf("init logger: %w", err)
					}
					a.logr = l
				}
			}
			if a.api == nil {
				a.api = client.New(client.Config{BaseURL: a.cfg.Backend.BaseURL, Timeout: a.cfg.Backend.Timeout}, nil, a.logr)
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&baseURL, "base-url", "", "Backend API base URL (default BACKEND_BASE_URL)")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 0, "HTTP client timeout (default BACKEND_TIMEOUT)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log backend calls")

	root.AddCommand(
		newGenerateCmd(a),
		newFileTaskCmd(a, "process", "Convert an Excel workbook to CSV", func() fileTask {
			return viewmodel.NewProcessPanel(a.api, nil, a.logr)
		}),
		newFileTaskCmd(a, "upload", "Load a CSV file into the database", func() fileTask {
			return viewmodel.NewUploadPanel(a.api, nil, a.logr)
		}),
		newClearCmd(a),
		newCountCmd(a),
		newClassesCmd(a),
		newReportCmd(a),
		newExportCmd(a),
	)
	return root
}

func newGenerateCmd(a *app) *cobra.Command {
	var records int

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate student records into an Excel file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("records") && a.cfg.Generate.DefaultRecordCount > 0 {
				records = a.cfg.Generate.DefaultRecordCount
			}
			panel := viewmodel.NewGeneratePanel(a.api, nil, records, nil, a.logr)
			return printPanel(cmd, func() (viewmodel.PanelState, error) { return panel.Submit(cmd.Context(), records) })
		},
	}

	cmd.Flags().IntVarP(&records, "records", "n", 1000000, "Number of records (default GENERATE_DEFAULT_RECORDS)")
	return cmd
}

// fileTask is a panel that takes a selected file and submits it.
type fileTask interface {
	Select(file models.FileUpload) (viewmodel.PanelState, error)
	Submit(ctx context.Context) (viewmodel.PanelState, error)
}

func newFileTaskCmd(a *app, use, short string, newPanel func() fileTask) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <file>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := readUpload(args[0])
			if err != nil {
				return err
			}
			panel := newPanel()
			if state, err := panel.Select(file); err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), state.Message)
				return err
			}
			return printPanel(cmd, func() (viewmodel.PanelState, error) { return panel.Submit(cmd.Context()) })
		},
	}
}

func newClearCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every persisted student",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			panel := viewmodel.NewUploadPanel(a.api, nil, a.logr)
			return printPanel(cmd, func() (viewmodel.PanelState, error) { return panel.Clear(cmd.Context(), yes) })
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deletion of every student")
	return cmd
}

func newCountCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the persisted student count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := a.api.StudentCount(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), count)
			return nil
		},
	}
}

func newClassesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "classes",
		Short: "Print the distinct student classes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			classes, err := a.api.AvailableClasses(cmd.Context())
			if err != nil {
				return err
			}
			for _, class := range classes {
				fmt.Fprintln(cmd.OutOrStdout(), class)
			}
			return nil
		},
	}
}

func newReportCmd(a *app) *cobra.Command {
	var (
		page   int
		size   int
		filter models.ReportFilter
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print one page of the student report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := models.NewReportQuery()
			q.Page, q.Filter = page, filter
			q.Size = size
			if !cmd.Flags().Changed("size") && a.cfg.Report.PageSize > 0 {
				q.Size = a.cfg.Report.PageSize
			}
			result, err := a.api.StudentReport(cmd.Context(), q)
			if err != nil {
				return err
			}
			return printReport(cmd, result)
		},
	}

	cmd.Flags().IntVar(&page, "page", 0, "Zero-based page")
	cmd.Flags().IntVar(&size, "size", models.DefaultPageSize, "Page size (default REPORT_PAGE_SIZE)")
	addFilterFlags(cmd, &filter)
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var (
		rawFormat string
		outDir    string
		filter    models.ReportFilter
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the report and save it into a directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := models.ParseExportFormat(rawFormat)
			if err != nil {
				return err
			}
			store, err := storage.NewLocalStorage(outDir)
			if err != nil {
				return err
			}
			blob, err := a.api.Export(cmd.Context(), format, filter)
			if err != nil {
				return fmt.Errorf("Failed to export %s: %w", format.Label(), err)
			}
			if _, err := store.Save(blob.Filename, blob.Data); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s (%d bytes)\n", store.Path(blob.Filename), len(blob.Data))
			return nil
		},
	}

	cmd.Flags().StringVar(&rawFormat, "format", "excel", "excel, csv or pdf")
	cmd.Flags().StringVar(&outDir, "out", ".", "Directory the export is saved into")
	addFilterFlags(cmd, &filter)
	return cmd
}

func addFilterFlags(cmd *cobra.Command, filter *models.ReportFilter) {
	cmd.Flags().Int64Var(&filter.StudentID, "student-id", 0, "Filter by student id")
	cmd.Flags().StringVar(&filter.StudentClass, "class", "", "Filter by student class")
}

func readUpload(path string) (models.FileUpload, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return models.FileUpload{}, err
	}
	return models.FileUpload{Name: filepath.Base(path), Content: content}, nil
}

func printPanel(cmd *cobra.Command, submit func() (viewmodel.PanelState, error)) error {
	state, err := submit()
	if state.Message != "" {
		fmt.Fprintln(cmd.OutOrStdout(), state.Message)
	}
	return err
}

func printReport(cmd *cobra.Command, page *models.PagedResponse[models.Student]) error {
	out := cmd.OutOrStdout()
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFIRST NAME\tLAST NAME\tDOB\tCLASS\tSCORE")
	for _, s := range page.Content {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%.2f\n", s.StudentID, s.FirstName, s.LastName, s.DOB, strings.TrimSpace(s.StudentClass), s.Score)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "page %d of %d, %d students\n", page.PageNumber+1, page.TotalPages, page.TotalElements)
	return nil
}
