package models

import (
	"fmt"
	"strings"
)

const (
	DefaultPageSize  = 20
	DefaultSortBy    = "studentId"
	DefaultSortOrder = "asc"
)

// ReportFilter narrows the report and its exports. Zero values mean "unset".
type ReportFilter struct {
	StudentID    int64  `json:"studentId,omitempty"`
	StudentClass string `json:"studentClass,omitempty"`
}

// IsEmpty reports whether no filter is set.
func (f ReportFilter) IsEmpty() bool {
	return f.StudentID == 0 && f.StudentClass == ""
}

// ReportQuery is the full query sent to GET /report.
type ReportQuery struct {
	Page      int
	Size      int
	Filter    ReportFilter
	SortBy    string
	SortOrder string
}

// NewReportQuery returns the query a freshly opened report starts with.
func NewReportQuery() ReportQuery {
	return ReportQuery{Page: 0, Size: DefaultPageSize, SortBy: DefaultSortBy, SortOrder: DefaultSortOrder}
}

// ExportFormat is one of the report export renderings offered by the backend.
type ExportFormat string

const (
	ExportExcel ExportFormat = "excel"
	ExportCSV   ExportFormat = "csv"
	ExportPDF   ExportFormat = "pdf"
)

var exportMeta = map[ExportFormat]struct {
	label       string
	extension   string
	contentType string
}{
	ExportExcel: {"Excel", ".xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
	ExportCSV:   {"CSV", ".csv", "text/csv"},
	ExportPDF:   {"PDF", ".pdf", "application/pdf"},
}

// ParseExportFormat validates a path/flag value.
func ParseExportFormat(raw string) (ExportFormat, error) {
	format := ExportFormat(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := exportMeta[format]; !ok {
		return "", fmt.Errorf("unsupported export format %q", raw)
	}
	return format, nil
}

// Label is the human name used in messages.
func (f ExportFormat) Label() string {
	return exportMeta[f].label
}

// Filename is the name a saved export gets.
func (f ExportFormat) Filename() string {
	return "students_report" + exportMeta[f].extension
}

// ContentType is the MIME type of the rendered export.
func (f ExportFormat) ContentType() string {
	return exportMeta[f].contentType
}

// ContentTypeForFilename maps a saved export name back to its MIME type.
func ContentTypeForFilename(name string) string {
	lower := strings.ToLower(name)
	for _, meta := range exportMeta {
		if strings.HasSuffix(lower, meta.extension) {
			return meta.contentType
		}
	}
	return "application/octet-stream"
}

// Blob is an opaque binary payload returned by an export endpoint.
type Blob struct {
	Data        []byte
	ContentType string
	Filename    string
}
