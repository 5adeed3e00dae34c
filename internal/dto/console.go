package dto

import "github.com/noah-isme/student-console/internal/models"

// GenerateRequest captures POST /generate payload. A missing recordCount
// falls back to the configured default.
type GenerateRequest struct {
	RecordCount *int `json:"recordCount"`
}

// SearchRequest captures POST /report/search payload.
type SearchRequest struct {
	StudentID    *int64 `json:"studentId" validate:"omitempty,min=1"`
	StudentClass string `json:"studentClass" validate:"max=64"`
}

// Filter converts the payload into a report filter.
func (r SearchRequest) Filter() models.ReportFilter {
	filter := models.ReportFilter{StudentClass: r.StudentClass}
	if r.StudentID != nil {
		filter.StudentID = *r.StudentID
	}
	return filter
}

// CountResponse is returned by GET /students/count.
type CountResponse struct {
	StudentCount int64 `json:"studentCount"`
}

// ClassesResponse is returned by GET /report/classes.
type ClassesResponse struct {
	Classes []string `json:"classes"`
}
