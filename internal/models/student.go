package models

// Student is a record persisted by the backend. The console never mutates it.
type Student struct {
	StudentID    int64   `json:"studentId"`
	FirstName    string  `json:"firstName"`
	LastName     string  `json:"lastName"`
	DOB          string  `json:"dob"`
	StudentClass string  `json:"studentClass"`
	Score        float64 `json:"score"`
}

// PagedResponse is one page of a server-side paginated listing.
type PagedResponse[T any] struct {
	Content       []T   `json:"content"`
	PageNumber    int   `json:"pageNumber"`
	PageSize      int   `json:"pageSize"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	First         bool  `json:"first"`
	Last          bool  `json:"last"`
}

// APIResponse is the outcome envelope of the backend's task endpoints.
type APIResponse struct {
	Success          bool    `json:"success"`
	Message          string  `json:"message"`
	FileName         *string `json:"fileName,omitempty"`
	RecordCount      *int64  `json:"recordCount,omitempty"`
	ProcessingTimeMs *int64  `json:"processingTimeMs,omitempty"`
}

// GenerateRequest is the body of POST /generate.
type GenerateRequest struct {
	RecordCount int `json:"recordCount" validate:"min=1"`
}

// FileUpload is a file picked for one of the upload-style panels.
type FileUpload struct {
	Name    string
	Content []byte
}

// Pagination summarises a report page for the console response envelope.
type Pagination struct {
	Page          int   `json:"page"`
	PageSize      int   `json:"page_size"`
	TotalElements int64 `json:"total_elements"`
	TotalPages    int   `json:"total_pages"`
}
