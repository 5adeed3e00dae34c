package handler

import (
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/student-console/internal/dto"
	"github.com/noah-isme/student-console/internal/middleware"
	"github.com/noah-isme/student-console/internal/models"
	"github.com/noah-isme/student-console/internal/service"
	"github.com/noah-isme/student-console/internal/viewmodel"
	appErrors "github.com/noah-isme/student-console/pkg/errors"
	"github.com/noah-isme/student-console/pkg/response"
)

type downloadService interface {
	Stage(blob *models.Blob) (*service.StagedDownload, error)
	Deliver(token string, write service.DeliverFunc) error
}

// ReportHandler exposes the paginated student report, its exports and the
// staged download endpoint.
type ReportHandler struct {
	console   *viewmodel.Console
	downloads downloadService
	validate  *validator.Validate
}

// NewReportHandler constructs handler.
func NewReportHandler(console *viewmodel.Console, downloads downloadService, validate *validator.Validate) *ReportHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &ReportHandler{console: console, downloads: downloads, validate: validate}
}

// Get godoc
// @Summary Current report page
// @Tags Report
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /report [get]
func (h *ReportHandler) Get(c *gin.Context) {
	h.respond(c, h.console.Report.State(), nil)
}

// Search godoc
// @Summary Filter the report and reload page 0
// @Tags Report
// @Accept json
// @Produce json
// @Param payload body dto.SearchRequest true "Filter"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /report/search [post]
func (h *ReportHandler) Search(c *gin.Context) {
	var req dto.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Validation("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(c, appErrors.Validation("studentId must be a positive number"))
		return
	}
	state, err := h.console.Report.Search(c.Request.Context(), req.Filter())
	h.respond(c, state, err)
}

// ClearFilters godoc
// @Summary Drop the report filter and reload page 0
// @Tags Report
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /report/clear-filters [post]
func (h *ReportHandler) ClearFilters(c *gin.Context) {
	state, err := h.console.Report.ClearFilters(c.Request.Context())
	h.respond(c, state, err)
}

// GoToPage godoc
// @Summary Show a specific report page
// @Description Out of range pages are ignored; meta.accepted reports whether a fetch was issued.
// @Tags Report
// @Produce json
// @Param page path int true "Zero-based page number"
// @Success 200 {object} response.Envelope
// @Router /report/pages/{page} [post]
func (h *ReportHandler) GoToPage(c *gin.Context) {
	page, err := strconv.Atoi(c.Param("page"))
	if err != nil {
		response.Error(c, appErrors.Validation("page must be a number"))
		return
	}
	state, accepted, err := h.console.Report.GoToPage(c.Request.Context(), page)
	middleware.SetMeta(c, "accepted", accepted)
	h.respond(c, state, err)
}

// NextPage godoc
// @Summary Show the next report page
// @Tags Report
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /report/next [post]
func (h *ReportHandler) NextPage(c *gin.Context) {
	state, accepted, err := h.console.Report.NextPage(c.Request.Context())
	middleware.SetMeta(c, "accepted", accepted)
	h.respond(c, state, err)
}

// PreviousPage godoc
// @Summary Show the previous report page
// @Tags Report
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /report/previous [post]
func (h *ReportHandler) PreviousPage(c *gin.Context) {
	state, accepted, err := h.console.Report.PreviousPage(c.Request.Context())
	middleware.SetMeta(c, "accepted", accepted)
	h.respond(c, state, err)
}

// Classes godoc
// @Summary Refresh and return the distinct student classes
// @Tags Report
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /report/classes [get]
func (h *ReportHandler) Classes(c *gin.Context) {
	classes, err := h.console.LoadClasses(c.Request.Context())
	response.State(c, dto.ClassesResponse{Classes: classes}, err)
}

// Export godoc
// @Summary Export the filtered report
// @Description Renders the report with the current filter and stages it for a single download.
// @Tags Report
// @Produce json
// @Param format path string true "excel, csv or pdf"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /report/export/{format} [post]
func (h *ReportHandler) Export(c *gin.Context) {
	format, err := models.ParseExportFormat(c.Param("format"))
	if err != nil {
		response.Error(c, appErrors.Validation(err.Error()))
		return
	}
	blob, err := h.console.Report.Export(c.Request.Context(), format)
	if err != nil {
		_ = c.Error(err)
		response.Error(c, err)
		return
	}
	staged, err := h.downloads.Stage(blob)
	if err != nil {
		_ = c.Error(err)
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stage download"))
		return
	}
	response.JSON(c, http.StatusOK, staged, nil)
}

// Download godoc
// @Summary Fetch a staged export
// @Description The file is removed once it has been streamed, so every token works once.
// @Tags Report
// @Produce octet-stream
// @Param token path string true "Download token"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /downloads/{token} [get]
func (h *ReportHandler) Download(c *gin.Context) {
	err := h.downloads.Deliver(c.Param("token"), func(file *os.File, filename, contentType string) error {
		info, err := file.Stat()
		if err != nil {
			return err
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
		c.Header("Cache-Control", "no-store")
		c.DataFromReader(http.StatusOK, info.Size(), contentType, file, nil)
		return nil
	})
	if err != nil {
		_ = c.Error(err)
		if !c.Writer.Written() {
			response.Error(c, err)
		}
	}
}

func (h *ReportHandler) respond(c *gin.Context, state viewmodel.ReportState, err error) {
	pagination := &models.Pagination{
		Page:          state.Page,
		PageSize:      state.Size,
		TotalElements: state.TotalElements,
		TotalPages:    state.TotalPages,
	}
	if err != nil {
		_ = c.Error(err)
		response.State(c, state, err)
		return
	}
	response.JSON(c, http.StatusOK, state, pagination, middleware.ExtractMeta(c))
}
