package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/student-console/internal/dto"
	"github.com/noah-isme/student-console/internal/middleware"
	"github.com/noah-isme/student-console/internal/models"
	"github.com/noah-isme/student-console/internal/viewmodel"
	appErrors "github.com/noah-isme/student-console/pkg/errors"
	"github.com/noah-isme/student-console/pkg/response"
)

// ConsoleHandler exposes the task panels and the student statistics.
type ConsoleHandler struct {
	console        *viewmodel.Console
	maxUploadBytes int64
}

// NewConsoleHandler constructs the handler. maxUploadBytes <= 0 disables the size check.
func NewConsoleHandler(console *viewmodel.Console, maxUploadBytes int64) *ConsoleHandler {
	return &ConsoleHandler{console: console, maxUploadBytes: maxUploadBytes}
}

// State godoc
// @Summary Full console snapshot
// @Tags Console
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /state [get]
func (h *ConsoleHandler) State(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.console.State(), nil)
}

// Init godoc
// @Summary Reload count, classes and the current report page
// @Tags Console
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /init [post]
func (h *ConsoleHandler) Init(c *gin.Context) {
	start := time.Now()
	err := h.console.Init(c.Request.Context())
	middleware.Elapsed(c, start)
	h.respond(c, h.console.State(), err)
}

// Generate godoc
// @Summary Generate student records into an Excel file
// @Tags Tasks
// @Accept json
// @Produce json
// @Param payload body dto.GenerateRequest false "Record count"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /generate [post]
func (h *ConsoleHandler) Generate(c *gin.Context) {
	var req dto.GenerateRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Validation("invalid request body"))
			return
		}
	}
	count := h.console.Generate.DefaultRecordCount()
	if req.RecordCount != nil {
		count = *req.RecordCount
	}
	start := time.Now()
	state, err := h.console.Generate.Submit(c.Request.Context(), count)
	middleware.Elapsed(c, start)
	h.respond(c, state, err)
}

// Process godoc
// @Summary Convert an Excel workbook to CSV
// @Description Selects the uploaded file when one is given, then submits the selection.
// @Tags Tasks
// @Accept multipart/form-data
// @Produce json
// @Param file formData file false "Excel workbook (.xlsx)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /process [post]
func (h *ConsoleHandler) Process(c *gin.Context) {
	if !h.selectFile(c, h.console.Process.Select) {
		return
	}
	start := time.Now()
	state, err := h.console.Process.Submit(c.Request.Context())
	middleware.Elapsed(c, start)
	h.respond(c, state, err)
}

// Upload godoc
// @Summary Load a CSV file into the database
// @Description Selects the uploaded file when one is given, then submits the selection. Success refreshes count, classes and report.
// @Tags Tasks
// @Accept multipart/form-data
// @Produce json
// @Param file formData file false "Student CSV (.csv)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /upload [post]
func (h *ConsoleHandler) Upload(c *gin.Context) {
	if !h.selectFile(c, h.console.Upload.Select) {
		return
	}
	start := time.Now()
	state, err := h.console.Upload.Submit(c.Request.Context())
	middleware.Elapsed(c, start)
	h.respond(c, state, err)
}

// ClearStudents godoc
// @Summary Delete every persisted student
// @Tags Tasks
// @Produce json
// @Param confirm query bool true "Must be true"
// @Success 200 {object} response.Envelope
// @Failure 428 {object} response.Envelope
// @Router /students [delete]
func (h *ConsoleHandler) ClearStudents(c *gin.Context) {
	confirmed, _ := strconv.ParseBool(c.Query("confirm"))
	state, err := h.console.Upload.Clear(c.Request.Context(), confirmed)
	h.respond(c, state, err)
}

// StudentCount godoc
// @Summary Refresh and return the persisted student count
// @Tags Console
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /students/count [get]
func (h *ConsoleHandler) StudentCount(c *gin.Context) {
	count, err := h.console.LoadCount(c.Request.Context())
	response.State(c, dto.CountResponse{StudentCount: count}, err)
}

// selectFile reads the optional multipart "file" field into the panel. It
// returns false when a response has already been written.
func (h *ConsoleHandler) selectFile(c *gin.Context, selectFn func(models.FileUpload) (viewmodel.PanelState, error)) bool {
	header, err := c.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return true
		}
		response.Error(c, appErrors.Validation("invalid multipart form"))
		return false
	}
	if h.maxUploadBytes > 0 && header.Size > h.maxUploadBytes {
		response.Error(c, appErrors.Validation(fmt.Sprintf("file exceeds the %d byte limit", h.maxUploadBytes)))
		return false
	}

	src, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload"))
		return false
	}
	defer src.Close() //nolint:errcheck
	content, err := io.ReadAll(src)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload"))
		return false
	}

	if state, err := selectFn(models.FileUpload{Name: header.Filename, Content: content}); err != nil {
		h.respond(c, state, err)
		return false
	}
	return true
}

func (h *ConsoleHandler) respond(c *gin.Context, data interface{}, err error) {
	if err == nil {
		response.JSON(c, http.StatusOK, data, nil, middleware.ExtractMeta(c))
		return
	}
	_ = c.Error(err)
	response.State(c, data, err)
}
