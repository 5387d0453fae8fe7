package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/billwatch/internal/application/port"
	"github.com/garyjia/billwatch/internal/application/service"
	"github.com/garyjia/billwatch/internal/domain/entity"
	"github.com/garyjia/billwatch/internal/extraction"
)

// uploadField is the multipart field carrying the PDF
const uploadField = "file"

// Handlers contains all HTTP request handlers
type Handlers struct {
	billService    service.BillService
	summaryService service.SummaryService
	logger         Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	billService service.BillService,
	summaryService service.SummaryService,
	logger Logger,
) *Handlers {
	return &Handlers{
		billService:    billService,
		summaryService: summaryService,
		logger:         logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// ChargeResponse is one consolidated charge in API responses
type ChargeResponse struct {
	Key    string `json:"key"`
	Amount string `json:"amount"`
	Rate   string `json:"rate,omitempty"`
}

// BillResponse represents a bill record in API responses
type BillResponse struct {
	UserID          string           `json:"user_id"`
	BillID          string           `json:"bill_id"`
	ContentHash     string           `json:"content_hash"`
	PeriodMonthYear string           `json:"period_month_year"`
	Charges         []ChargeResponse `json:"charges"`
}

// PreviewResponse adds diagnostics to a bill response
type PreviewResponse struct {
	Bill      BillResponse            `json:"bill"`
	Duplicate bool                    `json:"duplicate"`
	Columns   []string                `json:"columns"`
	Row       map[string]string       `json:"row"`
	Lines     []extraction.ParsedLine `json:"lines"`
	Sections  []extraction.Section    `json:"sections"`
}

// SummaryResponse represents the bill summary in API responses
type SummaryResponse struct {
	Mode    string `json:"mode"`
	Summary string `json:"summary"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    response,
	})
}

// SubmitBill handles POST /api/bills
func (h *Handlers) SubmitBill(c *gin.Context) {
	content, ok := h.readUpload(c)
	if !ok {
		return
	}

	record, err := h.billService.Submit(c.Request.Context(), content)
	if err != nil {
		h.writeServiceError(c, "Bill submission failed", err)
		return
	}

	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    toBillResponse(record),
	})
}

// PreviewBill handles POST /api/bills/preview
func (h *Handlers) PreviewBill(c *gin.Context) {
	content, ok := h.readUpload(c)
	if !ok {
		return
	}

	preview, err := h.billService.Preview(c.Request.Context(), content)
	if err != nil {
		h.writeServiceError(c, "Bill preview failed", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: PreviewResponse{
			Bill:      toBillResponse(preview.Record),
			Duplicate: preview.Duplicate,
			Columns:   preview.Columns,
			Row:       preview.Row,
			Lines:     preview.Lines,
			Sections:  preview.Sections,
		},
	})
}

// ExportBills handles GET /api/bills/export
func (h *Handlers) ExportBills(c *gin.Context) {
	data, contentType, err := h.billService.Export(c.Request.Context())
	if err != nil {
		h.writeServiceError(c, "Bill export failed", err)
		return
	}

	filename := fmt.Sprintf("bills-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
}

// SummarizeBill handles POST /api/bills/summary?bullets=true
func (h *Handlers) SummarizeBill(c *gin.Context) {
	if h.summaryService == nil {
		c.JSON(http.StatusServiceUnavailable, Response{
			Success: false,
			Error:   service.ErrSummaryDisabled.Error(),
		})
		return
	}

	mode := port.SummaryParagraph
	if bullets, err := strconv.ParseBool(c.DefaultQuery("bullets", "false")); err == nil && bullets {
		mode = port.SummaryBullets
	}

	content, ok := h.readUpload(c)
	if !ok {
		return
	}

	summary, err := h.summaryService.Summarize(c.Request.Context(), content, mode)
	if err != nil {
		h.writeServiceError(c, "Bill summary failed", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    SummaryResponse{Mode: string(mode), Summary: summary},
	})
}

// readUpload returns the bytes of the uploaded PDF, writing a 400 response
// when the request carries none
func (h *Handlers) readUpload(c *gin.Context) ([]byte, bool) {
	fileHeader, err := c.FormFile(uploadField)
	if err != nil {
		h.logger.Error("Missing upload", "error", err)
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   fmt.Sprintf("multipart field %q with a PDF is required", uploadField),
		})
		return nil, false
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.logger.Error("Failed to open upload", "error", err)
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "failed to read upload",
		})
		return nil, false
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error("Failed to read upload", "error", err)
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "failed to read upload",
		})
		return nil, false
	}

	return content, true
}

// writeServiceError maps application errors to status codes
func (h *Handlers) writeServiceError(c *gin.Context, msg string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrDuplicateBill):
		status = http.StatusConflict
	case errors.Is(err, service.ErrInvalidDocument):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrStorageUnavailable), errors.Is(err, service.ErrSummaryDisabled):
		status = http.StatusServiceUnavailable
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error(msg, "error", err)
	} else {
		h.logger.Info(msg, "error", err.Error())
	}

	c.JSON(status, Response{
		Success: false,
		Error:   err.Error(),
	})
}

// toBillResponse converts domain entity to API response
func toBillResponse(record *entity.BillRecord) BillResponse {
	resp := BillResponse{
		UserID:          record.UserID,
		BillID:          record.BillID,
		ContentHash:     record.ContentHash,
		PeriodMonthYear: record.Metadata.PeriodMonthYear,
		Charges:         make([]ChargeResponse, 0, len(record.Charges)),
	}

	for _, charge := range record.Charges {
		resp.Charges = append(resp.Charges, ChargeResponse{
			Key:    string(charge.Key),
			Amount: charge.Amount.String(),
			Rate:   charge.Rate,
		})
	}

	return resp
}
