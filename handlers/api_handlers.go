package handlers

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"rollcall-stats-go/analyzer"
	"rollcall-stats-go/db"
	"rollcall-stats-go/models"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportStore persists generated reports. *db.RedisService implements it.
type ReportStore interface {
	SaveReport(report *models.Report) (string, error)
	GetReport(reportID string) (*models.Report, error)
	GetReportsByClassID(classID string) ([]models.Report, error)
}

// APIHandler holds the dependencies for API handlers
type APIHandler struct {
	ReportStore    ReportStore // nil when no store is configured
	Options        analyzer.Options
	MaxUploadBytes int64 // 0 means no limit
	logger         *slog.Logger
}

// NewAPIHandler creates a new APIHandler. Pass a nil store to run without persistence.
func NewAPIHandler(store ReportStore, opts analyzer.Options, logger *slog.Logger) *APIHandler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &APIHandler{
		ReportStore: store,
		Options:     opts,
		logger:      logger,
	}
}

// RegisterRoutes mounts the API under /api
func (h *APIHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	{
		api.POST("/analyze", h.AnalyzeRoster)

		// Stored reports
		api.GET("/reports/:reportId", h.GetReport)
		api.GET("/reports/:reportId/workbook", h.GetReportWorkbook)
		api.GET("/classes/:classId/reports", h.GetReportsByClass)

		api.GET("/ping", PingHandler)
	}
}

// --- Analysis Handler ---

// AnalyzeRoster handles POST /api/analyze
func (h *APIHandler) AnalyzeRoster(c *gin.Context) {
	if h.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)
	}

	format := c.DefaultPostForm("format", "xlsx")
	if format != "xlsx" && format != "json" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be 'xlsx' or 'json'"})
		return
	}

	opts := h.Options
	if raw := c.PostForm("threshold"); raw != "" {
		threshold, err := strconv.ParseFloat(raw, 64)
		if err != nil || threshold < 0 || threshold > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "threshold must be a number between 0 and 100"})
			return
		}
		opts.Threshold = threshold
	}

	// Get file from form data
	file, header, err := c.Request.FormFile("file") // "file" is the name attribute in the form
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error retrieving uploaded file: " + err.Error()})
		return
	}
	defer file.Close()

	log := h.logger.With(slog.String("filename", header.Filename))
	log.Info("Received roster upload", slog.Int64("size", header.Size))

	students, err := db.ReadRoster(file)
	if err != nil {
		log.Warn("Failed to read roster", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read roster: " + err.Error()})
		return
	}

	report := analyzer.New(opts, log).Analyze(students)
	report.ClassID = c.PostForm("classId")

	if report.ClassID != "" && h.ReportStore != nil {
		id, err := h.ReportStore.SaveReport(report)
		if err != nil {
			log.Error("Failed to save report", slog.String("class_id", report.ClassID), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save report"})
			return
		}
		c.Header("X-Report-ID", id)
	}

	if format == "json" {
		c.JSON(http.StatusOK, report)
		return
	}
	h.writeWorkbook(c, report)
}

// --- Stored Report Handlers ---

// GetReport handles GET /api/reports/:reportId
func (h *APIHandler) GetReport(c *gin.Context) {
	report, ok := h.lookupReport(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, report)
}

// GetReportWorkbook handles GET /api/reports/:reportId/workbook
func (h *APIHandler) GetReportWorkbook(c *gin.Context) {
	report, ok := h.lookupReport(c)
	if !ok {
		return
	}
	h.writeWorkbook(c, report)
}

// GetReportsByClass handles GET /api/classes/:classId/reports
func (h *APIHandler) GetReportsByClass(c *gin.Context) {
	if !h.requireStore(c) {
		return
	}
	classID := c.Param("classId")

	reports, err := h.ReportStore.GetReportsByClassID(classID)
	if err != nil {
		h.logger.Error("Error in GetReportsByClass handler", slog.String("class_id", classID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve reports for the class"})
		return
	}
	if reports == nil {
		// Return empty list instead of null for JSON consistency
		reports = []models.Report{}
	}
	c.JSON(http.StatusOK, reports)
}

func (h *APIHandler) lookupReport(c *gin.Context) (*models.Report, bool) {
	if !h.requireStore(c) {
		return nil, false
	}
	reportID := c.Param("reportId")

	report, err := h.ReportStore.GetReport(reportID)
	if err != nil {
		h.logger.Error("Error fetching report", slog.String("report_id", reportID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve report"})
		return nil, false
	}
	if report == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Report not found"})
		return nil, false
	}
	return report, true
}

func (h *APIHandler) requireStore(c *gin.Context) bool {
	if h.ReportStore == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Report storage is not enabled"})
		return false
	}
	return true
}

func (h *APIHandler) writeWorkbook(c *gin.Context, report *models.Report) {
	var buf bytes.Buffer
	if err := db.WriteWorkbook(&buf, analyzer.Tables(report)); err != nil {
		h.logger.Error("Failed to build report workbook", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build report workbook"})
		return
	}

	filename := "report.xlsx"
	if report.ID != "" {
		filename = fmt.Sprintf("report-%s.xlsx", report.ID)
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// --- Ping Handler ---
func PingHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Pong!"})
}
