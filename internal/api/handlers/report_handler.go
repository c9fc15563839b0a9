package handlers

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/zaikolab/zaiko-report/internal/config"
	"github.com/zaikolab/zaiko-report/internal/domain"
	"github.com/zaikolab/zaiko-report/internal/service"
)

const dateParamLayout = "2006-01-02"

type ReportHandler struct {
	service *service.ReportService
	app     config.AppConfig
	report  config.ReportConfig
}

func NewReportHandler(svc *service.ReportService, app config.AppConfig, report config.ReportConfig) *ReportHandler {
	return &ReportHandler{service: svc, app: app, report: report}
}

// parseFilter validates the shared query parameters. Range rules: dates in
// 2006-01-02 form with start <= end, min_sold >= 0, target_days >= 1.
func (h *ReportHandler) parseFilter(c *gin.Context) (domain.ReportFilter, bool) {
	filter := domain.ReportFilter{
		TargetDays: h.report.DefaultTargetDays,
	}

	start, err := time.Parse(dateParamLayout, strings.TrimSpace(c.Query("start_date")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start_date must be YYYY-MM-DD"})
		return filter, false
	}
	end, err := time.Parse(dateParamLayout, strings.TrimSpace(c.Query("end_date")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end_date must be YYYY-MM-DD"})
		return filter, false
	}
	if end.Before(start) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end_date must not be before start_date"})
		return filter, false
	}
	filter.Window = domain.DateWindow{Start: start, End: end}

	filter.Keyword = strings.TrimSpace(c.Query("keyword"))

	if raw := strings.TrimSpace(c.Query("min_sold")); raw != "" {
		minSold, err := strconv.Atoi(raw)
		if err != nil || minSold < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "min_sold must be a non-negative integer"})
			return filter, false
		}
		filter.MinSold = minSold
	}

	if raw := strings.TrimSpace(c.Query("target_days")); raw != "" {
		targetDays, err := strconv.Atoi(raw)
		if err != nil || targetDays < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "target_days must be a positive integer"})
			return filter, false
		}
		filter.TargetDays = targetDays
	}

	return filter, true
}

func (h *ReportHandler) sources(c *gin.Context) (service.Sources, bool) {
	src, err := service.SourcesFromDirs(h.app.ExtractDir, h.app.MasterDir)
	if err != nil {
		log.Error().Err(err).Msg("failed to list report sources")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list report sources"})
		return service.Sources{}, false
	}
	return src, true
}

// GetSalesReport returns the sales-ranked rows for the requested window.
func (h *ReportHandler) GetSalesReport(c *gin.Context) {
	filter, ok := h.parseFilter(c)
	if !ok {
		return
	}
	src, ok := h.sources(c)
	if !ok {
		return
	}

	rows, err := h.service.SalesReport(c.Request.Context(), src, filter)
	if err != nil {
		h.reportError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rows": rows, "total": len(rows)})
}

// GetReorderReport returns restock recommendations for the requested window.
func (h *ReportHandler) GetReorderReport(c *gin.Context) {
	filter, ok := h.parseFilter(c)
	if !ok {
		return
	}
	src, ok := h.sources(c)
	if !ok {
		return
	}

	rows, err := h.service.ReorderReport(c.Request.Context(), src, filter)
	if err != nil {
		h.reportError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rows": rows, "total": len(rows)})
}

// GetPeriods returns the distinct extract periods available for reporting.
func (h *ReportHandler) GetPeriods(c *gin.Context) {
	src, ok := h.sources(c)
	if !ok {
		return
	}

	periods, err := h.service.Periods(src)
	if err != nil {
		h.reportError(c, err)
		return
	}

	formatted := make([]string, 0, len(periods))
	for _, p := range periods {
		formatted = append(formatted, p.Format(dateParamLayout))
	}
	c.JSON(http.StatusOK, gin.H{"periods": formatted})
}

// UploadExtracts accepts movement-log extract files into the extract dir.
func (h *ReportHandler) UploadExtracts(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid form data"})
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files provided"})
		return
	}

	saved := 0
	for _, file := range files {
		ext := strings.ToLower(filepath.Ext(file.Filename))
		if ext != ".csv" && ext != ".xlsx" && ext != ".xlsm" {
			continue
		}
		destPath := filepath.Join(h.app.ExtractDir, filepath.Base(file.Filename))
		if err := c.SaveUploadedFile(file, destPath); err != nil {
			log.Error().Err(err).Str("filename", file.Filename).Msg("failed to save uploaded extract")
			continue
		}
		saved++
	}

	if saved == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no valid extract files to save"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "extracts saved", "count": saved})
}

func (h *ReportHandler) reportError(c *gin.Context, err error) {
	var schemaErr *domain.SchemaError
	if errors.As(err, &schemaErr) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":           "extracts are missing required columns",
			"missing_columns": schemaErr.MissingColumns,
		})
		return
	}

	log.Error().Err(err).Msg("report generation failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate report"})
}
