package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ultraval/secure-desk-api/internal/middleware"
	"github.com/ultraval/secure-desk-api/internal/service"
	"github.com/ultraval/secure-desk-api/pkg/response"
)

// ReportHandler exposes the consolidated daily report.
type ReportHandler struct {
	daily *service.DailyReportService
}

// NewReportHandler creates a new handler.
func NewReportHandler(daily *service.DailyReportService) *ReportHandler {
	return &ReportHandler{daily: daily}
}

// Daily godoc
// @Summary Daily activity report
// @Description Incident, payment and movement aggregates for one calendar date
// @Tags Reports
// @Produce json
// @Param date query string false "Date YYYY-MM-DD, defaults to today"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /reports/daily [get]
func (h *ReportHandler) Daily(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	}

	report, cached, err := h.daily.Build(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cached)
	response.JSON(c, http.StatusOK, report, nil, middleware.ExtractMeta(c))
}
