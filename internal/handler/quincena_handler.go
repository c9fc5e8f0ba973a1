package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ultraval/secure-desk-api/internal/dto"
	"github.com/ultraval/secure-desk-api/internal/middleware"
	"github.com/ultraval/secure-desk-api/internal/models"
	"github.com/ultraval/secure-desk-api/internal/service"
	appErrors "github.com/ultraval/secure-desk-api/pkg/errors"
	"github.com/ultraval/secure-desk-api/pkg/response"
)

// QuincenaHandler exposes the biweekly reporting endpoints.
type QuincenaHandler struct {
	stats     *service.QuincenaService
	reconcile *service.ReconcileService
}

// NewQuincenaHandler creates a new handler.
func NewQuincenaHandler(stats *service.QuincenaService, reconcile *service.ReconcileService) *QuincenaHandler {
	return &QuincenaHandler{stats: stats, reconcile: reconcile}
}

// Stats godoc
// @Summary Month counter statistics
// @Description Per-room, per-half counters for one month
// @Tags Quincena
// @Produce json
// @Param year query int true "Year"
// @Param month query int true "Month 1-12"
// @Param room_id query string false "Room filter"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /quincena/stats [get]
func (h *QuincenaHandler) Stats(c *gin.Context) {
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "year is required"))
		return
	}
	month, err := strconv.Atoi(c.Query("month"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "month is required"))
		return
	}

	filter := models.QuincenaStatsFilter{Year: year, Month: month, RoomID: c.Query("room_id")}
	res, cached, err := h.stats.MonthStats(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cached)
	response.JSON(c, http.StatusOK, res, nil, middleware.ExtractMeta(c))
}

// Timeline godoc
// @Summary Yearly counter timeline
// @Description Period aggregates across all rooms for a year and the previous one
// @Tags Quincena
// @Produce json
// @Param year query int true "Year"
// @Success 200 {object} response.Envelope
// @Router /quincena/timeline [get]
func (h *QuincenaHandler) Timeline(c *gin.Context) {
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "year is required"))
		return
	}

	res, cached, err := h.stats.Timeline(c.Request.Context(), year)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cached)
	response.JSON(c, http.StatusOK, res, nil, middleware.ExtractMeta(c))
}

// Current godoc
// @Summary Current period
// @Description Server-side resolution of today's biweekly period
// @Tags Quincena
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /quincena/current [get]
func (h *QuincenaHandler) Current(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.stats.CurrentPeriod(), nil)
}

// Reconcile godoc
// @Summary Rebuild counters from incidents
// @Description Recompute counter buckets for the trailing window or the full history
// @Tags Quincena
// @Accept json
// @Produce json
// @Param payload body dto.ReconcileRequest false "Reconcile options"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /quincena/reconcile [post]
func (h *QuincenaHandler) Reconcile(c *gin.Context) {
	var req dto.ReconcileRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid reconcile payload"))
			return
		}
	}

	actorID := ""
	if claims := claimsFromContext(c); claims != nil {
		actorID = claims.UserID
	}

	res, err := h.reconcile.Run(c.Request.Context(), actorID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}
