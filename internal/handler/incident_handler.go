package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ultraval/secure-desk-api/internal/dto"
	"github.com/ultraval/secure-desk-api/internal/middleware"
	"github.com/ultraval/secure-desk-api/internal/models"
	"github.com/ultraval/secure-desk-api/internal/service"
	appErrors "github.com/ultraval/secure-desk-api/pkg/errors"
	"github.com/ultraval/secure-desk-api/pkg/response"
)

// IncidentHandler exposes incident lifecycle endpoints.
type IncidentHandler struct {
	service *service.IncidentService
}

// NewIncidentHandler creates a new handler.
func NewIncidentHandler(svc *service.IncidentService) *IncidentHandler {
	return &IncidentHandler{service: svc}
}

// Create godoc
// @Summary Report an incident
// @Description Persist an incident and feed the biweekly counters when its classification carries a numeric rule
// @Tags Incidents
// @Accept json
// @Produce json
// @Param payload body dto.CreateIncidentRequest true "Incident payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /incidents [post]
func (h *IncidentHandler) Create(c *gin.Context) {
	var req dto.CreateIncidentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid incident payload"))
		return
	}

	actorID := ""
	if claims := claimsFromContext(c); claims != nil {
		actorID = claims.UserID
	}

	res, err := h.service.Create(c.Request.Context(), actorID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if res.Aggregation == service.AggregationDegraded {
		middleware.SetDegraded(c)
	}
	response.JSON(c, http.StatusCreated, res, nil, middleware.ExtractMeta(c))
}

// Get returns one incident by id.
func (h *IncidentHandler) Get(c *gin.Context) {
	incident, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, incident, nil)
}

// List godoc
// @Summary List incidents
// @Tags Incidents
// @Produce json
// @Param room_id query string false "Room filter"
// @Param status query string false "Status filter"
// @Param priority query string false "Priority filter"
// @Param assigned_to query string false "Assignee filter"
// @Param from query string false "Occurred from (RFC 3339)"
// @Param to query string false "Occurred to (RFC 3339)"
// @Success 200 {object} response.Envelope
// @Router /incidents [get]
func (h *IncidentHandler) List(c *gin.Context) {
	filter := models.IncidentFilter{
		RoomID:     c.Query("room_id"),
		AssignedTo: c.Query("assigned_to"),
	}
	if raw := c.Query("status"); raw != "" {
		status := models.IncidentStatus(raw)
		filter.Status = &status
	}
	if raw := c.Query("priority"); raw != "" {
		priority := models.IncidentPriority(raw)
		filter.Priority = &priority
	}
	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "from must be RFC 3339"))
			return
		}
		filter.DateFrom = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "to must be RFC 3339"))
			return
		}
		filter.DateTo = &to
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "50"))

	incidents, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, incidents, pagination)
}

// Assign routes an incident to a user.
func (h *IncidentHandler) Assign(c *gin.Context) {
	var req dto.AssignIncidentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}

	actorID := ""
	if claims := claimsFromContext(c); claims != nil {
		actorID = claims.UserID
	}

	incident, err := h.service.Assign(c.Request.Context(), actorID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, incident, nil)
}

// UpdateStatus moves an incident through its lifecycle.
func (h *IncidentHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateIncidentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}

	actorID := ""
	if claims := claimsFromContext(c); claims != nil {
		actorID = claims.UserID
	}

	incident, err := h.service.UpdateStatus(c.Request.Context(), actorID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, incident, nil)
}
