package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ultraval/secure-desk-api/internal/dto"
	"github.com/ultraval/secure-desk-api/internal/models"
	"github.com/ultraval/secure-desk-api/internal/service"
	appErrors "github.com/ultraval/secure-desk-api/pkg/errors"
	"github.com/ultraval/secure-desk-api/pkg/response"
)

// ClassificationHandler exposes classification catalogue endpoints.
type ClassificationHandler struct {
	service *service.ClassificationService
}

// NewClassificationHandler creates a new handler.
func NewClassificationHandler(svc *service.ClassificationService) *ClassificationHandler {
	return &ClassificationHandler{service: svc}
}

// List returns classifications per query filters.
func (h *ClassificationHandler) List(c *gin.Context) {
	filter := models.ClassificationFilter{Search: c.Query("search")}
	if raw := c.Query("active"); raw != "" {
		active := raw == "true"
		filter.Active = &active
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "50"))

	classifications, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classifications, pagination)
}

// Get returns one classification.
func (h *ClassificationHandler) Get(c *gin.Context) {
	classification, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classification, nil)
}

// Create godoc
// @Summary Register a classification
// @Description Classifications carry the explicit numeric-field rule that drives counter aggregation
// @Tags Classifications
// @Accept json
// @Produce json
// @Param payload body dto.CreateClassificationRequest true "Classification payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /classifications [post]
func (h *ClassificationHandler) Create(c *gin.Context) {
	var req dto.CreateClassificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid classification payload"))
		return
	}
	classification, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, classification)
}

// Update edits a classification.
func (h *ClassificationHandler) Update(c *gin.Context) {
	var req dto.UpdateClassificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid classification payload"))
		return
	}
	classification, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classification, nil)
}
