package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ultraval/secure-desk-api/internal/dto"
	"github.com/ultraval/secure-desk-api/internal/models"
	"github.com/ultraval/secure-desk-api/internal/service"
	appErrors "github.com/ultraval/secure-desk-api/pkg/errors"
	"github.com/ultraval/secure-desk-api/pkg/response"
)

// AssetMovementHandler exposes asset relocation endpoints.
type AssetMovementHandler struct {
	service *service.AssetMovementService
}

// NewAssetMovementHandler creates a new handler.
func NewAssetMovementHandler(svc *service.AssetMovementService) *AssetMovementHandler {
	return &AssetMovementHandler{service: svc}
}

// Create records an asset relocation.
func (h *AssetMovementHandler) Create(c *gin.Context) {
	var req dto.CreateAssetMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid movement payload"))
		return
	}

	actorID := ""
	if claims := claimsFromContext(c); claims != nil {
		actorID = claims.UserID
	}

	movement, err := h.service.Create(c.Request.Context(), actorID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, movement)
}

// List returns movement records per query filters.
func (h *AssetMovementHandler) List(c *gin.Context) {
	filter := models.AssetMovementFilter{
		AssetTag: c.Query("asset_tag"),
		RoomID:   c.Query("room_id"),
	}
	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "from must be YYYY-MM-DD"))
			return
		}
		filter.DateFrom = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "to must be YYYY-MM-DD"))
			return
		}
		filter.DateTo = &to
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "50"))

	movements, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, movements, pagination)
}
