package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ultraval/secure-desk-api/internal/dto"
	"github.com/ultraval/secure-desk-api/internal/models"
	appErrors "github.com/ultraval/secure-desk-api/pkg/errors"
)

type assetMovementRepository interface {
	Create(ctx context.Context, movement *models.AssetMovement) error
	List(ctx context.Context, filter models.AssetMovementFilter) ([]models.AssetMovement, int, error)
}

// AssetMovementService manages the asset relocation log.
type AssetMovementService struct {
	repo      assetMovementRepository
	rooms     roomReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAssetMovementService constructs an AssetMovementService.
func NewAssetMovementService(repo assetMovementRepository, rooms roomReader, validate *validator.Validate, logger *zap.Logger) *AssetMovementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AssetMovementService{repo: repo, rooms: rooms, validator: validate, logger: logger}
}

// Create records an asset relocation. Both rooms must exist; the source is
// optional for assets entering from storage.
func (s *AssetMovementService) Create(ctx context.Context, actorID string, req dto.CreateAssetMovementRequest) (*models.AssetMovement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid movement payload")
	}

	if _, err := s.rooms.GetByID(ctx, req.ToRoomID); err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "destination room not found")
	}
	if req.FromRoomID != nil {
		if _, err := s.rooms.GetByID(ctx, *req.FromRoomID); err != nil {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "source room not found")
		}
	}

	movedAt := time.Now().UTC()
	if req.MovedAt != "" {
		parsed, err := time.Parse("2006-01-02", req.MovedAt)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "moved_at must be YYYY-MM-DD")
		}
		movedAt = parsed
	}

	movement := &models.AssetMovement{
		AssetTag:   req.AssetTag,
		FromRoomID: req.FromRoomID,
		ToRoomID:   req.ToRoomID,
		Reason:     req.Reason,
		MovedAt:    movedAt,
		RecordedBy: actorID,
	}
	if err := s.repo.Create(ctx, movement); err != nil {
		return nil, fmt.Errorf("create asset movement: %w", err)
	}
	return movement, nil
}

// List returns movement records with pagination metadata.
func (s *AssetMovementService) List(ctx context.Context, filter models.AssetMovementFilter) ([]models.AssetMovement, *models.Pagination, error) {
	movements, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, fmt.Errorf("list asset movements: %w", err)
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	return movements, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}
