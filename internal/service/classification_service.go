package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ultraval/secure-desk-api/internal/dto"
	"github.com/ultraval/secure-desk-api/internal/models"
	appErrors "github.com/ultraval/secure-desk-api/pkg/errors"
)

type classificationRepository interface {
	List(ctx context.Context, filter models.ClassificationFilter) ([]models.Classification, int, error)
	GetByID(ctx context.Context, id string) (*models.Classification, error)
	Create(ctx context.Context, classification *models.Classification) error
	Update(ctx context.Context, classification *models.Classification) error
}

// ClassificationService manages incident classifications and their
// numeric-field rules.
type ClassificationService struct {
	repo      classificationRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassificationService constructs a ClassificationService.
func NewClassificationService(repo classificationRepository, validate *validator.Validate, logger *zap.Logger) *ClassificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ClassificationService{repo: repo, validator: validate, logger: logger}
}

// List returns classifications with pagination metadata.
func (s *ClassificationService) List(ctx context.Context, filter models.ClassificationFilter) ([]models.Classification, *models.Pagination, error) {
	classifications, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, fmt.Errorf("list classifications: %w", err)
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	return classifications, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a single classification.
func (s *ClassificationService) Get(ctx context.Context, id string) (*models.Classification, error) {
	classification, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "classification not found")
		}
		return nil, fmt.Errorf("load classification: %w", err)
	}
	return classification, nil
}

// Create registers a classification after checking its numeric rule.
func (s *ClassificationService) Create(ctx context.Context, req dto.CreateClassificationRequest) (*models.Classification, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid classification payload")
	}
	if err := validateNumericRule(req.NumericRule); err != nil {
		return nil, err
	}
	classification := &models.Classification{
		Name:        req.Name,
		Description: req.Description,
		NumericRule: req.NumericRule,
		Active:      true,
	}
	if err := s.repo.Create(ctx, classification); err != nil {
		return nil, fmt.Errorf("create classification: %w", err)
	}
	return classification, nil
}

// Update edits a classification. Rule changes affect future incidents only;
// recorded counters are repaired by reconciliation.
func (s *ClassificationService) Update(ctx context.Context, id string, req dto.UpdateClassificationRequest) (*models.Classification, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid classification payload")
	}
	if err := validateNumericRule(req.NumericRule); err != nil {
		return nil, err
	}
	classification, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	classification.Name = req.Name
	classification.Description = req.Description
	classification.NumericRule = req.NumericRule
	if req.Active != nil {
		classification.Active = *req.Active
	}
	if err := s.repo.Update(ctx, classification); err != nil {
		return nil, fmt.Errorf("update classification: %w", err)
	}
	return classification, nil
}

func validateNumericRule(rule models.NumericRule) error {
	if !rule.Enabled {
		return nil
	}
	switch rule.Unit {
	case models.UnitMinutes, models.UnitCount:
	default:
		return appErrors.Clone(appErrors.ErrValidation, "numeric rule unit must be minutes or count")
	}
	switch rule.Category {
	case models.CategoryLateEntry, models.CategoryEarlyClosure:
	default:
		return appErrors.Clone(appErrors.ErrValidation, "numeric rule category must be late_entry or early_closure")
	}
	return nil
}
