package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ultraval/secure-desk-api/internal/dto"
	"github.com/ultraval/secure-desk-api/internal/models"
	appErrors "github.com/ultraval/secure-desk-api/pkg/errors"
)

type paymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByID(ctx context.Context, id string) (*models.Payment, error)
	List(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, int, error)
}

type incidentReader interface {
	GetByID(ctx context.Context, id string) (*models.Incident, error)
}

// PaymentService manages the finance ledger tied to incidents.
type PaymentService struct {
	repo      paymentRepository
	incidents incidentReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPaymentService constructs a PaymentService.
func NewPaymentService(repo paymentRepository, incidents incidentReader, validate *validator.Validate, logger *zap.Logger) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &PaymentService{repo: repo, incidents: incidents, validator: validate, logger: logger}
}

// Create records a ledger entry against an existing incident.
func (s *PaymentService) Create(ctx context.Context, actorID string, req dto.CreatePaymentRequest) (*models.Payment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}

	if _, err := s.incidents.GetByID(ctx, req.IncidentID); err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "incident not found")
	}

	paidAt := time.Now().UTC()
	if req.PaidAt != "" {
		parsed, err := time.Parse("2006-01-02", req.PaidAt)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "paid_at must be YYYY-MM-DD")
		}
		paidAt = parsed
	}

	payment := &models.Payment{
		IncidentID:  req.IncidentID,
		AmountCents: req.AmountCents,
		Currency:    strings.ToUpper(req.Currency),
		Method:      models.PaymentMethod(req.Method),
		Reference:   req.Reference,
		PaidAt:      paidAt,
		RecordedBy:  actorID,
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}
	return payment, nil
}

// List returns ledger entries with pagination metadata.
func (s *PaymentService) List(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, *models.Pagination, error) {
	payments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, fmt.Errorf("list payments: %w", err)
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	return payments, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}
