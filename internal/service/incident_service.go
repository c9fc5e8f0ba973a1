package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ultraval/secure-desk-api/internal/dto"
	"github.com/ultraval/secure-desk-api/internal/models"
	appErrors "github.com/ultraval/secure-desk-api/pkg/errors"
)

// Aggregation outcome markers returned with every created incident.
const (
	AggregationOK       = "ok"
	AggregationSkipped  = "skipped"
	AggregationDegraded = "degraded"
)

type incidentRepository interface {
	Create(ctx context.Context, incident *models.Incident) error
	GetByID(ctx context.Context, id string) (*models.Incident, error)
	List(ctx context.Context, filter models.IncidentFilter) ([]models.Incident, int, error)
	Assign(ctx context.Context, id, assigneeID string) error
	UpdateStatus(ctx context.Context, id string, status models.IncidentStatus) error
}

type classificationReader interface {
	GetByID(ctx context.Context, id string) (*models.Classification, error)
}

type roomReader interface {
	GetByID(ctx context.Context, id string) (*models.Room, error)
}

type counterRecorder interface {
	Record(ctx context.Context, inc models.CounterIncrement) error
}

type auditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// IncidentService owns the incident lifecycle and drives the biweekly
// aggregation on creation.
type IncidentService struct {
	repo            incidentRepository
	classifications classificationReader
	rooms           roomReader
	counters        counterRecorder
	audit           auditWriter
	metrics         *MetricsService
	validator       *validator.Validate
	logger          *zap.Logger
}

// NewIncidentService constructs an IncidentService.
func NewIncidentService(repo incidentRepository, classifications classificationReader, rooms roomReader, counters counterRecorder, audit auditWriter, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *IncidentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &IncidentService{
		repo:            repo,
		classifications: classifications,
		rooms:           rooms,
		counters:        counters,
		audit:           audit,
		metrics:         metrics,
		validator:       validate,
		logger:          logger,
	}
}

// Create persists a new incident and, when the classification carries an
// enabled numeric rule, feeds the biweekly counter. The counter update is
// best effort: if it fails the incident stands and the response is marked
// degraded so reconciliation can repair the bucket later.
func (s *IncidentService) Create(ctx context.Context, actorID string, req dto.CreateIncidentRequest) (*dto.CreateIncidentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid incident payload")
	}

	room, err := s.rooms.GetByID(ctx, req.RoomID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		return nil, fmt.Errorf("load room: %w", err)
	}
	if !room.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "room is inactive")
	}

	classification, err := s.classifications.GetByID(ctx, req.ClassificationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "classification not found")
		}
		return nil, fmt.Errorf("load classification: %w", err)
	}
	if !classification.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "classification is inactive")
	}

	rule := classification.NumericRule
	if rule.Enabled && req.NumericValue == nil {
		return nil, appErrors.Clone(appErrors.ErrNumericRequired, fmt.Sprintf("classification %q requires a numeric value", classification.Name))
	}

	occurredAt := time.Now().UTC()
	if req.OccurredAt != nil {
		parsed, err := time.Parse(time.RFC3339, *req.OccurredAt)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "occurred_at must be RFC 3339")
		}
		occurredAt = parsed.UTC()
	}

	incident := &models.Incident{
		RoomID:           req.RoomID,
		ClassificationID: req.ClassificationID,
		Priority:         models.IncidentPriority(req.Priority),
		Status:           models.IncidentStatusNew,
		Description:      req.Description,
		NumericValue:     req.NumericValue,
		OccurredAt:       occurredAt,
		ReportedBy:       actorID,
	}
	if err := s.repo.Create(ctx, incident); err != nil {
		return nil, fmt.Errorf("create incident: %w", err)
	}

	aggregation := AggregationSkipped
	if rule.Enabled {
		aggregation = AggregationOK
		err := s.counters.Record(ctx, models.CounterIncrement{
			RoomID:   incident.RoomID,
			Category: rule.Category,
			Value:    *incident.NumericValue,
			Date:     incident.OccurredAt,
		})
		if err != nil {
			aggregation = AggregationDegraded
			s.logger.Warn("biweekly counter update failed, incident kept",
				zap.String("incident_id", incident.ID),
				zap.String("room_id", incident.RoomID),
				zap.Error(err))
		}
	}
	s.metrics.RecordCounterUpdate(aggregation)

	s.writeAudit(ctx, actorID, models.AuditActionIncidentCreate, incident.ID,
		[]byte(fmt.Sprintf(`{"room_id":%q,"aggregation":%q}`, incident.RoomID, aggregation)))

	return &dto.CreateIncidentResponse{Incident: incident, Aggregation: aggregation}, nil
}

// Get returns a single incident.
func (s *IncidentService) Get(ctx context.Context, id string) (*models.Incident, error) {
	incident, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "incident not found")
		}
		return nil, fmt.Errorf("load incident: %w", err)
	}
	return incident, nil
}

// List returns incidents per filter with pagination metadata.
func (s *IncidentService) List(ctx context.Context, filter models.IncidentFilter) ([]models.Incident, *models.Pagination, error) {
	incidents, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, fmt.Errorf("list incidents: %w", err)
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	return incidents, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Assign routes an incident to a user. Allowed from NEW and, for
// reassignment, from ASSIGNED.
func (s *IncidentService) Assign(ctx context.Context, actorID, incidentID string, req dto.AssignIncidentRequest) (*models.Incident, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	incident, err := s.Get(ctx, incidentID)
	if err != nil {
		return nil, err
	}
	if incident.Status != models.IncidentStatusAssigned && !models.ValidTransition(incident.Status, models.IncidentStatusAssigned) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("cannot assign incident in status %s", incident.Status))
	}

	if err := s.repo.Assign(ctx, incidentID, req.AssigneeID); err != nil {
		return nil, fmt.Errorf("assign incident: %w", err)
	}
	incident.Status = models.IncidentStatusAssigned
	incident.AssignedTo = &req.AssigneeID

	s.writeAudit(ctx, actorID, models.AuditActionIncidentAssign, incidentID,
		[]byte(fmt.Sprintf(`{"assignee_id":%q}`, req.AssigneeID)))
	return incident, nil
}

// UpdateStatus moves an incident through its lifecycle, rejecting
// transitions the state machine does not allow.
func (s *IncidentService) UpdateStatus(ctx context.Context, actorID, incidentID string, req dto.UpdateIncidentStatusRequest) (*models.Incident, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}

	incident, err := s.Get(ctx, incidentID)
	if err != nil {
		return nil, err
	}

	target := models.IncidentStatus(req.Status)
	if !models.ValidTransition(incident.Status, target) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("cannot move incident from %s to %s", incident.Status, target))
	}

	if err := s.repo.UpdateStatus(ctx, incidentID, target); err != nil {
		return nil, fmt.Errorf("update incident status: %w", err)
	}
	previous := incident.Status
	incident.Status = target

	s.writeAudit(ctx, actorID, models.AuditActionIncidentStatus, incidentID,
		[]byte(fmt.Sprintf(`{"from":%q,"to":%q}`, previous, target)))
	return incident, nil
}

func (s *IncidentService) writeAudit(ctx context.Context, actorID, action, resourceID string, newValues []byte) {
	if s.audit == nil {
		return
	}
	entry := &models.AuditLog{
		Action:     action,
		Resource:   "incidents",
		ResourceID: &resourceID,
		NewValues:  newValues,
	}
	if actorID != "" {
		entry.UserID = &actorID
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to record incident audit log", zap.String("action", action), zap.Error(err))
	}
}
