package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ultraval/secure-desk-api/internal/dto"
	"github.com/ultraval/secure-desk-api/internal/models"
	appErrors "github.com/ultraval/secure-desk-api/pkg/errors"
)

type mockIncidentRepo struct {
	incidents map[string]*models.Incident
	createErr error
	assigned  map[string]string
	statuses  map[string]models.IncidentStatus
}

func newMockIncidentRepo() *mockIncidentRepo {
	return &mockIncidentRepo{
		incidents: make(map[string]*models.Incident),
		assigned:  make(map[string]string),
		statuses:  make(map[string]models.IncidentStatus),
	}
}

func (m *mockIncidentRepo) Create(ctx context.Context, incident *models.Incident) error {
	if m.createErr != nil {
		return m.createErr
	}
	if incident.ID == "" {
		incident.ID = uuid.NewString()
	}
	m.incidents[incident.ID] = incident
	return nil
}

func (m *mockIncidentRepo) GetByID(ctx context.Context, id string) (*models.Incident, error) {
	incident, ok := m.incidents[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return incident, nil
}

func (m *mockIncidentRepo) List(ctx context.Context, filter models.IncidentFilter) ([]models.Incident, int, error) {
	out := make([]models.Incident, 0, len(m.incidents))
	for _, incident := range m.incidents {
		out = append(out, *incident)
	}
	return out, len(out), nil
}

func (m *mockIncidentRepo) Assign(ctx context.Context, id, assigneeID string) error {
	m.assigned[id] = assigneeID
	return nil
}

func (m *mockIncidentRepo) UpdateStatus(ctx context.Context, id string, status models.IncidentStatus) error {
	m.statuses[id] = status
	return nil
}

type stubClassifications struct {
	classification *models.Classification
	err            error
}

func (s *stubClassifications) GetByID(ctx context.Context, id string) (*models.Classification, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.classification, nil
}

type stubRooms struct {
	room *models.Room
	err  error
}

func (s *stubRooms) GetByID(ctx context.Context, id string) (*models.Room, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.room, nil
}

type stubCounter struct {
	increments []models.CounterIncrement
	err        error
}

func (s *stubCounter) Record(ctx context.Context, inc models.CounterIncrement) error {
	if s.err != nil {
		return s.err
	}
	s.increments = append(s.increments, inc)
	return nil
}

type recordingAudit struct {
	logs []*models.AuditLog
}

func (r *recordingAudit) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	r.logs = append(r.logs, log)
	return nil
}

type incidentFixture struct {
	svc     *IncidentService
	repo    *mockIncidentRepo
	counter *stubCounter
	audit   *recordingAudit
}

func newIncidentFixture(classification *models.Classification) incidentFixture {
	repo := newMockIncidentRepo()
	counter := &stubCounter{}
	audit := &recordingAudit{}
	rooms := &stubRooms{room: &models.Room{ID: "room-1", Name: "Room A", Active: true}}
	svc := NewIncidentService(repo, &stubClassifications{classification: classification}, rooms, counter, audit, nil, nil, zap.NewNop())
	return incidentFixture{svc: svc, repo: repo, counter: counter, audit: audit}
}

func lateEntryClassification() *models.Classification {
	return &models.Classification{
		ID:     "cls-1",
		Name:   "Late entry",
		Active: true,
		NumericRule: models.NumericRule{
			Enabled:  true,
			Unit:     models.UnitMinutes,
			Label:    "Minutes late",
			Category: models.CategoryLateEntry,
		},
	}
}

func TestCreateIncidentFeedsCounter(t *testing.T) {
	f := newIncidentFixture(lateEntryClassification())
	minutes := 12
	occurred := time.Date(2025, time.March, 10, 9, 30, 0, 0, time.UTC).Format(time.RFC3339)

	res, err := f.svc.Create(context.Background(), "user-1", dto.CreateIncidentRequest{
		RoomID:           "room-1",
		ClassificationID: "cls-1",
		Priority:         "MEDIUM",
		Description:      "arrived late to shift",
		NumericValue:     &minutes,
		OccurredAt:       &occurred,
	})
	require.NoError(t, err)
	assert.Equal(t, AggregationOK, res.Aggregation)
	require.Len(t, f.counter.increments, 1)
	inc := f.counter.increments[0]
	assert.Equal(t, "room-1", inc.RoomID)
	assert.Equal(t, models.CategoryLateEntry, inc.Category)
	assert.Equal(t, 12, inc.Value)
	assert.Equal(t, 10, inc.Date.Day())
	require.Len(t, f.audit.logs, 1)
	assert.Equal(t, models.AuditActionIncidentCreate, f.audit.logs[0].Action)
}

func TestCreateIncidentRequiresNumericValue(t *testing.T) {
	f := newIncidentFixture(lateEntryClassification())

	_, err := f.svc.Create(context.Background(), "user-1", dto.CreateIncidentRequest{
		RoomID:           "room-1",
		ClassificationID: "cls-1",
		Priority:         "LOW",
		Description:      "arrived late to shift",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNumericRequired.Code, appErrors.FromError(err).Code)
	assert.Empty(t, f.repo.incidents)
}

func TestCreateIncidentSkipsDisabledRule(t *testing.T) {
	f := newIncidentFixture(&models.Classification{ID: "cls-2", Name: "Camera offline", Active: true})

	res, err := f.svc.Create(context.Background(), "user-1", dto.CreateIncidentRequest{
		RoomID:           "room-1",
		ClassificationID: "cls-2",
		Priority:         "HIGH",
		Description:      "camera 4 offline",
	})
	require.NoError(t, err)
	assert.Equal(t, AggregationSkipped, res.Aggregation)
	assert.Empty(t, f.counter.increments)
}

func TestCreateIncidentDegradedWhenCounterFails(t *testing.T) {
	f := newIncidentFixture(lateEntryClassification())
	f.counter.err = assert.AnError
	minutes := 30

	res, err := f.svc.Create(context.Background(), "user-1", dto.CreateIncidentRequest{
		RoomID:           "room-1",
		ClassificationID: "cls-1",
		Priority:         "MEDIUM",
		Description:      "arrived late to shift",
		NumericValue:     &minutes,
	})
	require.NoError(t, err)
	assert.Equal(t, AggregationDegraded, res.Aggregation)
	assert.Len(t, f.repo.incidents, 1)
}

func TestCreateIncidentRejectsUnknownRoom(t *testing.T) {
	f := newIncidentFixture(lateEntryClassification())
	svc := NewIncidentService(f.repo, &stubClassifications{classification: lateEntryClassification()}, &stubRooms{err: sql.ErrNoRows}, f.counter, f.audit, nil, nil, zap.NewNop())
	minutes := 5

	_, err := svc.Create(context.Background(), "user-1", dto.CreateIncidentRequest{
		RoomID:           "missing",
		ClassificationID: "cls-1",
		Priority:         "LOW",
		Description:      "x",
		NumericValue:     &minutes,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAssignAllowsReassignment(t *testing.T) {
	f := newIncidentFixture(lateEntryClassification())
	f.repo.incidents["inc-1"] = &models.Incident{ID: "inc-1", Status: models.IncidentStatusAssigned}

	incident, err := f.svc.Assign(context.Background(), "sup-1", "inc-1", dto.AssignIncidentRequest{AssigneeID: "op-2"})
	require.NoError(t, err)
	assert.Equal(t, models.IncidentStatusAssigned, incident.Status)
	assert.Equal(t, "op-2", f.repo.assigned["inc-1"])
}

func TestAssignRejectsClosedIncident(t *testing.T) {
	f := newIncidentFixture(lateEntryClassification())
	f.repo.incidents["inc-1"] = &models.Incident{ID: "inc-1", Status: models.IncidentStatusClosed}

	_, err := f.svc.Assign(context.Background(), "sup-1", "inc-1", dto.AssignIncidentRequest{AssigneeID: "op-2"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
}

func TestUpdateStatusRejectsInvalidTransition(t *testing.T) {
	f := newIncidentFixture(lateEntryClassification())
	f.repo.incidents["inc-1"] = &models.Incident{ID: "inc-1", Status: models.IncidentStatusNew}

	_, err := f.svc.UpdateStatus(context.Background(), "sup-1", "inc-1", dto.UpdateIncidentStatusRequest{Status: "RESOLVED"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
	assert.Empty(t, f.repo.statuses)
}

func TestUpdateStatusFollowsLifecycle(t *testing.T) {
	f := newIncidentFixture(lateEntryClassification())
	f.repo.incidents["inc-1"] = &models.Incident{ID: "inc-1", Status: models.IncidentStatusInProgress}

	incident, err := f.svc.UpdateStatus(context.Background(), "sup-1", "inc-1", dto.UpdateIncidentStatusRequest{Status: "RESOLVED"})
	require.NoError(t, err)
	assert.Equal(t, models.IncidentStatusResolved, incident.Status)
	assert.Equal(t, models.IncidentStatusResolved, f.repo.statuses["inc-1"])
}
