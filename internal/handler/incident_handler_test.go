package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ultraval/secure-desk-api/internal/middleware"
	"github.com/ultraval/secure-desk-api/internal/models"
	"github.com/ultraval/secure-desk-api/internal/service"
)

type fakeIncidentRepo struct {
	incidents map[string]*models.Incident
}

func (f *fakeIncidentRepo) Create(ctx context.Context, incident *models.Incident) error {
	incident.ID = "inc-1"
	f.incidents[incident.ID] = incident
	return nil
}

func (f *fakeIncidentRepo) GetByID(ctx context.Context, id string) (*models.Incident, error) {
	incident, ok := f.incidents[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return incident, nil
}

func (f *fakeIncidentRepo) List(ctx context.Context, filter models.IncidentFilter) ([]models.Incident, int, error) {
	out := make([]models.Incident, 0, len(f.incidents))
	for _, incident := range f.incidents {
		out = append(out, *incident)
	}
	return out, len(out), nil
}

func (f *fakeIncidentRepo) Assign(ctx context.Context, id, assigneeID string) error {
	return nil
}

func (f *fakeIncidentRepo) UpdateStatus(ctx context.Context, id string, status models.IncidentStatus) error {
	return nil
}

type fakeClassifications struct {
	classification *models.Classification
}

func (f *fakeClassifications) GetByID(ctx context.Context, id string) (*models.Classification, error) {
	return f.classification, nil
}

type fakeRooms struct{}

func (f *fakeRooms) GetByID(ctx context.Context, id string) (*models.Room, error) {
	return &models.Room{ID: id, Name: "Room A", Active: true}, nil
}

type fakeRecorder struct {
	err error
}

func (f *fakeRecorder) Record(ctx context.Context, inc models.CounterIncrement) error {
	return f.err
}

func newIncidentHandler(recorder *fakeRecorder) (*IncidentHandler, *fakeIncidentRepo) {
	repo := &fakeIncidentRepo{incidents: make(map[string]*models.Incident)}
	classification := &models.Classification{
		ID:     "cls-1",
		Name:   "Late entry",
		Active: true,
		NumericRule: models.NumericRule{
			Enabled:  true,
			Unit:     models.UnitMinutes,
			Category: models.CategoryLateEntry,
		},
	}
	svc := service.NewIncidentService(repo, &fakeClassifications{classification: classification}, &fakeRooms{}, recorder, nil, nil, nil, zap.NewNop())
	return NewIncidentHandler(svc), repo
}

func postJSON(path, payload string) (*httptest.ResponseRecorder, *gin.Context) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, path, strings.NewReader(payload))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "op-1"})
	return rec, c
}

func TestIncidentHandlerCreateInvalidJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, _ := newIncidentHandler(&fakeRecorder{})

	rec, c := postJSON("/incidents", `{`)
	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIncidentHandlerCreateNumericRequired(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, repo := newIncidentHandler(&fakeRecorder{})

	rec, c := postJSON("/incidents", `{"room_id":"room-1","classification_id":"cls-1","priority":"LOW","description":"late"}`)
	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, repo.incidents)
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "NUMERIC_VALUE_REQUIRED", envelope.Error.Code)
}

func TestIncidentHandlerCreateSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, _ := newIncidentHandler(&fakeRecorder{})

	rec, c := postJSON("/incidents", `{"room_id":"room-1","classification_id":"cls-1","priority":"MEDIUM","description":"late","numeric_value":12}`)
	h.Create(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	var envelope struct {
		Data struct {
			Aggregation string `json:"aggregation"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, service.AggregationOK, envelope.Data.Aggregation)
}

func TestIncidentHandlerCreateDegraded(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, repo := newIncidentHandler(&fakeRecorder{err: assert.AnError})

	rec, c := postJSON("/incidents", `{"room_id":"room-1","classification_id":"cls-1","priority":"MEDIUM","description":"late","numeric_value":12}`)
	h.Create(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, repo.incidents, 1)
	var envelope struct {
		Data struct {
			Aggregation string `json:"aggregation"`
		} `json:"data"`
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, service.AggregationDegraded, envelope.Data.Aggregation)
	assert.Equal(t, true, envelope.Meta["degraded"])
}

func TestIncidentHandlerUpdateStatusInvalidTransition(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, repo := newIncidentHandler(&fakeRecorder{})
	repo.incidents["inc-9"] = &models.Incident{ID: "inc-9", Status: models.IncidentStatusNew}

	rec, c := postJSON("/incidents/inc-9/status", `{"status":"RESOLVED"}`)
	c.Params = gin.Params{{Key: "id", Value: "inc-9"}}
	h.UpdateStatus(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestIncidentHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, _ := newIncidentHandler(&fakeRecorder{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/incidents/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	h.Get(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
