package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ultraval/secure-desk-api/internal/middleware"
	"github.com/ultraval/secure-desk-api/internal/models"
	"github.com/ultraval/secure-desk-api/internal/service"
)

type fakeCounterRepo struct {
	monthRows []models.QuincenaCounter
}

func (f *fakeCounterRepo) Increment(ctx context.Context, inc models.CounterIncrement) error {
	return nil
}

func (f *fakeCounterRepo) FetchMonth(ctx context.Context, filter models.QuincenaStatsFilter) ([]models.QuincenaCounter, error) {
	return f.monthRows, nil
}

func (f *fakeCounterRepo) FetchYear(ctx context.Context, year int) ([]models.QuincenaCounter, error) {
	return nil, nil
}

type fakeRebuilder struct {
	from, to time.Time
	rebuilt  int
}

func (f *fakeRebuilder) RebuildWindow(ctx context.Context, from, to time.Time) (int, error) {
	f.from = from
	f.to = to
	return f.rebuilt, nil
}

func newQuincenaHandler(repo *fakeCounterRepo, rebuilder *fakeRebuilder) *QuincenaHandler {
	stats := service.NewQuincenaService(repo, nil, nil, zap.NewNop(), time.Minute)
	reconcile := service.NewReconcileService(rebuilder, nil, nil, zap.NewNop(), service.ReconcileConfig{Months: 2})
	return NewQuincenaHandler(stats, reconcile)
}

func TestQuincenaHandlerStatsRequiresYear(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newQuincenaHandler(&fakeCounterRepo{}, &fakeRebuilder{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/quincena/stats?month=3", nil)

	h.Stats(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuincenaHandlerStatsSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newQuincenaHandler(&fakeCounterRepo{monthRows: []models.QuincenaCounter{
		{RoomID: "r1", RoomName: "Room A", Year: 2025, Month: 3, Half: 1, MinutesLateEntries: 10, CountLateEntries: 1},
	}}, &fakeRebuilder{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/quincena/stats?year=2025&month=3", nil)

	h.Stats(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data struct {
			Rows []map[string]interface{} `json:"rows"`
		} `json:"data"`
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.Rows, 1)
	assert.Equal(t, "r1", envelope.Data.Rows[0]["room_id"])
	assert.Equal(t, false, envelope.Meta["cache_hit"])
}

func TestQuincenaHandlerCurrentResolvesPeriod(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newQuincenaHandler(&fakeCounterRepo{}, &fakeRebuilder{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/quincena/current", nil)

	h.Current(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data struct {
			Period models.Period `json:"period"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Contains(t, []int{1, 2}, envelope.Data.Period.Half)
	assert.NotZero(t, envelope.Data.Period.Year)
}

func TestQuincenaHandlerReconcile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rebuilder := &fakeRebuilder{rebuilt: 4}
	h := newQuincenaHandler(&fakeCounterRepo{}, rebuilder)

	body := strings.NewReader(`{"months":3}`)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/quincena/reconcile", body)
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin-1"})

	h.Reconcile(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data struct {
			BucketsRebuilt int    `json:"buckets_rebuilt"`
			Window         string `json:"window"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, 4, envelope.Data.BucketsRebuilt)
	assert.NotEmpty(t, envelope.Data.Window)
	assert.Equal(t, 3, int(rebuilder.to.Month())-int(rebuilder.from.Month())+12*(rebuilder.to.Year()-rebuilder.from.Year()))
}
