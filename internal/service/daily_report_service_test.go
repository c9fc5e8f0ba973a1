package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ultraval/secure-desk-api/internal/repository"
	appErrors "github.com/ultraval/secure-desk-api/pkg/errors"
)

type stubDailyIncidents struct {
	byStatus   []repository.StatusCountRow
	byPriority []repository.StatusCountRow
	calls      int
}

func (s *stubDailyIncidents) CountByStatusForDay(ctx context.Context, day time.Time) ([]repository.StatusCountRow, error) {
	s.calls++
	return s.byStatus, nil
}

func (s *stubDailyIncidents) CountByPriorityForDay(ctx context.Context, day time.Time) ([]repository.StatusCountRow, error) {
	return s.byPriority, nil
}

type stubDailyPayments struct {
	count int
	cents int64
}

func (s *stubDailyPayments) SumForDay(ctx context.Context, day time.Time) (int, int64, error) {
	return s.count, s.cents, nil
}

type stubDailyMovements struct {
	count int
}

func (s *stubDailyMovements) CountForDay(ctx context.Context, day time.Time) (int, error) {
	return s.count, nil
}

func newDailyFixture(incidents *stubDailyIncidents) *DailyReportService {
	store := newFakeCacheStore()
	cache := NewCacheService(store, nil, time.Minute, zap.NewNop(), true)
	return NewDailyReportService(incidents, &stubDailyPayments{count: 3, cents: 45000}, &stubDailyMovements{count: 2}, cache, zap.NewNop(), time.Minute)
}

func TestDailyReportAssemblesSections(t *testing.T) {
	incidents := &stubDailyIncidents{
		byStatus: []repository.StatusCountRow{
			{Label: "NEW", Count: 4},
			{Label: "CLOSED", Count: 1},
		},
		byPriority: []repository.StatusCountRow{
			{Label: "HIGH", Count: 2},
			{Label: "LOW", Count: 3},
		},
	}
	svc := newDailyFixture(incidents)

	res, cached, err := svc.Build(context.Background(), "2025-03-20")
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, "2025-03-20", res.Date)
	assert.Equal(t, 5, res.Incidents.Total)
	assert.Equal(t, 4, res.Incidents.ByStatus["NEW"])
	assert.Equal(t, 2, res.Incidents.ByPriority["HIGH"])
	assert.Equal(t, 3, res.Payments.Count)
	assert.Equal(t, int64(45000), res.Payments.TotalCents)
	assert.Equal(t, 2, res.Movements.Count)
}

func TestDailyReportRejectsBadDate(t *testing.T) {
	svc := newDailyFixture(&stubDailyIncidents{})

	_, _, err := svc.Build(context.Background(), "20-03-2025")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestDailyReportServedFromCache(t *testing.T) {
	incidents := &stubDailyIncidents{byStatus: []repository.StatusCountRow{{Label: "NEW", Count: 1}}}
	svc := newDailyFixture(incidents)

	_, cached, err := svc.Build(context.Background(), "2025-03-20")
	require.NoError(t, err)
	assert.False(t, cached)

	res, cached, err := svc.Build(context.Background(), "2025-03-20")
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, 1, incidents.calls)
	assert.Equal(t, 1, res.Incidents.Total)
}
