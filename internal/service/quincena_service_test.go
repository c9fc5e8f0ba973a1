package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ultraval/secure-desk-api/internal/models"
	appErrors "github.com/ultraval/secure-desk-api/pkg/errors"
)

// fakeCacheStore is an in-memory CacheRepository for exercising the
// cache-aside paths without Redis.
type fakeCacheStore struct {
	entries map[string][]byte
}

func newFakeCacheStore() *fakeCacheStore {
	return &fakeCacheStore{entries: make(map[string][]byte)}
}

func (f *fakeCacheStore) Get(ctx context.Context, key string, dest interface{}) error {
	data, ok := f.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (f *fakeCacheStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.entries[key] = data
	return nil
}

func (f *fakeCacheStore) DeleteByPattern(ctx context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range f.entries {
		if strings.HasPrefix(key, prefix) {
			delete(f.entries, key)
		}
	}
	return nil
}

type mockCounterRepo struct {
	increments   []models.CounterIncrement
	incrementErr error
	monthRows    []models.QuincenaCounter
	monthErr     error
	yearRows     map[int][]models.QuincenaCounter
	monthCalls   int
}

func (m *mockCounterRepo) Increment(ctx context.Context, inc models.CounterIncrement) error {
	if m.incrementErr != nil {
		return m.incrementErr
	}
	m.increments = append(m.increments, inc)
	return nil
}

func (m *mockCounterRepo) FetchMonth(ctx context.Context, filter models.QuincenaStatsFilter) ([]models.QuincenaCounter, error) {
	m.monthCalls++
	if m.monthErr != nil {
		return nil, m.monthErr
	}
	return m.monthRows, nil
}

func (m *mockCounterRepo) FetchYear(ctx context.Context, year int) ([]models.QuincenaCounter, error) {
	return m.yearRows[year], nil
}

func newQuincenaFixture(repo *mockCounterRepo) (*QuincenaService, *fakeCacheStore) {
	store := newFakeCacheStore()
	cache := NewCacheService(store, nil, time.Minute, zap.NewNop(), true)
	svc := NewQuincenaService(repo, cache, nil, zap.NewNop(), time.Minute)
	return svc, store
}

func TestRecordDefaultsDateAndInvalidatesCache(t *testing.T) {
	repo := &mockCounterRepo{}
	svc, store := newQuincenaFixture(repo)
	store.entries["quincena:stats:2025:3:all"] = []byte(`{}`)

	err := svc.Record(context.Background(), models.CounterIncrement{
		RoomID:   "room-1",
		Category: models.CategoryLateEntry,
		Value:    12,
	})
	require.NoError(t, err)
	require.Len(t, repo.increments, 1)
	assert.False(t, repo.increments[0].Date.IsZero())
	assert.Empty(t, store.entries)
}

func TestRecordRejectsNegativeValue(t *testing.T) {
	repo := &mockCounterRepo{}
	svc, _ := newQuincenaFixture(repo)

	err := svc.Record(context.Background(), models.CounterIncrement{
		RoomID:   "room-1",
		Category: models.CategoryLateEntry,
		Value:    -1,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.increments)
}

func TestMonthStatsShapesRowsAndTotals(t *testing.T) {
	repo := &mockCounterRepo{monthRows: []models.QuincenaCounter{
		{RoomID: "r1", RoomName: "Room A", Year: 2025, Month: 3, Half: 1, MinutesLateEntries: 20, CountLateEntries: 2},
		{RoomID: "r1", RoomName: "Room A", Year: 2025, Month: 3, Half: 2, MinutesEarlyClosure: 15, CountEarlyClosure: 1},
		{RoomID: "r2", RoomName: "Room B", Year: 2025, Month: 3, Half: 1, MinutesLateEntries: 5, CountLateEntries: 1},
	}}
	svc, _ := newQuincenaFixture(repo)

	res, cached, err := svc.MonthStats(context.Background(), models.QuincenaStatsFilter{Year: 2025, Month: 3})
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Len(t, res.Rows, 3)
	require.Len(t, res.Totals, 2)

	roomA := res.Totals[0]
	assert.Equal(t, "r1", roomA.RoomID)
	assert.Equal(t, 20, roomA.MinutesLate)
	assert.Equal(t, 15, roomA.MinutesEarly)
	assert.Equal(t, 35, roomA.TotalMinutes)
	assert.Equal(t, 3, roomA.TotalCount)

	roomB := res.Totals[1]
	assert.Equal(t, "r2", roomB.RoomID)
	assert.Equal(t, 5, roomB.TotalMinutes)
	assert.Equal(t, 1, roomB.TotalCount)
}

func TestMonthStatsRejectsBadMonth(t *testing.T) {
	svc, _ := newQuincenaFixture(&mockCounterRepo{})

	_, _, err := svc.MonthStats(context.Background(), models.QuincenaStatsFilter{Year: 2025, Month: 13})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestMonthStatsServedFromCache(t *testing.T) {
	repo := &mockCounterRepo{monthRows: []models.QuincenaCounter{
		{RoomID: "r1", RoomName: "Room A", Year: 2025, Month: 3, Half: 1, MinutesLateEntries: 20},
	}}
	svc, _ := newQuincenaFixture(repo)

	_, cached, err := svc.MonthStats(context.Background(), models.QuincenaStatsFilter{Year: 2025, Month: 3})
	require.NoError(t, err)
	assert.False(t, cached)

	res, cached, err := svc.MonthStats(context.Background(), models.QuincenaStatsFilter{Year: 2025, Month: 3})
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, 1, repo.monthCalls)
	assert.Len(t, res.Rows, 1)
}

func TestTimelineSpansTwoYears(t *testing.T) {
	repo := &mockCounterRepo{yearRows: map[int][]models.QuincenaCounter{
		2025: {{Year: 2025, Month: 1, Half: 1, MinutesLateEntries: 10}},
		2024: {{Year: 2024, Month: 12, Half: 2, MinutesEarlyClosure: 7}},
	}}
	svc, _ := newQuincenaFixture(repo)

	res, cached, err := svc.Timeline(context.Background(), 2025)
	require.NoError(t, err)
	assert.False(t, cached)
	require.Len(t, res.Current, 1)
	require.Len(t, res.Previous, 1)
	assert.Equal(t, 10, res.Current[0].MinutesLate)
	assert.Equal(t, 7, res.Previous[0].MinutesEarly)
}

func TestTimelineEmptyYearYieldsEmptySeries(t *testing.T) {
	svc, _ := newQuincenaFixture(&mockCounterRepo{yearRows: map[int][]models.QuincenaCounter{}})

	res, _, err := svc.Timeline(context.Background(), 2025)
	require.NoError(t, err)
	assert.Empty(t, res.Current)
	assert.Empty(t, res.Previous)
}

func TestCurrentPeriodBoundary(t *testing.T) {
	svc, _ := newQuincenaFixture(&mockCounterRepo{})

	svc.now = func() time.Time { return time.Date(2025, time.March, 15, 23, 59, 0, 0, time.UTC) }
	res := svc.CurrentPeriod()
	assert.Equal(t, models.Period{Year: 2025, Month: 3, Half: 1}, res.Period)

	svc.now = func() time.Time { return time.Date(2025, time.March, 16, 0, 0, 1, 0, time.UTC) }
	res = svc.CurrentPeriod()
	assert.Equal(t, models.Period{Year: 2025, Month: 3, Half: 2}, res.Period)
}
