package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ultraval/secure-desk-api/internal/dto"
	"github.com/ultraval/secure-desk-api/internal/models"
	appErrors "github.com/ultraval/secure-desk-api/pkg/errors"
)

type mockRebuilder struct {
	from, to time.Time
	rebuilt  int
	err      error
	calls    int
}

func (m *mockRebuilder) RebuildWindow(ctx context.Context, from, to time.Time) (int, error) {
	m.calls++
	m.from = from
	m.to = to
	if m.err != nil {
		return 0, m.err
	}
	return m.rebuilt, nil
}

func newReconcileFixture(rebuilder *mockRebuilder, cfg ReconcileConfig) (*ReconcileService, *fakeCacheStore, *recordingAudit) {
	store := newFakeCacheStore()
	cache := NewCacheService(store, nil, time.Minute, zap.NewNop(), true)
	audit := &recordingAudit{}
	svc := NewReconcileService(rebuilder, cache, audit, zap.NewNop(), cfg)
	svc.now = func() time.Time { return time.Date(2025, time.March, 20, 10, 0, 0, 0, time.UTC) }
	return svc, store, audit
}

func TestReconcileDefaultWindowCoversTrailingMonths(t *testing.T) {
	rebuilder := &mockRebuilder{rebuilt: 6}
	svc, store, audit := newReconcileFixture(rebuilder, ReconcileConfig{Months: 2})
	store.entries["quincena:stats:2025:3:all"] = []byte(`{}`)

	res, err := svc.Run(context.Background(), "admin-1", dto.ReconcileRequest{})
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC), rebuilder.from)
	assert.Equal(t, time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC), rebuilder.to)
	assert.Equal(t, 6, res.BucketsRebuilt)
	assert.Equal(t, "2025-02-01..2025-04-01", res.Window)
	assert.Empty(t, store.entries)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionReconcile, audit.logs[0].Action)
}

func TestReconcileHonorsRequestedMonths(t *testing.T) {
	rebuilder := &mockRebuilder{}
	svc, _, _ := newReconcileFixture(rebuilder, ReconcileConfig{Months: 2})

	_, err := svc.Run(context.Background(), "", dto.ReconcileRequest{Months: 6})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.October, 1, 0, 0, 0, 0, time.UTC), rebuilder.from)
}

func TestReconcileRejectsWindowBeyondCap(t *testing.T) {
	rebuilder := &mockRebuilder{}
	svc, _, audit := newReconcileFixture(rebuilder, ReconcileConfig{Months: 2})

	_, err := svc.Run(context.Background(), "", dto.ReconcileRequest{Months: 1000})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Zero(t, rebuilder.calls)
	assert.Empty(t, audit.logs)

	_, err = svc.Run(context.Background(), "", dto.ReconcileRequest{Months: -1})
	require.Error(t, err)
	assert.Zero(t, rebuilder.calls)
}

func TestReconcileAcceptsWidestAllowedWindow(t *testing.T) {
	rebuilder := &mockRebuilder{}
	svc, _, _ := newReconcileFixture(rebuilder, ReconcileConfig{Months: 2})

	_, err := svc.Run(context.Background(), "", dto.ReconcileRequest{Months: 24})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, time.April, 1, 0, 0, 0, 0, time.UTC), rebuilder.from)
}

func TestReconcileFullRebuildsFromFloor(t *testing.T) {
	rebuilder := &mockRebuilder{}
	svc, _, _ := newReconcileFixture(rebuilder, ReconcileConfig{Months: 2})

	_, err := svc.Run(context.Background(), "", dto.ReconcileRequest{Full: true})
	require.NoError(t, err)
	assert.Equal(t, reconcileFloor, rebuilder.from)
	assert.Equal(t, time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC), rebuilder.to)
}

func TestReconcilePropagatesRebuildFailure(t *testing.T) {
	rebuilder := &mockRebuilder{err: assert.AnError}
	svc, store, audit := newReconcileFixture(rebuilder, ReconcileConfig{Months: 2})
	store.entries["quincena:timeline:2025"] = []byte(`{}`)

	_, err := svc.Run(context.Background(), "", dto.ReconcileRequest{})
	require.Error(t, err)
	assert.NotEmpty(t, store.entries)
	assert.Empty(t, audit.logs)
}
