package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ultraval/secure-desk-api/internal/dto"
	"github.com/ultraval/secure-desk-api/internal/models"
	appErrors "github.com/ultraval/secure-desk-api/pkg/errors"
)

type quincenaCounterRepository interface {
	Increment(ctx context.Context, inc models.CounterIncrement) error
	FetchMonth(ctx context.Context, filter models.QuincenaStatsFilter) ([]models.QuincenaCounter, error)
	FetchYear(ctx context.Context, year int) ([]models.QuincenaCounter, error)
}

// QuincenaService owns the biweekly accumulation domain: recording
// increments, shaping the reporting payloads and resolving periods.
type QuincenaService struct {
	repo     quincenaCounterRepository
	cache    *CacheService
	metrics  *MetricsService
	logger   *zap.Logger
	cacheTTL time.Duration
	now      func() time.Time
}

// NewQuincenaService constructs a QuincenaService.
func NewQuincenaService(repo quincenaCounterRepository, cache *CacheService, metrics *MetricsService, logger *zap.Logger, cacheTTL time.Duration) *QuincenaService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuincenaService{
		repo:     repo,
		cache:    cache,
		metrics:  metrics,
		logger:   logger,
		cacheTTL: cacheTTL,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Record applies one additive counter update and invalidates cached views.
func (s *QuincenaService) Record(ctx context.Context, inc models.CounterIncrement) error {
	if inc.RoomID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "room id is required")
	}
	if inc.Value < 0 {
		return appErrors.Clone(appErrors.ErrValidation, "counter value must not be negative")
	}
	if inc.Date.IsZero() {
		inc.Date = s.now()
	}
	if err := s.repo.Increment(ctx, inc); err != nil {
		return fmt.Errorf("record counter increment: %w", err)
	}
	s.invalidate(ctx)
	return nil
}

// MonthStats returns per-room, per-half rows for one month plus per-room
// totals. The bool reports whether the payload came from cache.
func (s *QuincenaService) MonthStats(ctx context.Context, filter models.QuincenaStatsFilter) (*dto.MonthStatsResponse, bool, error) {
	if filter.Year < 2000 || filter.Year > 2100 {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "year out of range")
	}
	if filter.Month < 1 || filter.Month > 12 {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "month must be between 1 and 12")
	}

	room := filter.RoomID
	if room == "" {
		room = "all"
	}
	cacheKey := fmt.Sprintf("quincena:stats:%d:%d:%s", filter.Year, filter.Month, room)
	if s.cache.Enabled() {
		var cached dto.MonthStatsResponse
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, true, nil
		}
	}

	counters, err := s.repo.FetchMonth(ctx, filter)
	if err != nil {
		return nil, false, fmt.Errorf("load month stats: %w", err)
	}

	resp := &dto.MonthStatsResponse{
		Year:   filter.Year,
		Month:  filter.Month,
		Rows:   make([]dto.PeriodStatsRow, 0, len(counters)),
		Totals: []dto.RoomTotals{},
	}
	if filter.RoomID != "" {
		resp.RoomID = &filter.RoomID
	}

	totalsIndex := map[string]int{}
	for _, c := range counters {
		resp.Rows = append(resp.Rows, dto.PeriodStatsRow{
			RoomID:       c.RoomID,
			RoomName:     c.RoomName,
			Year:         c.Year,
			Month:        c.Month,
			Half:         c.Half,
			MinutesLate:  c.MinutesLateEntries,
			MinutesEarly: c.MinutesEarlyClosure,
			CountLate:    c.CountLateEntries,
			CountEarly:   c.CountEarlyClosure,
		})
		idx, seen := totalsIndex[c.RoomID]
		if !seen {
			resp.Totals = append(resp.Totals, dto.RoomTotals{RoomID: c.RoomID, RoomName: c.RoomName})
			idx = len(resp.Totals) - 1
			totalsIndex[c.RoomID] = idx
		}
		t := &resp.Totals[idx]
		t.MinutesLate += c.MinutesLateEntries
		t.MinutesEarly += c.MinutesEarlyClosure
		t.CountLate += c.CountLateEntries
		t.CountEarly += c.CountEarlyClosure
		t.TotalMinutes += c.MinutesLateEntries + c.MinutesEarlyClosure
		t.TotalCount += c.CountLateEntries + c.CountEarlyClosure
	}

	if err := s.cache.Set(ctx, cacheKey, resp, s.cacheTTL); err != nil {
		s.logger.Warn("month stats cache write failed", zap.String("key", cacheKey), zap.Error(err))
	}
	return resp, false, nil
}

// Timeline returns period aggregates across all rooms for the requested
// year and the previous one. Missing data yields empty series.
func (s *QuincenaService) Timeline(ctx context.Context, year int) (*dto.TimelineResponse, bool, error) {
	if year < 2000 || year > 2100 {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "year out of range")
	}

	cacheKey := fmt.Sprintf("quincena:timeline:%d", year)
	if s.cache.Enabled() {
		var cached dto.TimelineResponse
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, true, nil
		}
	}

	current, err := s.repo.FetchYear(ctx, year)
	if err != nil {
		return nil, false, fmt.Errorf("load timeline year %d: %w", year, err)
	}
	previous, err := s.repo.FetchYear(ctx, year-1)
	if err != nil {
		return nil, false, fmt.Errorf("load timeline year %d: %w", year-1, err)
	}

	resp := &dto.TimelineResponse{
		Year:     year,
		Current:  timelinePoints(current),
		Previous: timelinePoints(previous),
	}
	if err := s.cache.Set(ctx, cacheKey, resp, s.cacheTTL); err != nil {
		s.logger.Warn("timeline cache write failed", zap.String("key", cacheKey), zap.Error(err))
	}
	return resp, false, nil
}

// CurrentPeriod resolves the server-side period for right now. Clients never
// compute the half themselves.
func (s *QuincenaService) CurrentPeriod() dto.CurrentPeriodResponse {
	now := s.now()
	return dto.CurrentPeriodResponse{
		Period: models.ResolvePeriod(now),
		Date:   now.Format("2006-01-02"),
	}
}

func (s *QuincenaService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, "quincena:*"); err != nil {
		s.logger.Warn("quincena cache invalidation failed", zap.Error(err))
	}
}

func timelinePoints(counters []models.QuincenaCounter) []dto.TimelinePoint {
	points := make([]dto.TimelinePoint, 0, len(counters))
	for _, c := range counters {
		points = append(points, dto.TimelinePoint{
			Year:         c.Year,
			Month:        c.Month,
			Half:         c.Half,
			MinutesLate:  c.MinutesLateEntries,
			MinutesEarly: c.MinutesEarlyClosure,
			CountLate:    c.CountLateEntries,
			CountEarly:   c.CountEarlyClosure,
		})
	}
	return points
}
