package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ultraval/secure-desk-api/internal/dto"
	"github.com/ultraval/secure-desk-api/internal/repository"
	appErrors "github.com/ultraval/secure-desk-api/pkg/errors"
)

type dailyIncidentSource interface {
	CountByStatusForDay(ctx context.Context, day time.Time) ([]repository.StatusCountRow, error)
	CountByPriorityForDay(ctx context.Context, day time.Time) ([]repository.StatusCountRow, error)
}

type dailyPaymentSource interface {
	SumForDay(ctx context.Context, day time.Time) (int, int64, error)
}

type dailyMovementSource interface {
	CountForDay(ctx context.Context, day time.Time) (int, error)
}

// DailyReportService assembles the consolidated per-day activity report.
type DailyReportService struct {
	incidents dailyIncidentSource
	payments  dailyPaymentSource
	movements dailyMovementSource
	cache     *CacheService
	logger    *zap.Logger
	cacheTTL  time.Duration
}

// NewDailyReportService constructs a DailyReportService.
func NewDailyReportService(incidents dailyIncidentSource, payments dailyPaymentSource, movements dailyMovementSource, cache *CacheService, logger *zap.Logger, cacheTTL time.Duration) *DailyReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DailyReportService{
		incidents: incidents,
		payments:  payments,
		movements: movements,
		cache:     cache,
		logger:    logger,
		cacheTTL:  cacheTTL,
	}
}

// Build returns the daily report for one calendar date. The bool reports
// whether the payload came from cache.
func (s *DailyReportService) Build(ctx context.Context, date string) (*dto.DailyReportResponse, bool, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}

	cacheKey := fmt.Sprintf("report:daily:%s", date)
	if s.cache.Enabled() {
		var cached dto.DailyReportResponse
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, true, nil
		}
	}

	byStatus, err := s.incidents.CountByStatusForDay(ctx, day)
	if err != nil {
		return nil, false, fmt.Errorf("daily incident status counts: %w", err)
	}
	byPriority, err := s.incidents.CountByPriorityForDay(ctx, day)
	if err != nil {
		return nil, false, fmt.Errorf("daily incident priority counts: %w", err)
	}
	paymentCount, paymentCents, err := s.payments.SumForDay(ctx, day)
	if err != nil {
		return nil, false, fmt.Errorf("daily payment totals: %w", err)
	}
	movementCount, err := s.movements.CountForDay(ctx, day)
	if err != nil {
		return nil, false, fmt.Errorf("daily movement count: %w", err)
	}

	resp := &dto.DailyReportResponse{
		Date: date,
		Incidents: dto.DailyIncidentSection{
			ByStatus:   map[string]int{},
			ByPriority: map[string]int{},
		},
		Payments:  dto.DailyPaymentSection{Count: paymentCount, TotalCents: paymentCents},
		Movements: dto.DailyMovementSection{Count: movementCount},
	}
	for _, row := range byStatus {
		resp.Incidents.ByStatus[row.Label] = row.Count
		resp.Incidents.Total += row.Count
	}
	for _, row := range byPriority {
		resp.Incidents.ByPriority[row.Label] = row.Count
	}

	if err := s.cache.Set(ctx, cacheKey, resp, s.cacheTTL); err != nil {
		s.logger.Warn("daily report cache write failed", zap.String("key", cacheKey), zap.Error(err))
	}
	return resp, false, nil
}
