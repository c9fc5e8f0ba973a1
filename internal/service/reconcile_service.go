package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/ultraval/secure-desk-api/internal/dto"
	"github.com/ultraval/secure-desk-api/internal/models"
	appErrors "github.com/ultraval/secure-desk-api/pkg/errors"
)

// Counters start in January 2000; a full rebuild never needs to look
// further back.
var reconcileFloor = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// Manual runs may widen the window, but never past two years; anything
// older goes through a full rebuild instead.
const maxReconcileMonths = 24

type counterRebuilder interface {
	RebuildWindow(ctx context.Context, from, to time.Time) (int, error)
}

// ReconcileConfig drives the scheduled counter rebuild.
type ReconcileConfig struct {
	Schedule string
	Months   int
	Enabled  bool
}

// ReconcileService recomputes counter buckets from the incident log. The
// additive live path is best effort, so a periodic rebuild keeps the
// counters equal to what the incidents imply.
type ReconcileService struct {
	repo   counterRebuilder
	cache  *CacheService
	audit  auditWriter
	logger *zap.Logger
	config ReconcileConfig
	cron   *cron.Cron
	now    func() time.Time
}

// NewReconcileService constructs a ReconcileService.
func NewReconcileService(repo counterRebuilder, cache *CacheService, audit auditWriter, logger *zap.Logger, config ReconcileConfig) *ReconcileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Months < 1 {
		config.Months = 2
	}
	return &ReconcileService{
		repo:   repo,
		cache:  cache,
		audit:  audit,
		logger: logger,
		config: config,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Start schedules the periodic rebuild. No-op when disabled.
func (s *ReconcileService) Start() error {
	if !s.config.Enabled {
		s.logger.Info("scheduled counter reconciliation disabled")
		return nil
	}
	s.cron = cron.New(cron.WithSeconds(), cron.WithLocation(time.UTC))
	_, err := s.cron.AddFunc(s.config.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := s.Run(ctx, "", dto.ReconcileRequest{}); err != nil {
			s.logger.Error("scheduled counter reconciliation failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule reconciliation %q: %w", s.config.Schedule, err)
	}
	s.cron.Start()
	s.logger.Info("scheduled counter reconciliation started", zap.String("schedule", s.config.Schedule))
	return nil
}

// Stop halts the scheduler and waits for a running job to finish.
func (s *ReconcileService) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}

// Run rebuilds counter buckets inside the requested window. With no options
// the window covers the configured number of trailing months including the
// current one; Full extends it over the whole history.
func (s *ReconcileService) Run(ctx context.Context, actorID string, req dto.ReconcileRequest) (*dto.ReconcileResponse, error) {
	if req.Months < 0 || req.Months > maxReconcileMonths {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("months must be between 1 and %d", maxReconcileMonths))
	}
	months := s.config.Months
	if req.Months > 0 {
		months = req.Months
	}

	now := s.now()
	to := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	from := to.AddDate(0, -months, 0)
	if req.Full {
		from = reconcileFloor
	}

	started := s.now()
	rebuilt, err := s.repo.RebuildWindow(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("rebuild counter window: %w", err)
	}

	if err := s.cache.Invalidate(ctx, "quincena:*"); err != nil {
		s.logger.Warn("cache invalidation after reconciliation failed", zap.Error(err))
	}

	window := fmt.Sprintf("%s..%s", from.Format("2006-01-02"), to.Format("2006-01-02"))
	s.logger.Info("counter reconciliation finished",
		zap.String("window", window),
		zap.Int("buckets_rebuilt", rebuilt),
		zap.Duration("took", s.now().Sub(started)))

	if s.audit != nil {
		entry := &models.AuditLog{
			Action:    models.AuditActionReconcile,
			Resource:  "quincena_counters",
			NewValues: []byte(fmt.Sprintf(`{"window":%q,"buckets_rebuilt":%d}`, window, rebuilt)),
		}
		if actorID != "" {
			entry.UserID = &actorID
		}
		if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
			s.logger.Warn("failed to record reconciliation audit log", zap.Error(err))
		}
	}

	return &dto.ReconcileResponse{BucketsRebuilt: rebuilt, Window: window}, nil
}
