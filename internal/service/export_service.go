package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ultraval/secure-desk-api/internal/dto"
	"github.com/ultraval/secure-desk-api/internal/models"
	appErrors "github.com/ultraval/secure-desk-api/pkg/errors"
	"github.com/ultraval/secure-desk-api/pkg/export"
	"github.com/ultraval/secure-desk-api/pkg/jobs"
	"github.com/ultraval/secure-desk-api/pkg/storage"
)

type exportJobRepository interface {
	Create(ctx context.Context, job *models.ExportJob) error
	GetByID(ctx context.Context, id string) (*models.ExportJob, error)
	UpdateProgress(ctx context.Context, id string, status models.ExportStatus, progress int) error
	MarkFinished(ctx context.Context, id, resultURL string, finishedAt time.Time) error
	MarkFailed(ctx context.Context, id, message string, finishedAt time.Time) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

type monthStatsSource interface {
	MonthStats(ctx context.Context, filter models.QuincenaStatsFilter) (*dto.MonthStatsResponse, bool, error)
}

type dailyReportSource interface {
	Build(ctx context.Context, date string) (*dto.DailyReportResponse, bool, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(table export.Table) ([]byte, error)
}

type pdfRenderer interface {
	Render(table export.Table, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix         string
	ResultTTL         time.Duration
	WorkerConcurrency int
	WorkerRetries     int
}

// ExportService queues report exports, renders them in the background and
// hands out signed download URLs.
type ExportService struct {
	repo      exportJobRepository
	quincena  monthStatsSource
	daily     dailyReportSource
	storage   fileStorage
	csv       csvRenderer
	pdf       pdfRenderer
	signer    *storage.SignedURLSigner
	queue     *jobs.Queue
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ExportConfig
}

// NewExportService constructs an ExportService with its own worker queue.
func NewExportService(repo exportJobRepository, quincena monthStatsSource, daily dailyReportSource, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, validate *validator.Validate, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	s := &ExportService{
		repo:      repo,
		quincena:  quincena,
		daily:     daily,
		storage:   store,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		signer:    signer,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
	s.queue = jobs.NewQueue("exports", s.process, jobs.QueueConfig{
		Workers:    cfg.WorkerConcurrency,
		MaxRetries: cfg.WorkerRetries,
		Logger:     logger,
	})
	return s
}

// Start begins background workers.
func (s *ExportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the worker pool.
func (s *ExportService) Stop() {
	s.queue.Stop()
}

// Queue validates the request, persists a QUEUED job and enqueues it.
func (s *ExportService) Queue(ctx context.Context, actorID string, req dto.ExportRequest) (*dto.ExportJobResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export payload")
	}
	switch req.Type {
	case models.ExportTypeQuincena:
		if req.Year == 0 || req.Month == 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "quincena exports require year and month")
		}
	case models.ExportTypeDaily:
		if req.Date == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "daily exports require a date")
		}
	}

	job := &models.ExportJob{
		ID:   uuid.NewString(),
		Type: req.Type,
		Params: models.ExportJobParams{
			Year:   req.Year,
			Month:  req.Month,
			Date:   req.Date,
			RoomID: req.RoomID,
			Format: req.Format,
		},
		Status:    models.ExportStatusQueued,
		CreatedBy: actorID,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("persist export job: %w", err)
	}

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(job.Type)}); err != nil {
		now := time.Now().UTC()
		if markErr := s.repo.MarkFailed(ctx, job.ID, "queue unavailable", now); markErr != nil {
			s.logger.Warn("failed to mark unqueued export job", zap.String("job_id", job.ID), zap.Error(markErr))
		}
		return nil, fmt.Errorf("enqueue export job: %w", err)
	}

	return &dto.ExportJobResponse{ID: job.ID, Status: job.Status, Progress: job.Progress}, nil
}

// Status returns the current state of an export job.
func (s *ExportService) Status(ctx context.Context, id string) (*dto.ExportStatusResponse, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, fmt.Errorf("load export job: %w", err)
	}
	return &dto.ExportStatusResponse{
		ID:        job.ID,
		Status:    job.Status,
		Progress:  job.Progress,
		ResultURL: job.ResultURL,
		Error:     job.ErrorMessage,
	}, nil
}

// Download validates a signed token and opens the underlying file.
func (s *ExportService) Download(token string) (*os.File, string, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "export file no longer available")
	}
	return file, relPath, nil
}

// Cleanup removes expired artifacts and stale job rows.
func (s *ExportService) Cleanup(ctx context.Context) {
	deleted, err := s.storage.CleanupOlderThan(s.cfg.ResultTTL)
	if err != nil {
		s.logger.Warn("export artifact cleanup failed", zap.Error(err))
	} else if len(deleted) > 0 {
		s.logger.Info("expired export artifacts removed", zap.Int("count", len(deleted)))
	}
	purged, err := s.repo.DeleteOlderThan(ctx, time.Now().UTC().Add(-2*s.cfg.ResultTTL))
	if err != nil {
		s.logger.Warn("export job cleanup failed", zap.Error(err))
	} else if purged > 0 {
		s.logger.Info("stale export jobs purged", zap.Int("count", purged))
	}
}

func (s *ExportService) process(ctx context.Context, queued jobs.Job) error {
	job, err := s.repo.GetByID(ctx, queued.ID)
	if err != nil {
		return fmt.Errorf("load queued export job: %w", err)
	}
	if job.Status == models.ExportStatusFinished || job.Status == models.ExportStatusFailed {
		return nil
	}

	if err := s.repo.UpdateProgress(ctx, job.ID, models.ExportStatusProcessing, 10); err != nil {
		s.logger.Warn("failed to mark export job processing", zap.String("job_id", job.ID), zap.Error(err))
	}

	table, title, err := s.buildTable(ctx, job)
	if err != nil {
		return s.fail(ctx, job, err)
	}

	var payload []byte
	switch job.Params.Format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(table)
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(table, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return s.fail(ctx, job, err)
	}

	relPath, err := s.storage.Save(s.buildFilename(job), payload)
	if err != nil {
		return s.fail(ctx, job, err)
	}

	token, _, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return s.fail(ctx, job, err)
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	resultURL := fmt.Sprintf("%s/exports/download?token=%s", prefix, token)

	if err := s.repo.MarkFinished(ctx, job.ID, resultURL, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark export job finished: %w", err)
	}
	s.logger.Info("export job finished", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
	return nil
}

func (s *ExportService) fail(ctx context.Context, job *models.ExportJob, cause error) error {
	s.logger.Error("export job failed", zap.String("job_id", job.ID), zap.Error(cause))
	if err := s.repo.MarkFailed(ctx, job.ID, cause.Error(), time.Now().UTC()); err != nil {
		s.logger.Warn("failed to mark export job failed", zap.String("job_id", job.ID), zap.Error(err))
	}
	return nil
}

func (s *ExportService) buildTable(ctx context.Context, job *models.ExportJob) (export.Table, string, error) {
	switch job.Type {
	case models.ExportTypeQuincena:
		filter := models.QuincenaStatsFilter{Year: job.Params.Year, Month: job.Params.Month}
		if job.Params.RoomID != nil {
			filter.RoomID = *job.Params.RoomID
		}
		stats, _, err := s.quincena.MonthStats(ctx, filter)
		if err != nil {
			return export.Table{}, "", fmt.Errorf("build quincena dataset: %w", err)
		}
		table := export.Table{
			Columns: []string{"Room", "Half", "Minutes Late", "Late Entries", "Minutes Early", "Early Closures"},
		}
		for _, row := range stats.Rows {
			table.Rows = append(table.Rows, []string{
				row.RoomName,
				strconv.Itoa(row.Half),
				strconv.Itoa(row.MinutesLate),
				strconv.Itoa(row.CountLate),
				strconv.Itoa(row.MinutesEarly),
				strconv.Itoa(row.CountEarly),
			})
		}
		title := fmt.Sprintf("Quincena report %d-%02d", stats.Year, stats.Month)
		return table, title, nil
	case models.ExportTypeDaily:
		report, _, err := s.daily.Build(ctx, job.Params.Date)
		if err != nil {
			return export.Table{}, "", fmt.Errorf("build daily dataset: %w", err)
		}
		table := export.Table{Columns: []string{"Section", "Metric", "Value"}}
		table.Rows = append(table.Rows, []string{"incidents", "total", strconv.Itoa(report.Incidents.Total)})
		for _, status := range sortedKeys(report.Incidents.ByStatus) {
			table.Rows = append(table.Rows, []string{"incidents", "status:" + status, strconv.Itoa(report.Incidents.ByStatus[status])})
		}
		for _, priority := range sortedKeys(report.Incidents.ByPriority) {
			table.Rows = append(table.Rows, []string{"incidents", "priority:" + priority, strconv.Itoa(report.Incidents.ByPriority[priority])})
		}
		table.Rows = append(table.Rows,
			[]string{"payments", "count", strconv.Itoa(report.Payments.Count)},
			[]string{"payments", "total_cents", strconv.FormatInt(report.Payments.TotalCents, 10)},
			[]string{"movements", "count", strconv.Itoa(report.Movements.Count)},
		)
		return table, "Daily report " + report.Date, nil
	default:
		return export.Table{}, "", fmt.Errorf("unsupported export type %s", job.Type)
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (s *ExportService) buildFilename(job *models.ExportJob) string {
	stamp := time.Now().UTC().Format("20060102T150405")
	switch job.Type {
	case models.ExportTypeQuincena:
		return fmt.Sprintf("quincena/%d-%02d-%s.%s", job.Params.Year, job.Params.Month, stamp, job.Params.Format)
	case models.ExportTypeDaily:
		return fmt.Sprintf("daily/%s-%s.%s", job.Params.Date, stamp, job.Params.Format)
	default:
		return fmt.Sprintf("export-%s.%s", stamp, job.Params.Format)
	}
}
