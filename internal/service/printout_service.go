package service

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/procure-mr-api/internal/dto"
	"github.com/noah-isme/procure-mr-api/internal/models"
	"github.com/noah-isme/procure-mr-api/internal/repository"
	appErrors "github.com/noah-isme/procure-mr-api/pkg/errors"
	"github.com/noah-isme/procure-mr-api/pkg/jobs"
)

type printJobStore interface {
	Create(ctx context.Context, job *models.PrintJob) error
	GetByID(ctx context.Context, id string) (*models.PrintJob, error)
	Update(ctx context.Context, id string, params repository.UpdatePrintJobParams) error
	ListQueued(ctx context.Context, limit int) ([]models.PrintJob, error)
	ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.PrintJob, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type printoutGenerator interface {
	Generate(ctx context.Context, job *models.PrintJob) (*PrintoutResult, error)
}

// PrintoutServiceConfig governs queue recovery and artifact cleanup.
type PrintoutServiceConfig struct {
	ResultTTL       time.Duration
	CleanupInterval time.Duration
	MaxRetries      int
}

// PrintoutDownload aggregates resolved download data.
type PrintoutDownload struct {
	File      *os.File
	Filename  string
	Type      models.PrintJobType
	ExpiresAt time.Time
}

// PrintoutService orchestrates the printout job lifecycle: queueing,
// status, signed downloads, restart recovery, and cleanup of old files.
type PrintoutService struct {
	repo      printJobStore
	queue     jobDispatcher
	generator *PrintoutGenerator
	validator *validator.Validate
	logger    *zap.Logger
	cfg       PrintoutServiceConfig
}

// NewPrintoutService constructs the printout service.
func NewPrintoutService(repo printJobStore, queue jobDispatcher, generator *PrintoutGenerator, validate *validator.Validate, logger *zap.Logger, cfg PrintoutServiceConfig) *PrintoutService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	return &PrintoutService{repo: repo, queue: queue, generator: generator, validator: validate, logger: logger, cfg: cfg}
}

// CreateJob validates the request, persists a job row, and enqueues processing.
func (s *PrintoutService) CreateJob(ctx context.Context, businessUnitID string, req dto.PrintoutRequest, actorID string) (*dto.PrintJobResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid printout payload")
	}
	if req.Type == models.PrintJobRequestPDF && req.RequestID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "request_id is required for request printouts")
	}
	if req.Type != models.PrintJobRequestPDF && req.DateFrom == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date_from is required for register printouts")
	}

	job := &models.PrintJob{
		Type: req.Type,
		Params: models.PrintJobParams{
			RequestID: req.RequestID,
			DateFrom:  req.DateFrom,
			DateTo:    req.DateTo,
			Statuses:  req.Statuses,
		},
		Status:         models.PrintStatusQueued,
		Progress:       0,
		BusinessUnitID: businessUnitID,
		CreatedBy:      actorID,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create print job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(job.Type)}); err != nil {
		status := models.PrintStatusFailed
		msg := "failed to enqueue job"
		now := time.Now().UTC()
		progress := 100
		_ = s.repo.Update(ctx, job.ID, repository.UpdatePrintJobParams{
			Status:       &status,
			Progress:     &progress,
			ErrorMessage: &msg,
			FinishedAt:   &now,
		})
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue print job")
	}
	return &dto.PrintJobResponse{ID: job.ID, Status: job.Status, Progress: job.Progress}, nil
}

// GetStatus exposes job metadata, enforcing ownership for non-admins.
func (s *PrintoutService) GetStatus(ctx context.Context, businessUnitID, id string, claims *models.JWTClaims) (*dto.PrintStatusResponse, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load print job")
	}
	if job.BusinessUnitID != businessUnitID {
		return nil, appErrors.Clone(appErrors.ErrBusinessUnitScope, "print job belongs to another business unit")
	}
	if job.CreatedBy != claims.UserID && !claims.Role.IsAdmin() {
		return nil, appErrors.ErrForbidden
	}
	resp := &dto.PrintStatusResponse{
		ID:       job.ID,
		Status:   job.Status,
		Progress: job.Progress,
	}
	if job.ResultURL != nil {
		resp.ResultURL = job.ResultURL
	}
	if job.ErrorMessage != nil && *job.ErrorMessage != "" {
		resp.Error = job.ErrorMessage
	}
	return resp, nil
}

// ResolveDownload validates the signed token and opens the stored file.
func (s *PrintoutService) ResolveDownload(ctx context.Context, token string) (*PrintoutDownload, error) {
	jobID, relPath, expiresAt, err := s.generator.ParseToken(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load print job")
	}
	if job.ResultURL == nil || !strings.HasSuffix(*job.ResultURL, token) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	if job.Status != models.PrintStatusCompleted {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "printout not ready")
	}
	file, err := s.generator.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open printout file")
	}
	return &PrintoutDownload{
		File:      file,
		Filename:  filepath.Base(relPath),
		Type:      job.Type,
		ExpiresAt: expiresAt,
	}, nil
}

// RecoverPendingJobs replays queued jobs after a process restart.
func (s *PrintoutService) RecoverPendingJobs(ctx context.Context) {
	pending, err := s.repo.ListQueued(ctx, 50)
	if err != nil {
		s.logger.Sugar().Warnw("failed to recover queued print jobs", "error", err)
		return
	}
	for _, job := range pending {
		if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(job.Type)}); err != nil {
			s.logger.Sugar().Warnw("failed to requeue pending job", "job_id", job.ID, "error", err)
		}
	}
}

// StartCleanup boots a goroutine that purges expired printouts periodically.
func (s *PrintoutService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.cleanupExpired(ctx)
			}
		}
	}()
}

func (s *PrintoutService) cleanupExpired(ctx context.Context) {
	cutoff := time.Now().Add(-s.cfg.ResultTTL)
	for {
		batch, err := s.repo.ListFinishedBefore(ctx, cutoff, 100)
		if err != nil {
			s.logger.Sugar().Warnw("cleanup list failed", "error", err)
			return
		}
		if len(batch) == 0 {
			break
		}
		for _, job := range batch {
			if job.FilePath == nil || *job.FilePath == "" {
				continue
			}
			if err := s.generator.Delete(*job.FilePath); err != nil {
				s.logger.Sugar().Warnw("cleanup delete failed", "job_id", job.ID, "error", err)
			}
		}
		if len(batch) < 100 {
			break
		}
	}
	if _, err := s.generator.Cleanup(s.cfg.ResultTTL); err != nil {
		s.logger.Sugar().Warnw("filesystem cleanup failed", "error", err)
	}
}

// PrintWorker bridges queue jobs to the printout generator.
type PrintWorker struct {
	repo       printJobStore
	generator  printoutGenerator
	logger     *zap.Logger
	maxRetries int
}

// NewPrintWorker constructs a worker.
func NewPrintWorker(repo printJobStore, generator printoutGenerator, maxRetries int, logger *zap.Logger) *PrintWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &PrintWorker{repo: repo, generator: generator, logger: logger, maxRetries: maxRetries}
}

// Handle processes a queue job.
func (w *PrintWorker) Handle(ctx context.Context, job jobs.Job) error {
	record, err := w.repo.GetByID(ctx, job.ID)
	if err != nil {
		return err
	}
	processing := models.PrintStatusProcessing
	progress := 10
	started := time.Now().UTC()
	if err := w.repo.Update(ctx, job.ID, repository.UpdatePrintJobParams{
		Status:    &processing,
		Progress:  &progress,
		StartedAt: &started,
	}); err != nil {
		return err
	}
	result, err := w.generator.Generate(ctx, record)
	if err != nil {
		msg := err.Error()
		if job.Attempt >= w.maxRetries {
			failed := models.PrintStatusFailed
			progress = 100
			now := time.Now().UTC()
			if updateErr := w.repo.Update(ctx, job.ID, repository.UpdatePrintJobParams{
				Status:       &failed,
				Progress:     &progress,
				ErrorMessage: &msg,
				FinishedAt:   &now,
			}); updateErr != nil {
				w.logger.Sugar().Warnw("failed to mark job failed", "job_id", job.ID, "error", updateErr)
			}
		} else {
			queued := models.PrintStatusQueued
			reset := 0
			if updateErr := w.repo.Update(ctx, job.ID, repository.UpdatePrintJobParams{
				Status:       &queued,
				Progress:     &reset,
				ErrorMessage: &msg,
			}); updateErr != nil {
				w.logger.Sugar().Warnw("failed to mark job queued", "job_id", job.ID, "error", updateErr)
			}
		}
		return err
	}
	completed := models.PrintStatusCompleted
	progress = 100
	now := time.Now().UTC()
	clear := ""
	if err := w.repo.Update(ctx, job.ID, repository.UpdatePrintJobParams{
		Status:       &completed,
		Progress:     &progress,
		FilePath:     &result.RelativePath,
		ResultURL:    &result.URL,
		ErrorMessage: &clear,
		FinishedAt:   &now,
	}); err != nil {
		w.logger.Sugar().Warnw("failed to mark job completed", "job_id", job.ID, "error", err)
		return err
	}
	return nil
}
