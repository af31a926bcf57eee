package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/studysync/studysync-api/internal/dto"
	"github.com/studysync/studysync-api/internal/models"
	appErrors "github.com/studysync/studysync-api/pkg/errors"
	"github.com/studysync/studysync-api/pkg/export"
	"github.com/studysync/studysync-api/pkg/jobs"
	"github.com/studysync/studysync-api/pkg/storage"
)

type exportRepository interface {
	Create(ctx context.Context, job *models.ExportJob) error
	FindByID(ctx context.Context, id string) (*models.ExportJob, error)
	MarkRunning(ctx context.Context, id string) error
	MarkCompleted(ctx context.Context, id, filePath string) error
	MarkFailed(ctx context.Context, id, reason string) error
	ListByGroup(ctx context.Context, groupID string, limit int) ([]models.ExportJob, error)
}

type windowResolver interface {
	OptimalTimes(ctx context.Context, groupID, callerID string, req dto.OptimalTimesRequest) (*dto.OptimalTimesResponse, error)
}

type exportFileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportServiceConfig tunes the async meeting-brief pipeline.
type ExportServiceConfig struct {
	Enabled         bool
	APIPrefix       string
	ResultTTL       time.Duration
	CleanupInterval time.Duration
	Workers         int
	Retries         int
}

type exportJobPayload struct {
	JobID       string
	GroupID     string
	RequestedBy string
	Format      string
	Query       dto.OptimalTimesRequest
}

// ExportService renders ranked meeting windows into downloadable briefs on a
// background worker pool.
type ExportService struct {
	repo      exportRepository
	groups    chatMembershipChecker
	resolver  windowResolver
	storage   exportFileStorage
	signer    *storage.SignedURLSigner
	csv       csvRenderer
	pdf       pdfRenderer
	queue     *jobs.Queue
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ExportServiceConfig

	cleanupCancel context.CancelFunc
}

// NewExportService constructs an ExportService.
func NewExportService(repo exportRepository, groups chatMembershipChecker, resolver windowResolver, fileStorage exportFileStorage, signer *storage.SignedURLSigner, validate *validator.Validate, logger *zap.Logger, cfg ExportServiceConfig) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Hour
	}

	s := &ExportService{
		repo:      repo,
		groups:    groups,
		resolver:  resolver,
		storage:   fileStorage,
		signer:    signer,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
	s.queue = jobs.NewQueue("exports", s.process, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.Retries,
		Logger:     logger,
	})
	return s
}

// Start launches the worker pool and the stale-file cleanup loop.
func (s *ExportService) Start(ctx context.Context) {
	if !s.cfg.Enabled {
		return
	}
	s.queue.Start(ctx)

	cleanupCtx, cancel := context.WithCancel(ctx)
	s.cleanupCancel = cancel
	go s.cleanupLoop(cleanupCtx)
}

// Stop drains workers and stops cleanup.
func (s *ExportService) Stop() {
	if !s.cfg.Enabled {
		return
	}
	if s.cleanupCancel != nil {
		s.cleanupCancel()
	}
	s.queue.Stop()
}

// Enqueue validates the request and schedules brief generation.
func (s *ExportService) Enqueue(ctx context.Context, groupID, userID string, req dto.CreateExportRequest) (*models.ExportJob, error) {
	if !s.cfg.Enabled {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "exports are disabled")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export payload")
	}
	if err := s.groups.RequireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}

	job := &models.ExportJob{
		GroupID:     groupID,
		RequestedBy: userID,
		Format:      strings.ToLower(req.Format),
		Status:      models.ExportJobPending,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create export job")
	}

	payload := exportJobPayload{
		JobID:       job.ID,
		GroupID:     groupID,
		RequestedBy: userID,
		Format:      job.Format,
		Query: dto.OptimalTimesRequest{
			Start:              req.Start,
			End:                req.End,
			DurationMinutes:    req.DurationMinutes,
			RequiredCount:      req.RequiredCount,
			GranularityMinutes: req.GranularityMinutes,
		},
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: "meeting-brief", Payload: payload}); err != nil {
		if markErr := s.repo.MarkFailed(ctx, job.ID, "queue unavailable"); markErr != nil {
			s.logger.Warn("failed to mark export job failed", zap.Error(markErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export job")
	}

	return job, nil
}

// Status returns job state with a signed download URL once completed.
func (s *ExportService) Status(ctx context.Context, jobID, userID string) (*dto.ExportJobResponse, error) {
	job, err := s.repo.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	if job.RequestedBy != userID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "export job belongs to another user")
	}

	resp := &dto.ExportJobResponse{
		ID:          job.ID,
		GroupID:     job.GroupID,
		Format:      job.Format,
		Status:      string(job.Status),
		CreatedAt:   job.CreatedAt,
		CompletedAt: job.CompletedAt,
	}
	if job.Error != nil {
		resp.Error = *job.Error
	}
	if job.Status == models.ExportJobCompleted && job.FilePath != "" {
		token, _, err := s.signer.Generate(job.ID, job.FilePath)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download url")
		}
		prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
		if prefix == "" {
			prefix = "/api/v1"
		}
		resp.DownloadURL = fmt.Sprintf("%s/exports/download/%s", prefix, token)
	}
	return resp, nil
}

// ListForGroup returns recent export jobs for a group the caller belongs to.
func (s *ExportService) ListForGroup(ctx context.Context, groupID, userID string, limit int) ([]models.ExportJob, error) {
	if err := s.groups.RequireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	jobsList, err := s.repo.ListByGroup(ctx, groupID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list export jobs")
	}
	return jobsList, nil
}

// Open validates a download token and returns the file handle.
func (s *ExportService) Open(token string) (*os.File, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid download token")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export file no longer available")
	}
	return file, nil
}

func (s *ExportService) process(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(exportJobPayload)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", job.Payload)
	}

	if err := s.repo.MarkRunning(ctx, payload.JobID); err != nil {
		s.logger.Warn("failed to mark export job running", zap.Error(err))
	}

	result, err := s.resolver.OptimalTimes(ctx, payload.GroupID, payload.RequestedBy, payload.Query)
	if err != nil {
		if markErr := s.repo.MarkFailed(ctx, payload.JobID, appErrors.FromError(err).Message); markErr != nil {
			s.logger.Warn("failed to mark export job failed", zap.Error(markErr))
		}
		return err
	}

	dataset := buildMeetingBrief(result.Windows)
	title := fmt.Sprintf("Meeting options %s", payload.Query.Start.Format("2006-01-02"))

	var rendered []byte
	switch payload.Format {
	case models.ExportFormatCSV:
		rendered, err = s.csv.Render(dataset)
	case models.ExportFormatPDF:
		rendered, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", payload.Format)
	}
	if err != nil {
		if markErr := s.repo.MarkFailed(ctx, payload.JobID, err.Error()); markErr != nil {
			s.logger.Warn("failed to mark export job failed", zap.Error(markErr))
		}
		return err
	}

	filename := fmt.Sprintf("%s_%s.%s", payload.GroupID, time.Now().UTC().Format("20060102_150405"), payload.Format)
	relPath, err := s.storage.Save(filename, rendered)
	if err != nil {
		if markErr := s.repo.MarkFailed(ctx, payload.JobID, "storage write failed"); markErr != nil {
			s.logger.Warn("failed to mark export job failed", zap.Error(markErr))
		}
		return err
	}

	if err := s.repo.MarkCompleted(ctx, payload.JobID, relPath); err != nil {
		return err
	}
	s.logger.Info("export job completed", zap.String("job_id", payload.JobID), zap.String("file", relPath))
	return nil
}

func (s *ExportService) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := s.storage.CleanupOlderThan(s.cfg.ResultTTL)
			if err != nil {
				s.logger.Warn("export cleanup failed", zap.Error(err))
				continue
			}
			if len(deleted) > 0 {
				s.logger.Info("export cleanup removed files", zap.Int("count", len(deleted)))
			}
		}
	}
}

func buildMeetingBrief(windows []dto.CandidateWindowResponse) export.Dataset {
	rows := make([]map[string]string, 0, len(windows))
	for _, w := range windows {
		rows = append(rows, map[string]string{
			"Start":     w.Start.Format("Mon 2006-01-02 15:04"),
			"End":       w.End.Format("15:04"),
			"Score":     fmt.Sprintf("%.2f", w.Score),
			"Available": fmt.Sprintf("%d/%d", w.AvailableCount, w.TotalCount),
			"Missing":   strings.Join(w.MissingUserIDs, ", "),
		})
	}
	return export.Dataset{
		Headers: []string{"Start", "End", "Score", "Available", "Missing"},
		Rows:    rows,
	}
}
