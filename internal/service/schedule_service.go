package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/studysync/studysync-api/internal/dto"
	"github.com/studysync/studysync-api/internal/ics"
	"github.com/studysync/studysync-api/internal/models"
	appErrors "github.com/studysync/studysync-api/pkg/errors"
)

type scheduleRepository interface {
	Upsert(ctx context.Context, schedule models.UserSchedule, source string) error
	GetByUser(ctx context.Context, userID string) (*models.UserScheduleRecord, error)
	Delete(ctx context.Context, userID string) error
}

type memberGroupLister interface {
	List(ctx context.Context, filter models.GroupFilter) ([]models.Group, int, error)
}

// ScheduleConfig tunes import limits.
type ScheduleConfig struct {
	KeepAllEventsThreshold int
	MaxImportBytes         int64
}

// ScheduleService manages weekly schedule submission and calendar import.
type ScheduleService struct {
	repo      scheduleRepository
	groups    memberGroupLister
	cache     *CacheService
	parser    *ics.Parser
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ScheduleConfig
}

// NewScheduleService constructs a ScheduleService.
func NewScheduleService(repo scheduleRepository, groups memberGroupLister, cache *CacheService, validate *validator.Validate, logger *zap.Logger, cfg ScheduleConfig) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.MaxImportBytes <= 0 {
		cfg.MaxImportBytes = 1 << 20
	}
	return &ScheduleService{
		repo:      repo,
		groups:    groups,
		cache:     cache,
		parser:    ics.NewParser(cfg.KeepAllEventsThreshold),
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// Submit replaces the caller's schedule with manually entered blocks.
func (s *ScheduleService) Submit(ctx context.Context, userID string, req dto.SubmitScheduleRequest) (*dto.ScheduleResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}

	blocks, prefs, hints, err := fromSchedulePayload(req)
	if err != nil {
		return nil, err
	}
	schedule, err := ics.BuildManualSchedule(userID, blocks, prefs, hints)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Upsert(ctx, schedule, models.ScheduleSourceManual); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store schedule")
	}
	s.invalidateUserGroups(ctx, userID)

	resp := toScheduleResponse(schedule, models.ScheduleSourceManual)
	return &resp, nil
}

// Import parses an iCalendar payload and replaces the caller's schedule.
func (s *ScheduleService) Import(ctx context.Context, userID string, payload []byte) (*dto.ImportSummary, error) {
	if int64(len(payload)) > s.cfg.MaxImportBytes {
		return nil, appErrors.Clone(appErrors.ErrValidation, "calendar file too large")
	}

	result, err := s.parser.Parse(userID, payload)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Upsert(ctx, result.Schedule, models.ScheduleSourceICS); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store schedule")
	}
	s.invalidateUserGroups(ctx, userID)

	if result.SkippedCount > 0 {
		s.logger.Info("calendar import skipped events",
			zap.String("user_id", userID),
			zap.Int("skipped", result.SkippedCount),
			zap.Int("total", result.EventCount))
	}

	return &dto.ImportSummary{
		Schedule:      toScheduleResponse(result.Schedule, models.ScheduleSourceICS),
		EventCount:    result.EventCount,
		ImportedCount: result.EventCount - result.SkippedCount,
		SkippedCount:  result.SkippedCount,
	}, nil
}

// Get returns the caller's stored schedule.
func (s *ScheduleService) Get(ctx context.Context, userID string) (*dto.ScheduleResponse, error) {
	record, err := s.repo.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no schedule submitted")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}

	var schedule models.UserSchedule
	if err := json.Unmarshal(record.Payload, &schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode schedule payload")
	}

	resp := toScheduleResponse(schedule, record.Source)
	return &resp, nil
}

// Delete removes the caller's schedule.
func (s *ScheduleService) Delete(ctx context.Context, userID string) error {
	if err := s.repo.Delete(ctx, userID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule")
	}
	s.invalidateUserGroups(ctx, userID)
	return nil
}

// A schedule change invalidates cached availability for every group the user
// belongs to.
func (s *ScheduleService) invalidateUserGroups(ctx context.Context, userID string) {
	if s.cache == nil || !s.cache.Enabled() || s.groups == nil {
		return
	}
	groups, _, err := s.groups.List(ctx, models.GroupFilter{MemberID: userID, PageSize: 100})
	if err != nil {
		s.logger.Warn("failed to list groups for cache invalidation", zap.Error(err))
		return
	}
	for _, g := range groups {
		if err := s.cache.Invalidate(ctx, "availability:"+g.ID+":*"); err != nil {
			s.logger.Warn("failed to invalidate availability cache", zap.String("group_id", g.ID), zap.Error(err))
		}
	}
}

func fromSchedulePayload(req dto.SubmitScheduleRequest) ([]models.WeeklyBusyBlock, []models.Weekday, []models.LocationHint, error) {
	blocks := make([]models.WeeklyBusyBlock, 0, len(req.BusyBlocks))
	for _, b := range req.BusyBlocks {
		start, err := models.ParseTimeOfDay(b.Start)
		if err != nil {
			return nil, nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid block start")
		}
		end, err := models.ParseTimeOfDay(b.End)
		if err != nil {
			return nil, nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid block end")
		}
		blocks = append(blocks, models.WeeklyBusyBlock{
			DayOfWeek: models.Weekday(b.DayOfWeek),
			Start:     start,
			End:       end,
			Label:     b.Label,
			Location:  b.Location,
		})
	}

	prefs := make([]models.Weekday, 0, len(req.DayPreferences))
	for _, d := range req.DayPreferences {
		prefs = append(prefs, models.Weekday(d))
	}

	hints := make([]models.LocationHint, 0, len(req.LocationHints))
	for _, h := range req.LocationHints {
		endTime, err := models.ParseTimeOfDay(h.EndTime)
		if err != nil {
			return nil, nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid hint end time")
		}
		hints = append(hints, models.LocationHint{
			Location: h.Location,
			Day:      models.Weekday(h.Day),
			EndTime:  endTime,
		})
	}

	return blocks, prefs, hints, nil
}

func toScheduleResponse(schedule models.UserSchedule, source string) dto.ScheduleResponse {
	blocks := make([]dto.BusyBlockPayload, 0, len(schedule.BusyBlocks))
	for _, b := range schedule.BusyBlocks {
		blocks = append(blocks, dto.BusyBlockPayload{
			DayOfWeek: int(b.DayOfWeek),
			Start:     b.Start.String(),
			End:       b.End.String(),
			Label:     b.Label,
			Location:  b.Location,
		})
	}

	prefs := make([]int, 0, len(schedule.DayPreferences))
	for _, d := range schedule.DayPreferences {
		prefs = append(prefs, int(d))
	}

	hints := make([]dto.LocationHintPayload, 0, len(schedule.LocationHints))
	for _, h := range schedule.LocationHints {
		hints = append(hints, dto.LocationHintPayload{
			Location: h.Location,
			Day:      int(h.Day),
			EndTime:  h.EndTime.String(),
		})
	}

	return dto.ScheduleResponse{
		UserID:         schedule.UserID,
		Source:         source,
		BusyBlocks:     blocks,
		DayPreferences: prefs,
		LocationHints:  hints,
	}
}
