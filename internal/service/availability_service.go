package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/studysync/studysync-api/internal/availability"
	"github.com/studysync/studysync-api/internal/dto"
	"github.com/studysync/studysync-api/internal/models"
	appErrors "github.com/studysync/studysync-api/pkg/errors"
)

type availabilityGroupRepository interface {
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
	ListMembers(ctx context.Context, groupID string) ([]models.GroupMember, error)
}

type availabilityScheduleRepository interface {
	ListByUsers(ctx context.Context, userIDs []string) ([]models.UserScheduleRecord, error)
}

// AvailabilityConfig tunes the resolver defaults and result caching.
type AvailabilityConfig struct {
	DefaultGranularityMinutes int
	MaxRangeDays              int
	CacheTTL                  time.Duration
}

// AvailabilityService answers "when can this group meet" by feeding member
// schedules through the resolver. Members without a stored schedule count as
// fully free.
type AvailabilityService struct {
	groups    availabilityGroupRepository
	schedules availabilityScheduleRepository
	cache     *CacheService
	metrics   *MetricsService
	resolver  *availability.Resolver
	validator *validator.Validate
	logger    *zap.Logger
	cacheTTL  time.Duration
}

// NewAvailabilityService constructs an AvailabilityService.
func NewAvailabilityService(groups availabilityGroupRepository, schedules availabilityScheduleRepository, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg AvailabilityConfig) *AvailabilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	return &AvailabilityService{
		groups:    groups,
		schedules: schedules,
		cache:     cache,
		metrics:   metrics,
		resolver: availability.NewResolver(availability.Config{
			DefaultGranularityMinutes: cfg.DefaultGranularityMinutes,
			MaxRangeDays:              cfg.MaxRangeDays,
		}),
		validator: validate,
		logger:    logger,
		cacheTTL:  cfg.CacheTTL,
	}
}

// defaultSearchSpan is used when the caller omits the search range.
const defaultSearchSpan = 7 * 24 * time.Hour

// OptimalTimes returns ranked meeting windows for the group. Only members may
// query a group's availability. An omitted search range defaults to the next
// seven days.
func (s *AvailabilityService) OptimalTimes(ctx context.Context, groupID, callerID string, req dto.OptimalTimesRequest) (*dto.OptimalTimesResponse, error) {
	if req.Start.IsZero() && req.End.IsZero() {
		now := time.Now().UTC().Truncate(time.Minute)
		req.Start = now
		req.End = now.Add(defaultSearchSpan)
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability query")
	}

	isMember, err := s.groups.IsMember(ctx, groupID, callerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check membership")
	}
	if !isMember {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not a member of this group")
	}

	cacheKey := s.cacheKey(groupID, req)
	if s.cache.Enabled() {
		var cached dto.OptimalTimesResponse
		hit, err := s.cache.Get(ctx, cacheKey, &cached)
		if err == nil && hit {
			cached.Cached = true
			return &cached, nil
		}
	}

	members, err := s.groups.ListMembers(ctx, groupID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	if len(members) == 0 {
		return nil, appErrors.Clone(appErrors.ErrEmptyGroup, "group has no members")
	}

	schedules, err := s.loadSchedules(ctx, members)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	windows, err := s.resolver.Resolve(availability.Request{
		ParticipantSchedules:   schedules,
		MeetingDurationMinutes: req.DurationMinutes,
		SearchRange:            availability.TimeInterval{Start: req.Start, End: req.End},
	}, availability.Options{
		RequiredCount:      req.RequiredCount,
		GranularityMinutes: req.GranularityMinutes,
	})
	if err != nil {
		s.metrics.ObserveResolve("error", 0, time.Since(start))
		s.logResolveFailure(groupID, err)
		return nil, err
	}
	s.metrics.ObserveResolve("ok", len(windows), time.Since(start))

	allIDs := make([]string, 0, len(schedules))
	for _, sched := range schedules {
		allIDs = append(allIDs, sched.UserID)
	}

	resp := &dto.OptimalTimesResponse{
		GroupID: groupID,
		Windows: toWindowResponses(windows, allIDs),
	}

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, cacheKey, resp, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache availability result", zap.String("group_id", groupID), zap.Error(err))
		}
	}

	return resp, nil
}

// logResolveFailure records server-side failures with their full context;
// client errors surface through the response envelope alone. A grid mismatch
// in particular means an internal inconsistency that the caller cannot act
// on, so the log entry is the diagnostic trail.
func (s *AvailabilityService) logResolveFailure(groupID string, err error) {
	if appErrors.FromError(err).Status < http.StatusInternalServerError {
		return
	}
	s.logger.Error("availability resolution failed",
		zap.String("group_id", groupID),
		zap.Error(err),
	)
}

func (s *AvailabilityService) loadSchedules(ctx context.Context, members []models.GroupMember) ([]models.UserSchedule, error) {
	userIDs := make([]string, 0, len(members))
	for _, m := range members {
		userIDs = append(userIDs, m.UserID)
	}

	records, err := s.schedules.ListByUsers(ctx, userIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedules")
	}

	byUser := make(map[string]models.UserSchedule, len(records))
	for _, record := range records {
		var schedule models.UserSchedule
		if err := json.Unmarshal(record.Payload, &schedule); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode schedule payload")
		}
		schedule.UserID = record.UserID
		byUser[record.UserID] = schedule
	}

	schedules := make([]models.UserSchedule, 0, len(userIDs))
	for _, id := range userIDs {
		if schedule, ok := byUser[id]; ok {
			schedules = append(schedules, schedule)
			continue
		}
		// No submission: member is treated as free for the whole range.
		schedules = append(schedules, models.UserSchedule{UserID: id})
	}
	return schedules, nil
}

func (s *AvailabilityService) cacheKey(groupID string, req dto.OptimalTimesRequest) string {
	return fmt.Sprintf("availability:%s:%d:%d:%d:%d:%d",
		groupID,
		req.Start.UTC().Unix(),
		req.End.UTC().Unix(),
		req.DurationMinutes,
		req.RequiredCount,
		req.GranularityMinutes,
	)
}

func toWindowResponses(windows []availability.CandidateWindow, allIDs []string) []dto.CandidateWindowResponse {
	out := make([]dto.CandidateWindowResponse, 0, len(windows))
	for _, w := range windows {
		out = append(out, dto.CandidateWindowResponse{
			Start:            w.Interval.Start,
			End:              w.Interval.End,
			Score:            w.Score,
			AvailableCount:   len(w.AvailableParticipants),
			TotalCount:       w.TotalParticipants,
			AvailableUserIDs: w.AvailableParticipants,
			MissingUserIDs:   missingParticipants(w.AvailableParticipants, allIDs),
		})
	}
	return out
}

func missingParticipants(available, allIDs []string) []string {
	if len(available) >= len(allIDs) {
		return nil
	}
	present := make(map[string]struct{}, len(available))
	for _, id := range available {
		present[id] = struct{}{}
	}
	missing := make([]string, 0, len(allIDs)-len(available))
	for _, id := range allIDs {
		if _, ok := present[id]; !ok {
			missing = append(missing, id)
		}
	}
	sort.Strings(missing)
	return missing
}
