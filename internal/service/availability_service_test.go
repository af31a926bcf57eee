package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/studysync/studysync-api/internal/dto"
	"github.com/studysync/studysync-api/internal/models"
	appErrors "github.com/studysync/studysync-api/pkg/errors"
)

type mockAvailabilityGroups struct {
	members  []models.GroupMember
	isMember bool
}

func (m *mockAvailabilityGroups) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	return m.isMember, nil
}

func (m *mockAvailabilityGroups) ListMembers(ctx context.Context, groupID string) ([]models.GroupMember, error) {
	return m.members, nil
}

type mockAvailabilitySchedules struct {
	records []models.UserScheduleRecord
}

func (m *mockAvailabilitySchedules) ListByUsers(ctx context.Context, userIDs []string) ([]models.UserScheduleRecord, error) {
	return m.records, nil
}

type memoryCacheRepo struct {
	values map[string][]byte
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if m.values == nil {
		m.values = make(map[string][]byte)
	}
	m.values[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.values = make(map[string][]byte)
	return nil
}

func scheduleRecord(t *testing.T, schedule models.UserSchedule) models.UserScheduleRecord {
	t.Helper()
	payload, err := json.Marshal(schedule)
	require.NoError(t, err)
	return models.UserScheduleRecord{UserID: schedule.UserID, Source: models.ScheduleSourceManual, Payload: types.JSONText(payload)}
}

// Monday morning fixture: u1 has a class 09:00-10:00, u2 never submitted a
// schedule and counts as free.
func newAvailabilityFixture(t *testing.T, cache *CacheService) *AvailabilityService {
	t.Helper()
	groups := &mockAvailabilityGroups{
		isMember: true,
		members: []models.GroupMember{
			{GroupID: "g1", UserID: "u1"},
			{GroupID: "g1", UserID: "u2"},
		},
	}
	schedules := &mockAvailabilitySchedules{records: []models.UserScheduleRecord{
		scheduleRecord(t, models.UserSchedule{
			UserID: "u1",
			BusyBlocks: []models.WeeklyBusyBlock{
				{DayOfWeek: models.Weekday(time.Monday), Start: 9 * 60, End: 10 * 60, Label: "CS 101"},
			},
		}),
	}}
	return NewAvailabilityService(groups, schedules, cache, nil, nil, zap.NewNop(), AvailabilityConfig{})
}

func mondayMorningQuery() dto.OptimalTimesRequest {
	// 2024-01-15 is a Monday.
	return dto.OptimalTimesRequest{
		Start:              time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC),
		End:                time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC),
		DurationMinutes:    60,
		GranularityMinutes: 30,
	}
}

func TestOptimalTimesFullAttendance(t *testing.T) {
	svc := newAvailabilityFixture(t, nil)

	resp, err := svc.OptimalTimes(context.Background(), "g1", "u2", mondayMorningQuery())
	require.NoError(t, err)
	require.Len(t, resp.Windows, 1)

	win := resp.Windows[0]
	assert.Equal(t, time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC), win.Start)
	assert.Equal(t, time.Date(2024, 1, 15, 11, 0, 0, 0, time.UTC), win.End)
	assert.Equal(t, 2, win.AvailableCount)
	assert.Equal(t, 2, win.TotalCount)
	assert.Empty(t, win.MissingUserIDs)
	assert.False(t, resp.Cached)
}

func TestOptimalTimesPartialAttendanceNamesMissing(t *testing.T) {
	svc := newAvailabilityFixture(t, nil)

	req := mondayMorningQuery()
	req.RequiredCount = 1
	resp, err := svc.OptimalTimes(context.Background(), "g1", "u2", req)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Windows)

	// The 09:00 run only has u2 free while u1 sits in class.
	var partial *dto.CandidateWindowResponse
	for i := range resp.Windows {
		if resp.Windows[i].Start.Equal(time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)) {
			partial = &resp.Windows[i]
		}
	}
	require.NotNil(t, partial)
	assert.Equal(t, []string{"u2"}, partial.AvailableUserIDs)
	assert.Equal(t, []string{"u1"}, partial.MissingUserIDs)
}

func TestOptimalTimesRejectsNonMembers(t *testing.T) {
	svc := newAvailabilityFixture(t, nil)
	svc.groups.(*mockAvailabilityGroups).isMember = false

	_, err := svc.OptimalTimes(context.Background(), "g1", "stranger", mondayMorningQuery())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestOptimalTimesEmptyRoster(t *testing.T) {
	groups := &mockAvailabilityGroups{isMember: true}
	schedules := &mockAvailabilitySchedules{}
	svc := NewAvailabilityService(groups, schedules, nil, nil, nil, zap.NewNop(), AvailabilityConfig{})

	_, err := svc.OptimalTimes(context.Background(), "g1", "u1", mondayMorningQuery())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrEmptyGroup.Code, appErrors.FromError(err).Code)
}

func TestOptimalTimesSecondCallServedFromCache(t *testing.T) {
	cache := NewCacheService(&memoryCacheRepo{}, nil, time.Minute, zap.NewNop(), true)
	svc := newAvailabilityFixture(t, cache)

	first, err := svc.OptimalTimes(context.Background(), "g1", "u2", mondayMorningQuery())
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := svc.OptimalTimes(context.Background(), "g1", "u2", mondayMorningQuery())
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Windows, second.Windows)
}

func TestOptimalTimesDefaultsSearchRangeToNextWeek(t *testing.T) {
	svc := newAvailabilityFixture(t, nil)

	before := time.Now().UTC().Truncate(time.Minute)
	resp, err := svc.OptimalTimes(context.Background(), "g1", "u2", dto.OptimalTimesRequest{DurationMinutes: 60})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Windows)

	horizon := before.Add(7*24*time.Hour + time.Minute)
	for _, w := range resp.Windows {
		assert.False(t, w.Start.Before(before), "window starts before the defaulted range")
		assert.False(t, w.End.After(horizon), "window ends past the defaulted range")
	}
}

func TestOptimalTimesRejectsHalfSpecifiedRange(t *testing.T) {
	svc := newAvailabilityFixture(t, nil)

	req := dto.OptimalTimesRequest{DurationMinutes: 60, Start: time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)}
	_, err := svc.OptimalTimes(context.Background(), "g1", "u2", req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestOptimalTimesLogsServerSideFailures(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	svc := newAvailabilityFixture(t, nil)
	svc.logger = zap.New(core)

	svc.logResolveFailure("g1", appErrors.Clone(appErrors.ErrGridMismatch, "grid for user u1 has 3 slots, want 4"))
	require.Len(t, logs.All(), 1)
	assert.Equal(t, "availability resolution failed", logs.All()[0].Message)

	svc.logResolveFailure("g1", appErrors.Clone(appErrors.ErrInvalidRange, ""))
	assert.Len(t, logs.All(), 1, "client errors surface in the response, not the log")
}

func TestOptimalTimesInvalidRange(t *testing.T) {
	svc := newAvailabilityFixture(t, nil)

	req := mondayMorningQuery()
	req.End = req.Start.Add(-time.Hour)
	_, err := svc.OptimalTimes(context.Background(), "g1", "u2", req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidRange.Code, appErrors.FromError(err).Code)
}
