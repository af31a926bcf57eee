package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studysync/studysync-api/internal/models"
	appErrors "github.com/studysync/studysync-api/pkg/errors"
)

func twoParticipantRequest(durationMinutes int, rng TimeInterval) Request {
	mondayIdx := models.Weekday(time.Monday)
	return Request{
		ParticipantSchedules: []models.UserSchedule{
			{UserID: "user-1", BusyBlocks: []models.WeeklyBusyBlock{busyBlock(mondayIdx, 9*60, 10*60)}},
			{UserID: "user-2", BusyBlocks: []models.WeeklyBusyBlock{busyBlock(mondayIdx, 9*60+30, 10*60+30)}},
		},
		MeetingDurationMinutes: durationMinutes,
		SearchRange:            rng,
	}
}

func TestResolveOverlappingMorningClasses(t *testing.T) {
	resolver := NewResolver(Config{})
	req := twoParticipantRequest(30, TimeInterval{Start: monday(9, 0), End: monday(12, 0)})

	windows, err := resolver.Resolve(req, Options{RequiredCount: 2, GranularityMinutes: 15})
	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.Equal(t, monday(10, 30), windows[0].Interval.Start)
	assert.Equal(t, monday(11, 0), windows[0].Interval.End)
	assert.Equal(t, []string{"user-1", "user-2"}, windows[0].AvailableParticipants)
	assert.InDelta(t, 1.0, windows[0].Score, 1e-9, "full participation, no preferences")
}

func TestResolveEmitsOneAnchorPerFreeRun(t *testing.T) {
	resolver := NewResolver(Config{})
	// Widening the range exposes the free 08:00-09:00 block as a second run.
	req := twoParticipantRequest(30, TimeInterval{Start: monday(8, 0), End: monday(12, 0)})

	windows, err := resolver.Resolve(req, Options{RequiredCount: 2, GranularityMinutes: 15})
	require.NoError(t, err)
	require.Len(t, windows, 2)
	assert.Equal(t, monday(8, 0), windows[0].Interval.Start)
	assert.Equal(t, monday(10, 30), windows[1].Interval.Start)
}

func TestResolveRunEqualToDurationQualifies(t *testing.T) {
	resolver := NewResolver(Config{})
	req := twoParticipantRequest(90, TimeInterval{Start: monday(8, 0), End: monday(12, 0)})

	windows, err := resolver.Resolve(req, Options{RequiredCount: 2, GranularityMinutes: 15})
	require.NoError(t, err)
	require.Len(t, windows, 1, "only the 10:30-12:00 run spans 90 minutes")
	assert.Equal(t, monday(10, 30), windows[0].Interval.Start)
	assert.Equal(t, monday(12, 0), windows[0].Interval.End)
}

func TestResolveDurationInvariant(t *testing.T) {
	resolver := NewResolver(Config{})
	req := twoParticipantRequest(45, TimeInterval{Start: monday(8, 0), End: monday(20, 0)})

	windows, err := resolver.Resolve(req, Options{GranularityMinutes: 15})
	require.NoError(t, err)
	require.NotEmpty(t, windows)
	for _, w := range windows {
		assert.Equal(t, 45*time.Minute, w.Interval.Duration())
	}
}

func TestResolveDeterministic(t *testing.T) {
	resolver := NewResolver(Config{})
	req := twoParticipantRequest(30, TimeInterval{Start: monday(8, 0), End: monday(8, 0).AddDate(0, 0, 7)})

	first, err := resolver.Resolve(req, Options{GranularityMinutes: 30})
	require.NoError(t, err)
	second, err := resolver.Resolve(req, Options{GranularityMinutes: 30})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestResolveRaisingRequiredCountNeverAddsCandidates(t *testing.T) {
	mondayIdx := models.Weekday(time.Monday)
	resolver := NewResolver(Config{})
	req := Request{
		ParticipantSchedules: []models.UserSchedule{
			{UserID: "user-1", BusyBlocks: []models.WeeklyBusyBlock{busyBlock(mondayIdx, 8*60, 10*60)}},
			{UserID: "user-2"},
		},
		MeetingDurationMinutes: 60,
		SearchRange:            TimeInterval{Start: monday(8, 0), End: monday(12, 0)},
	}

	relaxed, err := resolver.Resolve(req, Options{RequiredCount: 1, GranularityMinutes: 30})
	require.NoError(t, err)
	strict, err := resolver.Resolve(req, Options{RequiredCount: 2, GranularityMinutes: 30})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(strict), len(relaxed))

	for _, w := range strict {
		assert.GreaterOrEqual(t, len(w.AvailableParticipants), 2)
	}
	for _, w := range relaxed {
		assert.GreaterOrEqual(t, len(w.AvailableParticipants), 1)
	}
}

func TestResolveRaisingRequiredCountWithRotatingCrews(t *testing.T) {
	mondayIdx := models.Weekday(time.Monday)
	resolver := NewResolver(Config{})
	// user-1 is free all morning; user-2 and user-3 hand over at 08:30, so the
	// two slots carry different available sets.
	req := Request{
		ParticipantSchedules: []models.UserSchedule{
			{UserID: "user-1"},
			{UserID: "user-2", BusyBlocks: []models.WeeklyBusyBlock{busyBlock(mondayIdx, 8*60+30, 9*60)}},
			{UserID: "user-3", BusyBlocks: []models.WeeklyBusyBlock{busyBlock(mondayIdx, 8*60, 8*60+30)}},
		},
		MeetingDurationMinutes: 30,
		SearchRange:            TimeInterval{Start: monday(8, 0), End: monday(9, 0)},
	}

	relaxed, err := resolver.Resolve(req, Options{RequiredCount: 1, GranularityMinutes: 30})
	require.NoError(t, err)
	strict, err := resolver.Resolve(req, Options{RequiredCount: 2, GranularityMinutes: 30})
	require.NoError(t, err)

	assert.LessOrEqual(t, len(strict), len(relaxed))
	require.Len(t, strict, 1)
	assert.Equal(t, []string{"user-1", "user-2"}, strict[0].AvailableParticipants)
}

func TestResolveDeduplicatesParticipants(t *testing.T) {
	resolver := NewResolver(Config{})
	req := twoParticipantRequest(30, TimeInterval{Start: monday(8, 0), End: monday(12, 0)})
	req.ParticipantSchedules = append(req.ParticipantSchedules, req.ParticipantSchedules[0])

	windows, err := resolver.Resolve(req, Options{GranularityMinutes: 15})
	require.NoError(t, err)
	require.NotEmpty(t, windows)
	assert.Equal(t, 2, windows[0].TotalParticipants)
}

func TestResolveEmptyGroupFails(t *testing.T) {
	resolver := NewResolver(Config{})
	req := Request{
		MeetingDurationMinutes: 30,
		SearchRange:            TimeInterval{Start: monday(8, 0), End: monday(12, 0)},
	}

	_, err := resolver.Resolve(req, Options{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrEmptyGroup.Code, appErrors.FromError(err).Code)
}

func TestResolveRangeShorterThanDurationFails(t *testing.T) {
	resolver := NewResolver(Config{})
	req := twoParticipantRequest(90, TimeInterval{Start: monday(8, 0), End: monday(9, 0)})

	_, err := resolver.Resolve(req, Options{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrRangeTooShort.Code, appErrors.FromError(err).Code)
}

func TestResolveRangeSpanCapped(t *testing.T) {
	resolver := NewResolver(Config{MaxRangeDays: 90})
	req := twoParticipantRequest(30, TimeInterval{Start: monday(8, 0), End: monday(8, 0).AddDate(0, 0, 91)})

	_, err := resolver.Resolve(req, Options{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrRangeTooLarge.Code, appErrors.FromError(err).Code)
}

func TestResolveInvalidInputs(t *testing.T) {
	resolver := NewResolver(Config{})

	_, err := resolver.Resolve(twoParticipantRequest(0, TimeInterval{Start: monday(8, 0), End: monday(9, 0)}), Options{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = resolver.Resolve(twoParticipantRequest(30, TimeInterval{Start: monday(9, 0), End: monday(9, 0)}), Options{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidRange.Code, appErrors.FromError(err).Code)

	_, err = resolver.Resolve(twoParticipantRequest(30, TimeInterval{Start: monday(8, 0), End: monday(12, 0)}), Options{GranularityMinutes: -5})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidGranularity.Code, appErrors.FromError(err).Code)

	_, err = resolver.Resolve(twoParticipantRequest(30, TimeInterval{Start: monday(8, 0), End: monday(12, 0)}), Options{RequiredCount: 5})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestResolveNoSolutionsReturnsEmptyList(t *testing.T) {
	mondayIdx := models.Weekday(time.Monday)
	resolver := NewResolver(Config{})
	req := Request{
		ParticipantSchedules: []models.UserSchedule{
			{UserID: "user-1", BusyBlocks: []models.WeeklyBusyBlock{busyBlock(mondayIdx, 8*60, 12*60)}},
		},
		MeetingDurationMinutes: 60,
		SearchRange:            TimeInterval{Start: monday(8, 0), End: monday(12, 0)},
	}

	windows, err := resolver.Resolve(req, Options{GranularityMinutes: 30})
	require.NoError(t, err)
	assert.Empty(t, windows, "no compatible time is an empty list, not an error")
}
