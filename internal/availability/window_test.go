package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/studysync/studysync-api/pkg/errors"
)

func TestAggregateBuildsSortedSets(t *testing.T) {
	grids := map[string][]bool{
		"user-b": {false, true, false},
		"user-a": {false, false, true},
	}

	joint, err := Aggregate(grids, 3)
	require.NoError(t, err)
	require.Len(t, joint, 3)
	assert.Equal(t, []string{"user-a", "user-b"}, joint[0].Available)
	assert.Equal(t, []string{"user-a"}, joint[1].Available)
	assert.Equal(t, []string{"user-b"}, joint[2].Available)
}

func TestAggregateRejectsMismatchedGrids(t *testing.T) {
	grids := map[string][]bool{
		"user-a": {false, false},
		"user-b": {false},
	}

	_, err := Aggregate(grids, 2)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrGridMismatch.Code, appErrors.FromError(err).Code)
}

func TestAggregateZeroParticipants(t *testing.T) {
	joint, err := Aggregate(map[string][]bool{}, 2)
	require.NoError(t, err)
	require.Len(t, joint, 2)
	assert.Empty(t, joint[0].Available)
}

func TestExtractWindowsSingleAnchorPerRun(t *testing.T) {
	rng := TimeInterval{Start: monday(8, 0), End: monday(12, 0)}
	slots := make([]SlotAvailability, 8)
	for i := range slots {
		slots[i] = SlotAvailability{SlotIndex: i, Available: []string{"user-a", "user-b"}}
	}
	// One busy gap at slot 3 splits the range into two runs.
	slots[3].Available = nil

	windows, err := ExtractWindows(slots, rng, 30*time.Minute, 60*time.Minute, 2, 2)
	require.NoError(t, err)
	require.Len(t, windows, 2)
	assert.Equal(t, monday(8, 0), windows[0].Interval.Start)
	assert.Equal(t, monday(9, 0), windows[0].Interval.End)
	assert.Equal(t, monday(10, 0), windows[1].Interval.Start)
	assert.Equal(t, monday(11, 0), windows[1].Interval.End)
}

func TestExtractWindowsDiscardsShortRuns(t *testing.T) {
	rng := TimeInterval{Start: monday(8, 0), End: monday(10, 0)}
	slots := []SlotAvailability{
		{SlotIndex: 0, Available: []string{"user-a"}},
		{SlotIndex: 1, Available: nil},
		{SlotIndex: 2, Available: []string{"user-a"}},
		{SlotIndex: 3, Available: []string{"user-a"}},
	}

	windows, err := ExtractWindows(slots, rng, 30*time.Minute, 60*time.Minute, 1, 1)
	require.NoError(t, err)
	require.Len(t, windows, 1, "30 minute run is discarded, not an error")
	assert.Equal(t, monday(9, 0), windows[0].Interval.Start)
}

func TestExtractWindowsRunEqualToDurationQualifies(t *testing.T) {
	rng := TimeInterval{Start: monday(10, 30), End: monday(12, 0)}
	slots := []SlotAvailability{
		{SlotIndex: 0, Available: []string{"user-a"}},
		{SlotIndex: 1, Available: []string{"user-a"}},
		{SlotIndex: 2, Available: []string{"user-a"}},
	}

	windows, err := ExtractWindows(slots, rng, 30*time.Minute, 90*time.Minute, 1, 1)
	require.NoError(t, err)
	require.Len(t, windows, 1, "a run exactly equal to the required duration qualifies")
	assert.Equal(t, monday(10, 30), windows[0].Interval.Start)
	assert.Equal(t, monday(12, 0), windows[0].Interval.End)
}

func TestExtractWindowsIntersectsRelaxedThresholdRuns(t *testing.T) {
	rng := TimeInterval{Start: monday(8, 0), End: monday(9, 0)}
	slots := []SlotAvailability{
		{SlotIndex: 0, Available: []string{"user-a", "user-b"}},
		{SlotIndex: 1, Available: []string{"user-a", "user-c"}},
	}

	windows, err := ExtractWindows(slots, rng, 30*time.Minute, 60*time.Minute, 1, 3)
	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.Equal(t, []string{"user-a"}, windows[0].AvailableParticipants,
		"window keeps only participants free for the whole span")
}

func TestExtractWindowsOneWindowPerRunWithChangingCrews(t *testing.T) {
	rng := TimeInterval{Start: monday(8, 0), End: monday(10, 0)}
	slots := []SlotAvailability{
		{SlotIndex: 0, Available: []string{"user-a", "user-b"}},
		{SlotIndex: 1, Available: []string{"user-a", "user-b"}},
		{SlotIndex: 2, Available: []string{"user-c", "user-d"}},
		{SlotIndex: 3, Available: []string{"user-c", "user-d"}},
	}

	windows, err := ExtractWindows(slots, rng, 30*time.Minute, 60*time.Minute, 2, 4)
	require.NoError(t, err)
	require.Len(t, windows, 1, "one free region emits one anchored window even when the crew rotates")
	assert.Equal(t, monday(8, 0), windows[0].Interval.Start)
	assert.Equal(t, []string{"user-a", "user-b"}, windows[0].AvailableParticipants)
}

func TestExtractWindowsRaisingThresholdNeverSplitsARun(t *testing.T) {
	rng := TimeInterval{Start: monday(8, 0), End: monday(9, 0)}
	slots := []SlotAvailability{
		{SlotIndex: 0, Available: []string{"user-a", "user-b"}},
		{SlotIndex: 1, Available: []string{"user-a", "user-c"}},
	}

	relaxed, err := ExtractWindows(slots, rng, 30*time.Minute, 30*time.Minute, 1, 3)
	require.NoError(t, err)
	strict, err := ExtractWindows(slots, rng, 30*time.Minute, 30*time.Minute, 2, 3)
	require.NoError(t, err)

	require.Len(t, relaxed, 1)
	require.Len(t, strict, 1)
	assert.Equal(t, []string{"user-a", "user-b"}, strict[0].AvailableParticipants)
}

func TestExtractWindowsAnchorBelowThresholdYieldsNothing(t *testing.T) {
	rng := TimeInterval{Start: monday(8, 0), End: monday(9, 0)}
	slots := []SlotAvailability{
		{SlotIndex: 0, Available: []string{"user-a", "user-b"}},
		{SlotIndex: 1, Available: []string{"user-c", "user-d"}},
	}

	windows, err := ExtractWindows(slots, rng, 30*time.Minute, 60*time.Minute, 2, 4)
	require.NoError(t, err)
	assert.Empty(t, windows, "no pair stays free for the whole hour, so no candidate is emitted")
}

func TestExtractWindowsGuards(t *testing.T) {
	rng := TimeInterval{Start: monday(8, 0), End: monday(8, 30)}

	_, err := ExtractWindows(nil, rng, 30*time.Minute, 60*time.Minute, 1, 0)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrEmptyGroup.Code, appErrors.FromError(err).Code)

	_, err = ExtractWindows(nil, rng, 30*time.Minute, 60*time.Minute, 1, 2)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrRangeTooShort.Code, appErrors.FromError(err).Code)
}
