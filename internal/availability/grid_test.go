package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studysync/studysync-api/internal/models"
	appErrors "github.com/studysync/studysync-api/pkg/errors"
)

// 2024-01-15 is a Monday.
func monday(hour, minute int) time.Time {
	return time.Date(2024, 1, 15, hour, minute, 0, 0, time.Local)
}

func busyBlock(day models.Weekday, start, end models.TimeOfDay) models.WeeklyBusyBlock {
	return models.WeeklyBusyBlock{DayOfWeek: day, Start: start, End: end, Label: "CS 101"}
}

func TestIsBusyMatchesWeekdayAndTime(t *testing.T) {
	schedule := models.UserSchedule{
		UserID:     "user-1",
		BusyBlocks: []models.WeeklyBusyBlock{busyBlock(models.Weekday(time.Monday), 9*60, 10*60)},
	}

	assert.True(t, IsBusy(schedule, monday(9, 0)))
	assert.True(t, IsBusy(schedule, monday(9, 59)))
	assert.False(t, IsBusy(schedule, monday(10, 0)), "block end is exclusive")
	assert.False(t, IsBusy(schedule, monday(8, 59)))
	assert.False(t, IsBusy(schedule, monday(9, 30).AddDate(0, 0, 1)), "same time, different weekday")
}

func TestOccupancyOverRangeConservativeOverlap(t *testing.T) {
	schedule := models.UserSchedule{
		UserID:     "user-1",
		BusyBlocks: []models.WeeklyBusyBlock{busyBlock(models.Weekday(time.Monday), 9*60+10, 9*60+20)},
	}

	// 09:00-10:00 at 15 minute slots: the block clips slots 0 and 1 only.
	grid, err := OccupancyOverRange(schedule, TimeInterval{Start: monday(9, 0), End: monday(10, 0)}, 15)
	require.NoError(t, err)
	require.Len(t, grid, 4)
	assert.Equal(t, []bool{true, true, false, false}, grid)
}

func TestOccupancyOverRangeDropsPartialFinalSlot(t *testing.T) {
	schedule := models.UserSchedule{UserID: "user-1"}

	grid, err := OccupancyOverRange(schedule, TimeInterval{Start: monday(9, 0), End: monday(9, 50)}, 30)
	require.NoError(t, err)
	assert.Len(t, grid, 1, "20 minute remainder is dropped")
}

func TestOccupancyOverRangeValidation(t *testing.T) {
	schedule := models.UserSchedule{UserID: "user-1"}

	_, err := OccupancyOverRange(schedule, TimeInterval{Start: monday(10, 0), End: monday(9, 0)}, 15)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidRange.Code, appErrors.FromError(err).Code)

	_, err = OccupancyOverRange(schedule, TimeInterval{Start: monday(9, 0), End: monday(10, 0)}, 0)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidGranularity.Code, appErrors.FromError(err).Code)
}

func TestOccupancyOverRangeSlotCrossingMidnight(t *testing.T) {
	schedule := models.UserSchedule{
		UserID:     "user-1",
		BusyBlocks: []models.WeeklyBusyBlock{busyBlock(models.Weekday(time.Tuesday), 0, 30)},
	}

	// Slot 23:30 Monday - 00:30 Tuesday overlaps a Tuesday-morning block.
	grid, err := OccupancyOverRange(schedule, TimeInterval{Start: monday(23, 30), End: monday(23, 30).Add(time.Hour)}, 60)
	require.NoError(t, err)
	require.Len(t, grid, 1)
	assert.True(t, grid[0])
}
