package availability

import (
	"time"

	"github.com/studysync/studysync-api/internal/models"
	appErrors "github.com/studysync/studysync-api/pkg/errors"
)

// TimeInterval is a half-open [Start, End) span of timezone-naive local time.
type TimeInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration returns the span length.
func (i TimeInterval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// IsBusy reports whether the instant falls inside any weekly busy block of
// the schedule. Block bounds are half-open: a block ending 10:00 does not
// occupy the 10:00 instant.
func IsBusy(schedule models.UserSchedule, at time.Time) bool {
	day := models.Weekday(at.Weekday())
	minute := at.Hour()*60 + at.Minute()
	for _, block := range schedule.BusyBlocks {
		if block.DayOfWeek != day {
			continue
		}
		if minute >= block.Start.Minutes() && minute < block.End.Minutes() {
			return true
		}
	}
	return false
}

// OccupancyOverRange discretises the range into granularity-sized slots and
// marks a slot busy when any portion of it overlaps a busy block. Slot
// boundaries align to rng.Start; a partial final slot shorter than the
// granularity is dropped.
func OccupancyOverRange(schedule models.UserSchedule, rng TimeInterval, granularityMinutes int) ([]bool, error) {
	if !rng.End.After(rng.Start) {
		return nil, appErrors.Clone(appErrors.ErrInvalidRange, "")
	}
	if granularityMinutes <= 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidGranularity, "")
	}

	granularity := time.Duration(granularityMinutes) * time.Minute
	slotCount := int(rng.Duration() / granularity)
	grid := make([]bool, slotCount)
	for i := 0; i < slotCount; i++ {
		slotStart := rng.Start.Add(time.Duration(i) * granularity)
		grid[i] = overlapsBusyBlock(schedule, slotStart, slotStart.Add(granularity))
	}
	return grid, nil
}

// overlapsBusyBlock checks [from, to) against the weekly blocks, walking the
// span one calendar day at a time so slots that cross midnight compare
// against both weekdays.
func overlapsBusyBlock(schedule models.UserSchedule, from, to time.Time) bool {
	for cursor := from; cursor.Before(to); {
		nextMidnight := time.Date(cursor.Year(), cursor.Month(), cursor.Day(), 0, 0, 0, 0, cursor.Location()).AddDate(0, 0, 1)
		segmentEnd := to
		if nextMidnight.Before(segmentEnd) {
			segmentEnd = nextMidnight
		}

		day := models.Weekday(cursor.Weekday())
		startMinute := cursor.Hour()*60 + cursor.Minute()
		endMinute := startMinute + int(segmentEnd.Sub(cursor)/time.Minute)

		for _, block := range schedule.BusyBlocks {
			if block.DayOfWeek != day {
				continue
			}
			if startMinute < block.End.Minutes() && endMinute > block.Start.Minutes() {
				return true
			}
		}
		cursor = segmentEnd
	}
	return false
}
