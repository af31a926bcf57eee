package ics

import (
	"fmt"

	"github.com/studysync/studysync-api/internal/models"
	appErrors "github.com/studysync/studysync-api/pkg/errors"
)

// BuildManualSchedule validates manually entered busy blocks and assembles a
// UserSchedule. Unlike calendar import nothing is skipped silently: a bad
// block is the user's own typo and is rejected outright.
func BuildManualSchedule(userID string, blocks []models.WeeklyBusyBlock, preferences []models.Weekday, hints []models.LocationHint) (models.UserSchedule, error) {
	for i, b := range blocks {
		if b.DayOfWeek < 0 || b.DayOfWeek > 6 {
			return models.UserSchedule{}, appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("block %d: day of week %d out of range", i, b.DayOfWeek))
		}
		if b.Start < 0 || b.End > 24*60 {
			return models.UserSchedule{}, appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("block %d: time of day out of range", i))
		}
		if b.End <= b.Start {
			return models.UserSchedule{}, appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("block %d: end %s must be after start %s", i, b.End, b.Start))
		}
	}
	for i, d := range preferences {
		if d < 0 || d > 6 {
			return models.UserSchedule{}, appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("preference %d: day of week %d out of range", i, d))
		}
	}

	return models.UserSchedule{
		UserID:         userID,
		BusyBlocks:     blocks,
		DayPreferences: preferences,
		LocationHints:  hints,
	}, nil
}
