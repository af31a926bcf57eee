package models

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Weekday indexes Sunday=0 through Saturday=6, matching time.Weekday.
type Weekday int

// WeeklyBusyBlock is a recurring weekly commitment such as a class. Blocks
// never span midnight; a cross-midnight commitment is stored as two blocks.
type WeeklyBusyBlock struct {
	DayOfWeek Weekday   `json:"day_of_week"`
	Start     TimeOfDay `json:"start"`
	End       TimeOfDay `json:"end"`
	Label     string    `json:"label"`
	Location  string    `json:"location,omitempty"`
}

// TimeOfDay is minutes since midnight, local time.
type TimeOfDay int

// Minutes returns the raw minute count.
func (t TimeOfDay) Minutes() int { return int(t) }

// String renders HH:MM.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// ParseTimeOfDay converts an HH:MM string into minutes since midnight.
func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	var h, m int
	if _, err := fmt.Sscanf(raw, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid time of day %q", raw)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("time of day %q out of range", raw)
	}
	return TimeOfDay(h*60 + m), nil
}

// LocationHint records where a participant already is on a given day, used
// only for soft proximity scoring.
type LocationHint struct {
	Location string    `json:"location"`
	Day      Weekday   `json:"day"`
	EndTime  TimeOfDay `json:"end_time"`
}

// UserSchedule is the canonical weekly schedule owned by one participant.
// A new submission fully supersedes the old; it is never partially mutated.
type UserSchedule struct {
	UserID         string            `json:"user_id"`
	BusyBlocks     []WeeklyBusyBlock `json:"busy_blocks"`
	DayPreferences []Weekday         `json:"day_preferences,omitempty"`
	LocationHints  []LocationHint    `json:"location_hints,omitempty"`
}

// UserScheduleRecord is the persisted row wrapping the JSON schedule payload.
type UserScheduleRecord struct {
	ID        string         `db:"id" json:"id"`
	UserID    string         `db:"user_id" json:"user_id"`
	Source    string         `db:"source" json:"source"`
	Payload   types.JSONText `db:"payload" json:"-"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// Schedule sources accepted on submission.
const (
	ScheduleSourceManual   = "manual"
	ScheduleSourceICS      = "ics"
	ScheduleSourceExternal = "external"
)
