package availability

import (
	"fmt"
	"time"

	"github.com/studysync/studysync-api/internal/models"
	appErrors "github.com/studysync/studysync-api/pkg/errors"
)

// Request bundles the inputs for one resolution. It is ephemeral: built per
// query, never persisted.
type Request struct {
	ParticipantSchedules   []models.UserSchedule
	MeetingDurationMinutes int
	SearchRange            TimeInterval
}

// Options carries caller-set knobs. Zero values mean defaults: full-group
// attendance and the resolver's configured granularity.
type Options struct {
	RequiredCount      int
	GranularityMinutes int
}

// Config bounds resolver work.
type Config struct {
	DefaultGranularityMinutes int
	MaxRangeDays              int
}

// Resolver computes ranked meeting windows. It is a pure computation over
// immutable inputs: no I/O, no shared state, safe for concurrent use.
type Resolver struct {
	cfg Config
}

// NewResolver applies config defaults (30 minute slots, 90 day range cap).
func NewResolver(cfg Config) *Resolver {
	if cfg.DefaultGranularityMinutes <= 0 {
		cfg.DefaultGranularityMinutes = 30
	}
	if cfg.MaxRangeDays <= 0 {
		cfg.MaxRangeDays = 90
	}
	return &Resolver{cfg: cfg}
}

// Resolve validates the request, builds per-participant occupancy grids,
// aggregates them, extracts qualifying windows and returns them ranked.
// Deterministic: identical inputs always yield the identical ordered list.
func (r *Resolver) Resolve(req Request, opts Options) ([]CandidateWindow, error) {
	if req.MeetingDurationMinutes <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "meeting duration must be a positive number of minutes")
	}
	if !req.SearchRange.End.After(req.SearchRange.Start) {
		return nil, appErrors.Clone(appErrors.ErrInvalidRange, "")
	}
	maxSpan := time.Duration(r.cfg.MaxRangeDays) * 24 * time.Hour
	if req.SearchRange.Duration() > maxSpan {
		return nil, appErrors.Clone(appErrors.ErrRangeTooLarge,
			fmt.Sprintf("search range exceeds %d days", r.cfg.MaxRangeDays))
	}

	granularityMinutes := opts.GranularityMinutes
	if granularityMinutes == 0 {
		granularityMinutes = r.cfg.DefaultGranularityMinutes
	}
	if granularityMinutes <= 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidGranularity, "")
	}

	schedules := dedupeByUser(req.ParticipantSchedules)
	total := len(schedules)
	if total == 0 {
		return nil, appErrors.Clone(appErrors.ErrEmptyGroup, "")
	}

	requiredCount := opts.RequiredCount
	if requiredCount == 0 {
		requiredCount = total
	}
	if requiredCount < 1 || requiredCount > total {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("required count %d out of range for %d participants", requiredCount, total))
	}

	grids := make(map[string][]bool, total)
	slotCount := int(req.SearchRange.Duration() / (time.Duration(granularityMinutes) * time.Minute))
	for _, schedule := range schedules {
		grid, err := OccupancyOverRange(schedule, req.SearchRange, granularityMinutes)
		if err != nil {
			return nil, err
		}
		grids[schedule.UserID] = grid
	}

	joint, err := Aggregate(grids, slotCount)
	if err != nil {
		return nil, err
	}

	windows, err := ExtractWindows(
		joint,
		req.SearchRange,
		time.Duration(granularityMinutes)*time.Minute,
		time.Duration(req.MeetingDurationMinutes)*time.Minute,
		requiredCount,
		total,
	)
	if err != nil {
		return nil, err
	}

	return ScoreAndRank(windows, schedules), nil
}

// dedupeByUser keeps the first schedule seen per user id, preserving request
// order so resolution stays deterministic.
func dedupeByUser(schedules []models.UserSchedule) []models.UserSchedule {
	seen := make(map[string]bool, len(schedules))
	result := make([]models.UserSchedule, 0, len(schedules))
	for _, schedule := range schedules {
		if schedule.UserID == "" || seen[schedule.UserID] {
			continue
		}
		seen[schedule.UserID] = true
		result = append(result, schedule)
	}
	return result
}
