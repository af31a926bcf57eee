package availability

import (
	"time"

	appErrors "github.com/studysync/studysync-api/pkg/errors"
)

// CandidateWindow is a proposed meeting time with the participants known to
// be free for its whole span.
type CandidateWindow struct {
	Interval              TimeInterval `json:"interval"`
	AvailableParticipants []string     `json:"available_participants"`
	TotalParticipants     int          `json:"total_participants"`
	Score                 float64      `json:"score"`
}

// ExtractWindows scans the joint grid for maximal runs of qualifying slots
// and emits at most one candidate per run, anchored at the run start and
// truncated to the meeting duration. A slot qualifies when at least
// requiredCount participants are free. The window reports the intersection of
// the per-slot sets across its own span, since a valid meeting needs the same
// people for the whole duration. A run whose anchored window cannot keep
// requiredCount common participants yields no candidate: the anchor never
// slides and a run is never split, so one free region produces at most one
// window at any threshold.
func ExtractWindows(
	slots []SlotAvailability,
	rng TimeInterval,
	granularity time.Duration,
	meetingDuration time.Duration,
	requiredCount int,
	totalParticipants int,
) ([]CandidateWindow, error) {
	if totalParticipants <= 0 {
		return nil, appErrors.Clone(appErrors.ErrEmptyGroup, "")
	}
	if rng.Duration() < meetingDuration {
		return nil, appErrors.Clone(appErrors.ErrRangeTooShort, "")
	}

	windows := make([]CandidateWindow, 0)
	slotsPerWindow := int((meetingDuration + granularity - 1) / granularity)
	runStart := -1

	flush := func(endExclusive int) {
		if runStart < 0 {
			return
		}
		anchor := runStart
		runStart = -1
		if time.Duration(endExclusive-anchor)*granularity < meetingDuration {
			return
		}
		set := slots[anchor].Available
		for i := anchor + 1; i < anchor+slotsPerWindow; i++ {
			set = intersect(set, slots[i].Available)
		}
		if len(set) < requiredCount {
			return
		}
		start := rng.Start.Add(time.Duration(anchor) * granularity)
		windows = append(windows, CandidateWindow{
			Interval:              TimeInterval{Start: start, End: start.Add(meetingDuration)},
			AvailableParticipants: set,
			TotalParticipants:     totalParticipants,
		})
	}

	for i, slot := range slots {
		if len(slot.Available) < requiredCount {
			flush(i)
			continue
		}
		if runStart < 0 {
			runStart = i
		}
	}
	flush(len(slots))

	return windows, nil
}

// intersect assumes both inputs are sorted and returns their sorted
// intersection.
func intersect(a, b []string) []string {
	result := make([]string, 0, len(a))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			result = append(result, a[i])
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return result
}
