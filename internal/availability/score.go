package availability

import (
	"sort"
	"strings"

	"github.com/studysync/studysync-api/internal/models"
)

// Scoring weights. Documented design choices, not hidden constants: the
// participation term dominates, day preference is secondary, commute
// proximity is a mild nudge.
const (
	WeightParticipation = 0.6
	WeightDayPreference = 0.3
	WeightProximity     = 0.1
)

// ScoreAndRank assigns each window its deterministic score and sorts the
// result: score descending, then earliest start, then lexicographically
// smallest set of missing participants. Scoring never fails; missing
// preference or location data degrades to a neutral 1.0 contribution.
func ScoreAndRank(windows []CandidateWindow, schedules []models.UserSchedule) []CandidateWindow {
	for i := range windows {
		windows[i].Score = scoreWindow(windows[i], schedules)
	}

	sort.SliceStable(windows, func(i, j int) bool {
		if windows[i].Score != windows[j].Score {
			return windows[i].Score > windows[j].Score
		}
		if !windows[i].Interval.Start.Equal(windows[j].Interval.Start) {
			return windows[i].Interval.Start.Before(windows[j].Interval.Start)
		}
		return missingKey(windows[i], schedules) < missingKey(windows[j], schedules)
	})
	return windows
}

func scoreWindow(w CandidateWindow, schedules []models.UserSchedule) float64 {
	participation := float64(len(w.AvailableParticipants)) / float64(w.TotalParticipants)
	day := dayPreferenceScore(w, schedules)
	proximity := proximityScore(w, schedules)

	score := WeightParticipation*participation + WeightDayPreference*day + WeightProximity*proximity
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// dayPreferenceScore is the fraction of participants happy with the window's
// weekday. A participant with no declared preference counts as satisfied.
func dayPreferenceScore(w CandidateWindow, schedules []models.UserSchedule) float64 {
	if len(schedules) == 0 {
		return 1
	}
	weekday := models.Weekday(w.Interval.Start.Weekday())
	satisfied := 0
	for _, schedule := range schedules {
		if len(schedule.DayPreferences) == 0 {
			satisfied++
			continue
		}
		for _, preferred := range schedule.DayPreferences {
			if preferred == weekday {
				satisfied++
				break
			}
		}
	}
	return float64(satisfied) / float64(len(schedules))
}

// proximityScore penalises participants whose nearest preceding location hint
// for the window's day differs from the majority location. With no hints at
// all the contribution is neutral.
func proximityScore(w CandidateWindow, schedules []models.UserSchedule) float64 {
	weekday := models.Weekday(w.Interval.Start.Weekday())
	startMinute := models.TimeOfDay(w.Interval.Start.Hour()*60 + w.Interval.Start.Minute())

	locations := make(map[string]string, len(schedules))
	for _, schedule := range schedules {
		if loc, ok := precedingLocation(schedule, weekday, startMinute); ok {
			locations[schedule.UserID] = loc
		}
	}
	if len(locations) == 0 {
		return 1
	}

	majority := majorityLocation(locations)
	mismatched := 0
	for _, loc := range locations {
		if loc != majority {
			mismatched++
		}
	}
	return 1 - float64(mismatched)/float64(len(locations))
}

// precedingLocation finds where the participant last was before the window
// starts: the hint on the same weekday with the greatest end time not after
// the window start.
func precedingLocation(schedule models.UserSchedule, day models.Weekday, before models.TimeOfDay) (string, bool) {
	best := models.TimeOfDay(-1)
	location := ""
	for _, hint := range schedule.LocationHints {
		if hint.Day != day || hint.EndTime > before {
			continue
		}
		if hint.EndTime > best {
			best = hint.EndTime
			location = hint.Location
		}
	}
	return location, best >= 0
}

func majorityLocation(locations map[string]string) string {
	counts := make(map[string]int, len(locations))
	for _, loc := range locations {
		counts[loc]++
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	// Sorted walk keeps the majority pick stable when counts tie.
	sort.Strings(names)
	majority, max := "", 0
	for _, name := range names {
		if counts[name] > max {
			majority, max = name, counts[name]
		}
	}
	return majority
}

// missingKey renders the sorted set of absent participants for tie-breaking.
func missingKey(w CandidateWindow, schedules []models.UserSchedule) string {
	present := make(map[string]bool, len(w.AvailableParticipants))
	for _, id := range w.AvailableParticipants {
		present[id] = true
	}
	missing := make([]string, 0, len(schedules))
	for _, schedule := range schedules {
		if !present[schedule.UserID] {
			missing = append(missing, schedule.UserID)
		}
	}
	sort.Strings(missing)
	return strings.Join(missing, ",")
}
