// Package ics translates external calendar payloads into the canonical
// weekly schedule consumed by the availability resolver.
package ics

import (
	"bufio"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/studysync/studysync-api/internal/models"
	appErrors "github.com/studysync/studysync-api/pkg/errors"
)

// DefaultKeepAllThreshold keeps every event as a busy block when a calendar
// holds at most this many events, so a sparse schedule is not discarded by
// the class heuristic. Adjustable via config, not a hard law.
const DefaultKeepAllThreshold = 20

// Placeholder window assigned to all-day events (documented limitation: the
// feed gives no time of day to work with).
const (
	allDayPlaceholderStart = models.TimeOfDay(9 * 60)
	allDayPlaceholderEnd   = models.TimeOfDay(10 * 60)
)

var courseCodePattern = regexp.MustCompile(`^[A-Z]{2,4}\s?\d+`)

var classKeywords = []string{"class", "lecture", "lab", "seminar", "tutorial"}

// Result carries the parsed schedule plus import-degradation metadata so the
// caller can warn the user ("12 of 15 events imported") without failing.
type Result struct {
	Schedule     models.UserSchedule
	EventCount   int
	SkippedCount int
}

// Parser converts iCalendar text into a UserSchedule.
type Parser struct {
	keepAllThreshold int
}

// NewParser builds a parser; threshold <= 0 selects the default.
func NewParser(keepAllThreshold int) *Parser {
	if keepAllThreshold <= 0 {
		keepAllThreshold = DefaultKeepAllThreshold
	}
	return &Parser{keepAllThreshold: keepAllThreshold}
}

type event struct {
	summary  string
	location string
	start    time.Time
	end      time.Time
	allDay   bool
	valid    bool
}

// Parse decodes the payload and extracts VEVENT blocks. Structural
// irregularities inside a well-formed file degrade to skipped events; only a
// payload that is not decodable calendar text at all is an error.
func (p *Parser) Parse(userID string, data []byte) (*Result, error) {
	if !utf8.Valid(data) {
		return nil, appErrors.Clone(appErrors.ErrUnparseableCalendar, "")
	}
	text := string(data)
	if !strings.Contains(text, "BEGIN:VCALENDAR") {
		return nil, appErrors.Clone(appErrors.ErrUnparseableCalendar, "missing VCALENDAR envelope")
	}

	events, skipped := scanEvents(text)

	keepAll := len(events) <= p.keepAllThreshold
	schedule := models.UserSchedule{UserID: userID}
	for _, ev := range events {
		if !isClassEvent(ev.summary) && !keepAll {
			continue
		}
		blocks := toBusyBlocks(ev)
		schedule.BusyBlocks = append(schedule.BusyBlocks, blocks...)
		if ev.location != "" && len(blocks) > 0 {
			last := blocks[len(blocks)-1]
			schedule.LocationHints = append(schedule.LocationHints, models.LocationHint{
				Location: ev.location,
				Day:      last.DayOfWeek,
				EndTime:  last.End,
			})
		}
	}

	return &Result{
		Schedule:     schedule,
		EventCount:   len(events) + skipped,
		SkippedCount: skipped,
	}, nil
}

// scanEvents walks unfolded content lines and collects well-formed VEVENTs;
// events missing their start or end are counted as skipped.
func scanEvents(text string) ([]event, int) {
	var (
		events  []event
		skipped int
		current event
		inEvent bool
	)

	scanner := bufio.NewScanner(strings.NewReader(unfold(text)))
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		switch {
		case line == "BEGIN:VEVENT":
			inEvent = true
			current = event{}
		case line == "END:VEVENT":
			if !inEvent {
				continue
			}
			inEvent = false
			if finalize(&current) {
				events = append(events, current)
			} else {
				skipped++
			}
		case inEvent:
			applyProperty(&current, line)
		}
	}
	return events, skipped
}

// unfold joins iCalendar continuation lines (RFC 5545 §3.1: a line starting
// with space or tab continues the previous one).
func unfold(text string) string {
	text = strings.ReplaceAll(text, "\r\n ", "")
	text = strings.ReplaceAll(text, "\r\n\t", "")
	text = strings.ReplaceAll(text, "\n ", "")
	return strings.ReplaceAll(text, "\n\t", "")
}

func applyProperty(ev *event, line string) {
	name, params, value, ok := splitProperty(line)
	if !ok {
		return
	}
	switch name {
	case "SUMMARY":
		ev.summary = value
	case "LOCATION":
		ev.location = value
	case "DTSTART":
		ev.start, ev.allDay = parseICSTime(params, value)
	case "DTEND":
		end, _ := parseICSTime(params, value)
		ev.end = end
	}
}

func splitProperty(line string) (name, params, value string, ok bool) {
	colon := strings.Index(line, ":")
	if colon < 0 {
		return "", "", "", false
	}
	nameAndParams := line[:colon]
	value = line[colon+1:]
	if semi := strings.Index(nameAndParams, ";"); semi >= 0 {
		return strings.ToUpper(nameAndParams[:semi]), nameAndParams[semi+1:], value, true
	}
	return strings.ToUpper(nameAndParams), "", value, true
}

// parseICSTime handles the common shapes: local and UTC date-times plus
// VALUE=DATE all-day stamps. Timezone identifiers are ignored; the model is
// timezone-naive local time.
func parseICSTime(params, value string) (ts time.Time, allDay bool) {
	if strings.Contains(params, "VALUE=DATE") || len(value) == 8 {
		if t, err := time.ParseInLocation("20060102", value, time.Local); err == nil {
			return t, true
		}
		return time.Time{}, false
	}
	value = strings.TrimSuffix(value, "Z")
	if t, err := time.ParseInLocation("20060102T150405", value, time.Local); err == nil {
		return t, false
	}
	return time.Time{}, false
}

func finalize(ev *event) bool {
	if ev.allDay {
		ev.valid = !ev.start.IsZero()
		return ev.valid
	}
	ev.valid = !ev.start.IsZero() && !ev.end.IsZero() && ev.end.After(ev.start)
	return ev.valid
}

// isClassEvent applies the recurring-class heuristic: keyword match or a
// course-code-like prefix such as "CS 101".
func isClassEvent(summary string) bool {
	if summary == "" {
		return false
	}
	lower := strings.ToLower(summary)
	for _, keyword := range classKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return courseCodePattern.MatchString(summary)
}

// toBusyBlocks projects an event onto the weekly grid. A block never spans
// midnight: an event that does is split at the boundary.
func toBusyBlocks(ev event) []models.WeeklyBusyBlock {
	day := models.Weekday(ev.start.Weekday())
	if ev.allDay {
		return []models.WeeklyBusyBlock{{
			DayOfWeek: day,
			Start:     allDayPlaceholderStart,
			End:       allDayPlaceholderEnd,
			Label:     ev.summary,
			Location:  ev.location,
		}}
	}

	startMinute := models.TimeOfDay(ev.start.Hour()*60 + ev.start.Minute())
	endMinute := models.TimeOfDay(ev.end.Hour()*60 + ev.end.Minute())
	sameDay := ev.start.Year() == ev.end.Year() && ev.start.YearDay() == ev.end.YearDay()
	if sameDay {
		if endMinute <= startMinute {
			return nil
		}
		return []models.WeeklyBusyBlock{{
			DayOfWeek: day,
			Start:     startMinute,
			End:       endMinute,
			Label:     ev.summary,
			Location:  ev.location,
		}}
	}

	blocks := []models.WeeklyBusyBlock{{
		DayOfWeek: day,
		Start:     startMinute,
		End:       models.TimeOfDay(24 * 60),
		Label:     ev.summary,
		Location:  ev.location,
	}}
	if endMinute > 0 {
		blocks = append(blocks, models.WeeklyBusyBlock{
			DayOfWeek: models.Weekday((int(day) + 1) % 7),
			Start:     0,
			End:       endMinute,
			Label:     ev.summary,
			Location:  ev.location,
		})
	}
	return blocks
}
