package ics

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studysync/studysync-api/internal/models"
	appErrors "github.com/studysync/studysync-api/pkg/errors"
)

func calendar(events ...string) []byte {
	var b strings.Builder
	b.WriteString("BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//StudySync//EN\r\n")
	for _, ev := range events {
		b.WriteString("BEGIN:VEVENT\r\n")
		b.WriteString(ev)
		b.WriteString("END:VEVENT\r\n")
	}
	b.WriteString("END:VCALENDAR\r\n")
	return []byte(b.String())
}

func TestParseLectureEvent(t *testing.T) {
	payload := calendar(
		"SUMMARY:CS 101\r\nLOCATION:North Campus\r\nDTSTART:20240115T090000\r\nDTEND:20240115T100000\r\n",
	)

	res, err := NewParser(0).Parse("user-1", payload)
	require.NoError(t, err)
	require.Len(t, res.Schedule.BusyBlocks, 1)
	assert.Equal(t, 0, res.SkippedCount)

	block := res.Schedule.BusyBlocks[0]
	// 2024-01-15 is a Monday.
	assert.Equal(t, models.Weekday(time.Monday), block.DayOfWeek)
	assert.Equal(t, models.TimeOfDay(9*60), block.Start)
	assert.Equal(t, models.TimeOfDay(10*60), block.End)
	assert.Equal(t, "CS 101", block.Label)
	assert.Equal(t, "North Campus", block.Location)

	require.Len(t, res.Schedule.LocationHints, 1)
	assert.Equal(t, "North Campus", res.Schedule.LocationHints[0].Location)
	assert.Equal(t, models.TimeOfDay(10*60), res.Schedule.LocationHints[0].EndTime)
}

func TestParseSkipsMalformedEvents(t *testing.T) {
	payload := calendar(
		"SUMMARY:CS 101\r\nDTSTART:20240115T090000\r\nDTEND:20240115T100000\r\n",
		"SUMMARY:MATH 210\r\nDTSTART:20240115T110000\r\nDTEND:20240115T120000\r\n",
		"SUMMARY:Broken lecture\r\nDTSTART:20240116T090000\r\n",
		"SUMMARY:PHYS 150\r\nDTSTART:20240117T140000\r\nDTEND:20240117T153000\r\n",
	)

	res, err := NewParser(0).Parse("user-1", payload)
	require.NoError(t, err)
	assert.Len(t, res.Schedule.BusyBlocks, 3)
	assert.Equal(t, 1, res.SkippedCount)
	assert.Equal(t, 4, res.EventCount)
}

func TestParseClassHeuristicAboveThreshold(t *testing.T) {
	events := []string{
		"SUMMARY:Biology lecture\r\nDTSTART:20240115T090000\r\nDTEND:20240115T100000\r\n",
		"SUMMARY:CS 101\r\nDTSTART:20240115T110000\r\nDTEND:20240115T120000\r\n",
		"SUMMARY:Coffee with Sam\r\nDTSTART:20240115T130000\r\nDTEND:20240115T140000\r\n",
	}

	res, err := NewParser(2).Parse("user-1", calendar(events...))
	require.NoError(t, err)
	require.Len(t, res.Schedule.BusyBlocks, 2, "non-class events are dropped above the keep-all threshold")
	assert.Equal(t, "Biology lecture", res.Schedule.BusyBlocks[0].Label)
	assert.Equal(t, "CS 101", res.Schedule.BusyBlocks[1].Label)
}

func TestParseKeepsEverythingInSparseCalendars(t *testing.T) {
	events := []string{
		"SUMMARY:Coffee with Sam\r\nDTSTART:20240115T130000\r\nDTEND:20240115T140000\r\n",
		"SUMMARY:Gym\r\nDTSTART:20240116T070000\r\nDTEND:20240116T080000\r\n",
	}

	res, err := NewParser(20).Parse("user-1", calendar(events...))
	require.NoError(t, err)
	assert.Len(t, res.Schedule.BusyBlocks, 2)
}

func TestParseAllDayEventGetsPlaceholderBlock(t *testing.T) {
	payload := calendar("SUMMARY:ENG 230 exam\r\nDTSTART;VALUE=DATE:20240115\r\n")

	res, err := NewParser(0).Parse("user-1", payload)
	require.NoError(t, err)
	require.Len(t, res.Schedule.BusyBlocks, 1)
	assert.Equal(t, models.TimeOfDay(9*60), res.Schedule.BusyBlocks[0].Start)
	assert.Equal(t, models.TimeOfDay(10*60), res.Schedule.BusyBlocks[0].End)
}

func TestParseSplitsEventsCrossingMidnight(t *testing.T) {
	payload := calendar("SUMMARY:ASTR 310 observation lab\r\nDTSTART:20240115T230000\r\nDTEND:20240116T010000\r\n")

	res, err := NewParser(0).Parse("user-1", payload)
	require.NoError(t, err)
	require.Len(t, res.Schedule.BusyBlocks, 2)
	assert.Equal(t, models.Weekday(time.Monday), res.Schedule.BusyBlocks[0].DayOfWeek)
	assert.Equal(t, models.TimeOfDay(24*60), res.Schedule.BusyBlocks[0].End)
	assert.Equal(t, models.Weekday(time.Tuesday), res.Schedule.BusyBlocks[1].DayOfWeek)
	assert.Equal(t, models.TimeOfDay(0), res.Schedule.BusyBlocks[1].Start)
	assert.Equal(t, models.TimeOfDay(60), res.Schedule.BusyBlocks[1].End)
}

func TestParseUnfoldsContinuationLines(t *testing.T) {
	payload := calendar("SUMMARY:CS 4\r\n 49 distributed systems\r\nDTSTART:20240115T090000\r\nDTEND:20240115T100000\r\n")

	res, err := NewParser(0).Parse("user-1", payload)
	require.NoError(t, err)
	require.Len(t, res.Schedule.BusyBlocks, 1)
	assert.Equal(t, "CS 449 distributed systems", res.Schedule.BusyBlocks[0].Label)
}

func TestParseUTCTimestampAccepted(t *testing.T) {
	payload := calendar("SUMMARY:CHEM 120\r\nDTSTART:20240115T090000Z\r\nDTEND:20240115T100000Z\r\n")

	res, err := NewParser(0).Parse("user-1", payload)
	require.NoError(t, err)
	require.Len(t, res.Schedule.BusyBlocks, 1)
	assert.Equal(t, models.TimeOfDay(9*60), res.Schedule.BusyBlocks[0].Start)
}

func TestParseRejectsNonCalendarPayloads(t *testing.T) {
	_, err := NewParser(0).Parse("user-1", []byte{0xff, 0xfe, 0x00, 0x01})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnparseableCalendar.Code, appErrors.FromError(err).Code)

	_, err = NewParser(0).Parse("user-1", []byte("just a text file"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnparseableCalendar.Code, appErrors.FromError(err).Code)
}

func TestBuildManualScheduleValidation(t *testing.T) {
	blocks := []models.WeeklyBusyBlock{{DayOfWeek: models.Weekday(time.Monday), Start: 9 * 60, End: 10 * 60}}

	schedule, err := BuildManualSchedule("user-1", blocks, []models.Weekday{models.Weekday(time.Tuesday)}, nil)
	require.NoError(t, err)
	assert.Equal(t, "user-1", schedule.UserID)
	assert.Len(t, schedule.BusyBlocks, 1)

	_, err = BuildManualSchedule("user-1", []models.WeeklyBusyBlock{{DayOfWeek: 1, Start: 10 * 60, End: 9 * 60}}, nil, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = BuildManualSchedule("user-1", []models.WeeklyBusyBlock{{DayOfWeek: 9, Start: 9 * 60, End: 10 * 60}}, nil, nil)
	require.Error(t, err)

	_, err = BuildManualSchedule("user-1", nil, []models.Weekday{8}, nil)
	require.Error(t, err)
}
