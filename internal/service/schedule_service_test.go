package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/studysync/studysync-api/internal/dto"
	"github.com/studysync/studysync-api/internal/models"
	appErrors "github.com/studysync/studysync-api/pkg/errors"
)

type mockScheduleRepo struct {
	stored     *models.UserSchedule
	source     string
	record     *models.UserScheduleRecord
	deleted    bool
	deletedFor string
}

func (m *mockScheduleRepo) Upsert(ctx context.Context, schedule models.UserSchedule, source string) error {
	m.stored = &schedule
	m.source = source
	return nil
}

func (m *mockScheduleRepo) GetByUser(ctx context.Context, userID string) (*models.UserScheduleRecord, error) {
	if m.record == nil {
		return nil, sql.ErrNoRows
	}
	return m.record, nil
}

func (m *mockScheduleRepo) Delete(ctx context.Context, userID string) error {
	m.deleted = true
	m.deletedFor = userID
	return nil
}

type mockGroupLister struct {
	groups []models.Group
}

func (m *mockGroupLister) List(ctx context.Context, filter models.GroupFilter) ([]models.Group, int, error) {
	return m.groups, len(m.groups), nil
}

func newScheduleService(repo *mockScheduleRepo) *ScheduleService {
	return NewScheduleService(repo, &mockGroupLister{}, nil, nil, zap.NewNop(), ScheduleConfig{})
}

func TestScheduleSubmitStoresManualBlocks(t *testing.T) {
	repo := &mockScheduleRepo{}
	svc := newScheduleService(repo)

	resp, err := svc.Submit(context.Background(), "u1", dto.SubmitScheduleRequest{
		BusyBlocks: []dto.BusyBlockPayload{
			{DayOfWeek: 1, Start: "09:00", End: "10:30", Label: "CS 101", Location: "North Campus"},
		},
		DayPreferences: []int{2, 4},
	})
	require.NoError(t, err)
	assert.Equal(t, models.ScheduleSourceManual, resp.Source)
	require.NotNil(t, repo.stored)
	assert.Equal(t, models.TimeOfDay(9*60), repo.stored.BusyBlocks[0].Start)
	assert.Equal(t, models.TimeOfDay(10*60+30), repo.stored.BusyBlocks[0].End)
	assert.Equal(t, []models.Weekday{2, 4}, repo.stored.DayPreferences)
}

func TestScheduleSubmitRejectsInvertedBlock(t *testing.T) {
	repo := &mockScheduleRepo{}
	svc := newScheduleService(repo)

	_, err := svc.Submit(context.Background(), "u1", dto.SubmitScheduleRequest{
		BusyBlocks: []dto.BusyBlockPayload{
			{DayOfWeek: 1, Start: "14:00", End: "13:00"},
		},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.stored)
}

func TestScheduleSubmitRejectsBadTimeFormat(t *testing.T) {
	repo := &mockScheduleRepo{}
	svc := newScheduleService(repo)

	_, err := svc.Submit(context.Background(), "u1", dto.SubmitScheduleRequest{
		BusyBlocks: []dto.BusyBlockPayload{
			{DayOfWeek: 1, Start: "nine", End: "10:00"},
		},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestScheduleImportParsesCalendar(t *testing.T) {
	repo := &mockScheduleRepo{}
	svc := newScheduleService(repo)

	payload := []byte("BEGIN:VCALENDAR\r\nVERSION:2.0\r\n" +
		"BEGIN:VEVENT\r\nSUMMARY:CS 101 Lecture\r\nDTSTART:20240115T090000\r\nDTEND:20240115T100000\r\nEND:VEVENT\r\n" +
		"END:VCALENDAR\r\n")

	summary, err := svc.Import(context.Background(), "u1", payload)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.EventCount)
	assert.Equal(t, 1, summary.ImportedCount)
	assert.Equal(t, 0, summary.SkippedCount)
	assert.Equal(t, models.ScheduleSourceICS, repo.source)
	require.Len(t, summary.Schedule.BusyBlocks, 1)
	assert.Equal(t, int(time.Monday), summary.Schedule.BusyBlocks[0].DayOfWeek)
}

func TestScheduleImportRejectsGarbage(t *testing.T) {
	repo := &mockScheduleRepo{}
	svc := newScheduleService(repo)

	_, err := svc.Import(context.Background(), "u1", []byte{0xff, 0xfe, 0x00, 0x01})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnparseableCalendar.Code, appErrors.FromError(err).Code)
}

func TestScheduleImportRejectsOversizedPayload(t *testing.T) {
	repo := &mockScheduleRepo{}
	svc := NewScheduleService(repo, &mockGroupLister{}, nil, nil, zap.NewNop(), ScheduleConfig{MaxImportBytes: 16})

	_, err := svc.Import(context.Background(), "u1", []byte("BEGIN:VCALENDAR this is way past sixteen bytes END:VCALENDAR"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestScheduleGetDecodesStoredPayload(t *testing.T) {
	schedule := models.UserSchedule{
		UserID: "u1",
		BusyBlocks: []models.WeeklyBusyBlock{
			{DayOfWeek: 3, Start: 13 * 60, End: 14 * 60, Label: "Lab"},
		},
	}
	payload, err := json.Marshal(schedule)
	require.NoError(t, err)

	repo := &mockScheduleRepo{record: &models.UserScheduleRecord{
		UserID:  "u1",
		Source:  models.ScheduleSourceManual,
		Payload: types.JSONText(payload),
	}}
	svc := newScheduleService(repo)

	resp, err := svc.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", resp.UserID)
	require.Len(t, resp.BusyBlocks, 1)
	assert.Equal(t, "13:00", resp.BusyBlocks[0].Start)
}

func TestScheduleGetNotFound(t *testing.T) {
	svc := newScheduleService(&mockScheduleRepo{})

	_, err := svc.Get(context.Background(), "u1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestScheduleDelete(t *testing.T) {
	repo := &mockScheduleRepo{}
	svc := newScheduleService(repo)

	require.NoError(t, svc.Delete(context.Background(), "u1"))
	assert.True(t, repo.deleted)
	assert.Equal(t, "u1", repo.deletedFor)
}
