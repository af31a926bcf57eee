package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studysync/studysync-api/internal/models"
)

func newScheduleMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestScheduleRepositoryUpsertAndGet(t *testing.T) {
	db, mock, cleanup := newScheduleMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectExec("INSERT INTO user_schedules").
		WithArgs(sqlmock.AnyArg(), "user-1", models.ScheduleSourceManual, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Upsert(context.Background(), models.UserSchedule{
		UserID: "user-1",
		BusyBlocks: []models.WeeklyBusyBlock{
			{DayOfWeek: 1, Start: 9 * 60, End: 10 * 60, Label: "CS 101"},
		},
	}, models.ScheduleSourceManual)
	require.NoError(t, err)

	now := time.Now()
	payload := `{"user_id":"user-1","busy_blocks":[{"day_of_week":1,"start":540,"end":600,"label":"CS 101"}]}`
	rows := sqlmock.NewRows([]string{"id", "user_id", "source", "payload", "created_at", "updated_at"}).
		AddRow("sched-1", "user-1", models.ScheduleSourceManual, payload, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, source, payload, created_at, updated_at FROM user_schedules WHERE user_id = $1")).
		WithArgs("user-1").
		WillReturnRows(rows)

	record, err := repo.GetByUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "sched-1", record.ID)
	assert.Equal(t, models.ScheduleSourceManual, record.Source)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryListByUsersEmptySet(t *testing.T) {
	db, _, cleanup := newScheduleMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	records, err := repo.ListByUsers(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, records)
}
