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

func newGroupMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestGroupRepositoryCreateEnrollsOwner(t *testing.T) {
	db, mock, cleanup := newGroupMock(t)
	defer cleanup()
	repo := NewGroupRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO groups").
		WithArgs(sqlmock.AnyArg(), "Algorithms crew", "", "CS 449", "owner-1", 8, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO group_members").
		WithArgs(sqlmock.AnyArg(), "owner-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.Create(context.Background(), &models.Group{
		Name:       "Algorithms crew",
		Course:     "CS 449",
		OwnerID:    "owner-1",
		MaxMembers: 8,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupRepositoryMembership(t *testing.T) {
	db, mock, cleanup := newGroupMock(t)
	defer cleanup()
	repo := NewGroupRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM group_members WHERE group_id = $1 AND user_id = $2")).
		WithArgs("group-1", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	ok, err := repo.IsMember(context.Background(), "group-1", "user-1")
	require.NoError(t, err)
	assert.True(t, ok)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"group_id", "user_id", "joined_at"}).
		AddRow("group-1", "user-1", now).
		AddRow("group-1", "user-2", now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT group_id, user_id, joined_at FROM group_members WHERE group_id = $1 ORDER BY joined_at ASC")).
		WithArgs("group-1").
		WillReturnRows(rows)

	members, err := repo.ListMembers(context.Background(), "group-1")
	require.NoError(t, err)
	assert.Len(t, members, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}
