package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/studysync/studysync-api/internal/models"
)

// ScheduleRepository persists weekly schedules as JSON payload rows, one per
// user. A submission replaces the previous payload wholesale.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository constructs the repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// Upsert stores the schedule for its owning user, replacing any prior row.
func (r *ScheduleRepository) Upsert(ctx context.Context, schedule models.UserSchedule, source string) error {
	payload, err := json.Marshal(schedule)
	if err != nil {
		return fmt.Errorf("marshal schedule payload: %w", err)
	}

	record := models.UserScheduleRecord{
		ID:        uuid.NewString(),
		UserID:    schedule.UserID,
		Source:    source,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	const query = `INSERT INTO user_schedules (id, user_id, source, payload, created_at, updated_at)
		VALUES (:id, :user_id, :source, :payload, :created_at, :updated_at)
		ON CONFLICT (user_id) DO UPDATE
		SET source = EXCLUDED.source,
		    payload = EXCLUDED.payload,
		    updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("upsert user schedule: %w", err)
	}
	return nil
}

// GetByUser returns the stored schedule for one user.
func (r *ScheduleRepository) GetByUser(ctx context.Context, userID string) (*models.UserScheduleRecord, error) {
	const query = `SELECT id, user_id, source, payload, created_at, updated_at FROM user_schedules WHERE user_id = $1 LIMIT 1`
	var record models.UserScheduleRecord
	if err := r.db.GetContext(ctx, &record, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get user schedule: %w", err)
	}
	return &record, nil
}

// ListByUsers returns schedules for the given user set. Users without a
// stored schedule simply have no row; callers treat them as fully free.
func (r *ScheduleRepository) ListByUsers(ctx context.Context, userIDs []string) ([]models.UserScheduleRecord, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT id, user_id, source, payload, created_at, updated_at FROM user_schedules WHERE user_id IN (?)`, userIDs)
	if err != nil {
		return nil, fmt.Errorf("build schedule query: %w", err)
	}
	query = r.db.Rebind(query)

	var records []models.UserScheduleRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list user schedules: %w", err)
	}
	return records, nil
}

// Delete removes the stored schedule for a user.
func (r *ScheduleRepository) Delete(ctx context.Context, userID string) error {
	const query = `DELETE FROM user_schedules WHERE user_id = $1`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("delete user schedule: %w", err)
	}
	return nil
}
