package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cogscheduler/backend/internal/model"
)

type ScheduleRepository struct {
	db *sql.DB
}

func NewScheduleRepository(db *sql.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

func (r *ScheduleRepository) Create(ctx context.Context, s *model.Schedule) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO schedules (id, user_id, schedule_data, created_at, calendar_synced)
		 VALUES (?, ?, ?, ?, ?)`,
		s.ID,
		s.UserID,
		string(s.Data),
		s.CreatedAt.UTC().Format(time.RFC3339Nano),
		s.CalendarSynced,
	)
	if err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	return nil
}

// Latest returns the most recently created schedule for the user.
func (r *ScheduleRepository) Latest(ctx context.Context, userID string) (*model.Schedule, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, user_id, schedule_data, created_at, calendar_synced
		 FROM schedules
		 WHERE user_id = ?
		 ORDER BY created_at DESC
		 LIMIT 1`,
		userID,
	)
	return scanSchedule(row)
}

func (r *ScheduleRepository) ListByUser(ctx context.Context, userID string, limit int) ([]model.Schedule, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, user_id, schedule_data, created_at, calendar_synced
		 FROM schedules
		 WHERE user_id = ?
		 ORDER BY created_at DESC
		 LIMIT ?`,
		userID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()

	schedules := make([]model.Schedule, 0, limit)
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return schedules, nil
}

func (r *ScheduleRepository) MarkCalendarSynced(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE schedules SET calendar_synced = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark schedule synced: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark schedule synced: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanSchedule(row scanner) (*model.Schedule, error) {
	var s model.Schedule
	var data string
	var createdAt string
	if err := row.Scan(&s.ID, &s.UserID, &data, &createdAt, &s.CalendarSynced); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan schedule: %w", err)
	}
	s.Data = []byte(data)

	parsedCreatedAt, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse schedule created_at: %w", err)
	}
	s.CreatedAt = parsedCreatedAt
	return &s, nil
}
