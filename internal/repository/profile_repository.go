package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"cogscheduler/backend/internal/model"
)

type ProfileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) Get(ctx context.Context, userID string) (*model.Profile, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT name, role, chronotype, wake_time, sleep_time, sleep_hours, stress_level,
		        daily_commitments, break_preferences, lectures_today, meetings_today
		 FROM profiles
		 WHERE user_id = ?`,
		userID,
	)

	var p model.Profile
	var commitmentsJSON, breaksJSON string
	err := row.Scan(
		&p.Name, &p.Role, &p.Chronotype, &p.WakeTime, &p.SleepTime, &p.SleepHours,
		&p.StressLevel, &commitmentsJSON, &breaksJSON, &p.LecturesToday, &p.MeetingsToday,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}

	if err := json.Unmarshal([]byte(commitmentsJSON), &p.DailyCommitments); err != nil {
		return nil, fmt.Errorf("parse profile daily_commitments: %w", err)
	}
	if err := json.Unmarshal([]byte(breaksJSON), &p.BreakPreferences); err != nil {
		return nil, fmt.Errorf("parse profile break_preferences: %w", err)
	}
	if p.DailyCommitments == nil {
		p.DailyCommitments = []string{}
	}
	if p.BreakPreferences == nil {
		p.BreakPreferences = []string{}
	}
	return &p, nil
}

func (r *ProfileRepository) Upsert(ctx context.Context, userID string, p *model.Profile) error {
	commitmentsJSON, err := json.Marshal(p.DailyCommitments)
	if err != nil {
		return fmt.Errorf("marshal daily_commitments: %w", err)
	}
	breaksJSON, err := json.Marshal(p.BreakPreferences)
	if err != nil {
		return fmt.Errorf("marshal break_preferences: %w", err)
	}

	_, err = r.db.ExecContext(
		ctx,
		`INSERT INTO profiles (user_id, name, role, chronotype, wake_time, sleep_time, sleep_hours,
		                       stress_level, daily_commitments, break_preferences,
		                       lectures_today, meetings_today, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		   name = excluded.name,
		   role = excluded.role,
		   chronotype = excluded.chronotype,
		   wake_time = excluded.wake_time,
		   sleep_time = excluded.sleep_time,
		   sleep_hours = excluded.sleep_hours,
		   stress_level = excluded.stress_level,
		   daily_commitments = excluded.daily_commitments,
		   break_preferences = excluded.break_preferences,
		   lectures_today = excluded.lectures_today,
		   meetings_today = excluded.meetings_today,
		   updated_at = excluded.updated_at`,
		userID, p.Name, p.Role, p.Chronotype, p.WakeTime, p.SleepTime, p.SleepHours,
		p.StressLevel, string(commitmentsJSON), string(breaksJSON),
		p.LecturesToday, p.MeetingsToday,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}
