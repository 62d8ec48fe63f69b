package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cogscheduler/backend/internal/model"
)

// FeedbackRepository stores the per-user TLX log and the fatigue weights
// it tunes. The two are only ever written together, so the write path is
// a single transaction.
type FeedbackRepository struct {
	db *sql.DB
}

func NewFeedbackRepository(db *sql.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// RecalibrateFunc decides the new weights given the total entry count,
// the most recent entries (oldest first), and the current weights. It
// returns the weights to store and whether they changed.
type RecalibrateFunc func(total int, recent []model.TLXEntry, w model.FatigueWeights) (model.FatigueWeights, bool)

// Submit appends a TLX entry and recalibrates the user's weights in one
// transaction. defaults seed the weights row the first time. Returns the
// total entry count and the weights now in effect.
func (r *FeedbackRepository) Submit(
	ctx context.Context,
	entry *model.TLXEntry,
	defaults model.FatigueWeights,
	recalibrate RecalibrateFunc,
) (int, model.FatigueWeights, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, model.FatigueWeights{}, fmt.Errorf("begin feedback tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO tlx_entries (user_id, block_index, mental_demand, effort, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		entry.UserID,
		entry.BlockIndex,
		entry.MentalDemand,
		entry.Effort,
		entry.CreatedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return 0, model.FatigueWeights{}, fmt.Errorf("append tlx entry: %w", err)
	}

	var total int
	if err := tx.QueryRowContext(
		ctx,
		`SELECT COUNT(1) FROM tlx_entries WHERE user_id = ?`,
		entry.UserID,
	).Scan(&total); err != nil {
		return 0, model.FatigueWeights{}, fmt.Errorf("count tlx entries: %w", err)
	}

	recent, err := recentEntriesTx(ctx, tx, entry.UserID, 6)
	if err != nil {
		return 0, model.FatigueWeights{}, err
	}

	weights, err := weightsTx(ctx, tx, entry.UserID, defaults)
	if err != nil {
		return 0, model.FatigueWeights{}, err
	}

	updated, changed := recalibrate(total, recent, weights)
	if changed {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO user_weights (user_id, fatigue_consec_weight, fatigue_total_weight, fatigue_force_break, updated_at)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(user_id) DO UPDATE SET
			   fatigue_consec_weight = excluded.fatigue_consec_weight,
			   fatigue_total_weight = excluded.fatigue_total_weight,
			   fatigue_force_break = excluded.fatigue_force_break,
			   updated_at = excluded.updated_at`,
			entry.UserID,
			updated.FatigueConsecWeight,
			updated.FatigueTotalWeight,
			updated.FatigueForceBreak,
			time.Now().UTC().Format(time.RFC3339Nano),
		); err != nil {
			return 0, model.FatigueWeights{}, fmt.Errorf("save user weights: %w", err)
		}
		weights = updated
	}

	if err := tx.Commit(); err != nil {
		return 0, model.FatigueWeights{}, fmt.Errorf("commit feedback tx: %w", err)
	}
	return total, weights, nil
}

// Weights returns the user's stored fatigue weights, or ErrNotFound when
// the user has never been recalibrated.
func (r *FeedbackRepository) Weights(ctx context.Context, userID string) (model.FatigueWeights, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT fatigue_consec_weight, fatigue_total_weight, fatigue_force_break
		 FROM user_weights
		 WHERE user_id = ?`,
		userID,
	)

	var w model.FatigueWeights
	if err := row.Scan(&w.FatigueConsecWeight, &w.FatigueTotalWeight, &w.FatigueForceBreak); err != nil {
		if err == sql.ErrNoRows {
			return model.FatigueWeights{}, ErrNotFound
		}
		return model.FatigueWeights{}, fmt.Errorf("get user weights: %w", err)
	}
	return w, nil
}

func recentEntriesTx(ctx context.Context, tx *sql.Tx, userID string, limit int) ([]model.TLXEntry, error) {
	rows, err := tx.QueryContext(
		ctx,
		`SELECT id, user_id, block_index, mental_demand, effort, created_at
		 FROM tlx_entries
		 WHERE user_id = ?
		 ORDER BY id DESC
		 LIMIT ?`,
		userID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent tlx entries: %w", err)
	}
	defer rows.Close()

	var entries []model.TLXEntry
	for rows.Next() {
		var e model.TLXEntry
		var createdAt string
		if err := rows.Scan(&e.ID, &e.UserID, &e.BlockIndex, &e.MentalDemand, &e.Effort, &createdAt); err != nil {
			return nil, fmt.Errorf("scan tlx entry: %w", err)
		}
		parsed, err := parseTime(createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse tlx created_at: %w", err)
		}
		e.CreatedAt = parsed
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("recent tlx entries: %w", err)
	}

	// Oldest first for the recalibration window.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

func weightsTx(ctx context.Context, tx *sql.Tx, userID string, defaults model.FatigueWeights) (model.FatigueWeights, error) {
	row := tx.QueryRowContext(
		ctx,
		`SELECT fatigue_consec_weight, fatigue_total_weight, fatigue_force_break
		 FROM user_weights
		 WHERE user_id = ?`,
		userID,
	)

	var w model.FatigueWeights
	if err := row.Scan(&w.FatigueConsecWeight, &w.FatigueTotalWeight, &w.FatigueForceBreak); err != nil {
		if err == sql.ErrNoRows {
			return defaults, nil
		}
		return model.FatigueWeights{}, fmt.Errorf("get user weights: %w", err)
	}
	return w, nil
}
