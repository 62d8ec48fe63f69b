package service

import (
	"context"
	"time"

	"cogscheduler/backend/internal/engine"
	apperrors "cogscheduler/backend/internal/errors"
	"cogscheduler/backend/internal/model"
)

// FeedbackResult is the tlx-feedback response body.
type FeedbackResult struct {
	Status         string               `json:"status"`
	TLXEntries     int                  `json:"tlx_entries"`
	UpdatedWeights model.FatigueWeights `json:"updated_weights"`
}

// SubmitFeedback appends one TLX entry and recalibrates the user's
// fatigue weights when the entry count reaches a multiple of three. The
// append and the weight update share one transaction.
func (s *ScheduleService) SubmitFeedback(ctx context.Context, userID string, blockIndex, mentalDemand, effort int) (*FeedbackResult, *apperrors.APIError) {
	if blockIndex < 0 {
		return nil, apperrors.BadRequest("invalid_feedback", "block_index must be non-negative")
	}
	if mentalDemand < 1 || mentalDemand > 7 {
		return nil, apperrors.BadRequest("invalid_feedback", "mental_demand must be between 1 and 7")
	}
	if effort < 1 || effort > 7 {
		return nil, apperrors.BadRequest("invalid_feedback", "effort must be between 1 and 7")
	}

	s.mu.RLock()
	defaults := s.base.Weights()
	s.mu.RUnlock()

	entry := model.TLXEntry{
		UserID:       userID,
		BlockIndex:   blockIndex,
		MentalDemand: mentalDemand,
		Effort:       effort,
		CreatedAt:    time.Now().UTC(),
	}

	total, weights, err := s.feedbackRepo.Submit(ctx, &entry, defaults,
		func(total int, recent []model.TLXEntry, w model.FatigueWeights) (model.FatigueWeights, bool) {
			if total == 0 || total%3 != 0 {
				return w, false
			}
			return engine.Recalibrate(recent, w)
		})
	if err != nil {
		s.log.Error("submit feedback failed", "user_id", userID, "error", err)
		return nil, apperrors.Internal("failed to record feedback")
	}

	s.log.Info("tlx feedback recorded", "user_id", userID, "entries", total)
	return &FeedbackResult{
		Status:         "ok",
		TLXEntries:     total,
		UpdatedWeights: weights,
	}, nil
}
