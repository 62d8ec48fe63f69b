package engine

import (
	"fmt"
	"strings"

	"cogscheduler/backend/internal/model"
)

// categoryWeights scales difficulty into cognitive load. Categories are
// free-form strings, so anything unlisted falls back to 1.0.
var categoryWeights = map[string]float64{
	"math":        1.2,
	"programming": 1.2,
	"science":     1.1,
	"research":    1.1,
	"writing":     1.0,
	"general":     1.0,
	"reading":     0.85,
	"review":      0.8,
}

func categoryWeight(category string) float64 {
	if w, ok := categoryWeights[strings.ToLower(strings.TrimSpace(category))]; ok {
		return w
	}
	return 1.0
}

// EstimateLoad returns the task's cognitive load. A supplied load wins
// (clamped to [0,10]); otherwise it is derived from difficulty, the
// category weight, and a small penalty for lectures already attended.
func EstimateLoad(t model.Task, lecturesToday int, p Params) float64 {
	if t.CognitiveLoad > 0 {
		return clamp(0, 10, t.CognitiveLoad)
	}
	raw := t.Difficulty*categoryWeight(t.Category) + float64(lecturesToday)*p.LecturePenaltyPer
	return clamp(0, 10, raw)
}

// ValidateTask rejects durations below one quantum and out-of-range
// difficulty or load, naming the offending field.
func ValidateTask(t model.Task, p Params) error {
	if t.DurationMinutes < p.QuantumMin {
		return fmt.Errorf("%w: %q duration_minutes %d below quantum %d",
			ErrMalformedTask, t.Title, t.DurationMinutes, p.QuantumMin)
	}
	if t.Difficulty < 1 || t.Difficulty > 10 {
		return fmt.Errorf("%w: %q difficulty %.1f outside [1,10]", ErrMalformedTask, t.Title, t.Difficulty)
	}
	if t.CognitiveLoad < 0 || t.CognitiveLoad > 10 {
		return fmt.Errorf("%w: %q cognitive_load %.1f outside [0,10]", ErrMalformedTask, t.Title, t.CognitiveLoad)
	}
	return nil
}
