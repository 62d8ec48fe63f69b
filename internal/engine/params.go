package engine

import (
	"fmt"
	"math"

	"cogscheduler/backend/internal/model"
)

// Params holds every tunable coefficient of the scheduling engine. It is
// a value type: each scheduling call receives its own merged snapshot
// (process defaults + per-user recalibrated weights), so the engine never
// reads shared mutable state.
type Params struct {
	SleepBaseline         float64
	FatigueConsecWeight   float64
	FatigueTotalWeight    float64
	ConsecThresholdMin    int
	TotalDeepThresholdMin int
	ShortBreakTriggerMin  int
	ShortBreakDuration    int
	LongBreakDuration     int
	FatigueForceBreak     float64
	StressCapThreshold    int
	MaxLoadUnderStress    float64
	LecturePenaltyPer     float64
	BreakRecoveryFactor   float64
	QuantumMin            int
	DeepWorkLoadThreshold float64
}

func DefaultParams() Params {
	return Params{
		SleepBaseline:         7.5,
		FatigueConsecWeight:   0.4,
		FatigueTotalWeight:    0.3,
		ConsecThresholdMin:    90,
		TotalDeepThresholdMin: 180,
		ShortBreakTriggerMin:  90,
		ShortBreakDuration:    10,
		LongBreakDuration:     15,
		FatigueForceBreak:     0.75,
		StressCapThreshold:    4,
		MaxLoadUnderStress:    6.0,
		LecturePenaltyPer:     0.05,
		BreakRecoveryFactor:   0.4,
		QuantumMin:            25,
		DeepWorkLoadThreshold: 6.0,
	}
}

// Map returns the snake_case view served by GET /config.
func (p Params) Map() map[string]any {
	return map[string]any{
		"sleep_baseline":           p.SleepBaseline,
		"fatigue_consec_weight":    p.FatigueConsecWeight,
		"fatigue_total_weight":     p.FatigueTotalWeight,
		"consec_threshold_min":     p.ConsecThresholdMin,
		"total_deep_threshold_min": p.TotalDeepThresholdMin,
		"short_break_trigger_min":  p.ShortBreakTriggerMin,
		"short_break_duration":     p.ShortBreakDuration,
		"long_break_duration":      p.LongBreakDuration,
		"fatigue_force_break":      p.FatigueForceBreak,
		"stress_cap_threshold":     p.StressCapThreshold,
		"max_load_under_stress":    p.MaxLoadUnderStress,
		"lecture_penalty_per":      p.LecturePenaltyPer,
		"break_recovery_factor":    p.BreakRecoveryFactor,
		"quantum_min":              p.QuantumMin,
		"deep_work_load_threshold": p.DeepWorkLoadThreshold,
	}
}

// Apply updates a subset of known keys. Values arrive as JSON numbers
// (float64); integer fields are truncated. The first unknown key aborts
// the whole update with ErrUnknownConfigKey, leaving p unchanged from
// the caller's perspective only if the caller applies to a copy.
func (p *Params) Apply(updates map[string]any) error {
	for key, raw := range updates {
		v, ok := toFloat(raw)
		if !ok {
			return fmt.Errorf("%w: %s requires a numeric value", ErrUnknownConfigKey, key)
		}
		switch key {
		case "sleep_baseline":
			p.SleepBaseline = v
		case "fatigue_consec_weight":
			p.FatigueConsecWeight = v
		case "fatigue_total_weight":
			p.FatigueTotalWeight = v
		case "consec_threshold_min":
			p.ConsecThresholdMin = int(v)
		case "total_deep_threshold_min":
			p.TotalDeepThresholdMin = int(v)
		case "short_break_trigger_min":
			p.ShortBreakTriggerMin = int(v)
		case "short_break_duration":
			p.ShortBreakDuration = int(v)
		case "long_break_duration":
			p.LongBreakDuration = int(v)
		case "fatigue_force_break":
			p.FatigueForceBreak = v
		case "stress_cap_threshold":
			p.StressCapThreshold = int(v)
		case "max_load_under_stress":
			p.MaxLoadUnderStress = v
		case "lecture_penalty_per":
			p.LecturePenaltyPer = v
		case "break_recovery_factor":
			p.BreakRecoveryFactor = v
		case "quantum_min":
			p.QuantumMin = int(v)
		case "deep_work_load_threshold":
			p.DeepWorkLoadThreshold = v
		default:
			return fmt.Errorf("%w: %s", ErrUnknownConfigKey, key)
		}
	}
	return nil
}

// WithWeights overlays the per-user recalibrated fatigue weights.
func (p Params) WithWeights(w model.FatigueWeights) Params {
	p.FatigueConsecWeight = w.FatigueConsecWeight
	p.FatigueTotalWeight = w.FatigueTotalWeight
	p.FatigueForceBreak = w.FatigueForceBreak
	return p
}

// Weights extracts the three TLX-tunable coefficients.
func (p Params) Weights() model.FatigueWeights {
	return model.FatigueWeights{
		FatigueConsecWeight: p.FatigueConsecWeight,
		FatigueTotalWeight:  p.FatigueTotalWeight,
		FatigueForceBreak:   p.FatigueForceBreak,
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func clamp(lo, hi, v float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
