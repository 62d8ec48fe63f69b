package engine

import "cogscheduler/backend/internal/model"

// Recalibration constants. A user who consistently reports high demand
// and effort has more sensitive fatigue: the accumulation weights rise
// and the force-break threshold falls so breaks trigger earlier.
const (
	recalAlpha    = 0.05
	recalBeta     = 0.05
	recalBaseline = 0.5
	recalWindow   = 6
	recalEvery    = 3
)

// Recalibrate nudges the three fatigue weights from the user's TLX log.
// It only acts when the entry count reaches a multiple of three, using
// the mean of the last six entries (or all, whichever is smaller). The
// second return reports whether the weights changed.
func Recalibrate(entries []model.TLXEntry, w model.FatigueWeights) (model.FatigueWeights, bool) {
	n := len(entries)
	if n == 0 || n%recalEvery != 0 {
		return w, false
	}

	window := entries
	if n > recalWindow {
		window = entries[n-recalWindow:]
	}

	var mdSum, efSum float64
	for _, e := range window {
		mdSum += float64(e.MentalDemand)
		efSum += float64(e.Effort)
	}
	k := float64(len(window))
	md := (mdSum/k - 1) / 6 // 1-7 scale mapped to [0,1]
	ef := (efSum/k - 1) / 6

	out := model.FatigueWeights{
		FatigueConsecWeight: clamp(0.05, 0.60, w.FatigueConsecWeight+recalAlpha*(md-recalBaseline)),
		FatigueTotalWeight:  clamp(0.05, 0.60, w.FatigueTotalWeight+recalAlpha*(ef-recalBaseline)),
		FatigueForceBreak:   clamp(0.40, 0.90, w.FatigueForceBreak-recalBeta*((md+ef)/2-recalBaseline)),
	}
	return out, true
}
