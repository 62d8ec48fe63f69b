package engine

import (
	"cogscheduler/backend/internal/clock"
	"cogscheduler/backend/internal/model"
)

// CurveSampleMin is the sampling cadence of the emitted energy and
// fatigue curves. It is deliberately not a config key: §6 of the API
// contract enumerates the tunable set exhaustively.
const CurveSampleMin = 15

// buildCurves samples E(t) and a replayed fatigue trace across exactly
// [windowStart, windowEnd], endpoints included.
func buildCurves(avail Availability, blocks []placedBlock, em EnergyModel, p Params) ([]model.CurvePoint, []model.CurvePoint) {
	var energy, fatigue []model.CurvePoint

	consec := 0
	total := 0
	for t := avail.WindowStart; t <= avail.WindowEnd; t += CurveSampleMin {
		if b, ok := blockAt(blocks, t); ok {
			switch {
			case b.isBreak:
				consec = 0
			case b.load >= p.DeepWorkLoadThreshold:
				consec += CurveSampleMin
				total += CurveSampleMin
			default:
				consec = 0
			}
		}
		f := clamp(0, 1,
			p.FatigueConsecWeight*(float64(consec)/float64(p.ConsecThresholdMin))+
				p.FatigueTotalWeight*(float64(total)/float64(p.TotalDeepThresholdMin)))

		ts := clock.FormatHHMM(t)
		energy = append(energy, model.CurvePoint{Time: ts, Value: round3(em.At(t))})
		fatigue = append(fatigue, model.CurvePoint{Time: ts, Value: round3(f)})
	}
	return energy, fatigue
}

func blockAt(blocks []placedBlock, t int) (placedBlock, bool) {
	for _, b := range blocks {
		if b.startMin <= t && t < b.endMin {
			return b, true
		}
	}
	return placedBlock{}, false
}

func round3(v float64) float64 {
	return float64(int(v*1000+0.5)) / 1000
}
