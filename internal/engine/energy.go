package engine

import (
	"math"

	"cogscheduler/backend/internal/model"
)

// chronotypePeak maps a chronotype to its circadian peak hour.
var chronotypePeak = map[string]float64{
	model.ChronotypeEarly:  10,
	model.ChronotypeNormal: 11,
	model.ChronotypeLate:   15,
}

func gaussian(x, mu, sigma float64) float64 {
	d := x - mu
	return math.Exp(-(d * d) / (2 * sigma * sigma))
}

// circadianBase is the unscaled alertness curve: a chronotype peak, a
// post-lunch dip for morning types, and the universal pre-dawn trough at
// 04:00. Values stay in [0.4, 1.0].
func circadianBase(hour float64, chronotype string) float64 {
	peak, ok := chronotypePeak[chronotype]
	if !ok {
		peak = chronotypePeak[model.ChronotypeNormal]
	}

	c := 0.72 + 0.28*gaussian(hour, peak, 2.4)
	c -= 0.35 * gaussian(hour, 4, 2.0)
	if chronotype != model.ChronotypeLate {
		// Afternoon trough for morning types, 14:00-15:00.
		c -= 0.18 * gaussian(hour, 14.5, 1.3)
	}
	return clamp(0.4, 1.0, c)
}

// EnergyModel is the pure E(t) function for one profile snapshot.
type EnergyModel struct {
	chronotype  string
	sleepFactor float64
	stressDecay float64
}

func NewEnergyModel(chronotype string, sleepHours float64, stressLevel int, p Params) EnergyModel {
	baseline := p.SleepBaseline
	if baseline <= 0 {
		baseline = DefaultParams().SleepBaseline
	}
	return EnergyModel{
		chronotype:  chronotype,
		sleepFactor: clamp(0.6, 1.1, sleepHours/baseline),
		stressDecay: 0.03 * float64(stressLevel-1),
	}
}

// At returns E(t) in [0,1] for minutes since midnight.
func (m EnergyModel) At(minute int) float64 {
	c := circadianBase(float64(minute)/60.0, m.chronotype)
	return clamp(0, 1, m.sleepFactor*c-m.stressDecay)
}
