package engine

import "math"

// FatigueState is the stateful accumulator scanned over the plan as it
// is built. Placement decisions and the emitted fatigue_at_start values
// both read from it.
type FatigueState struct {
	params        Params
	consecDeepMin int
	totalDeepMin  int
	value         float64
}

func NewFatigueState(p Params) *FatigueState {
	return &FatigueState{params: p}
}

func (f *FatigueState) Value() float64     { return f.value }
func (f *FatigueState) ConsecDeepMin() int { return f.consecDeepMin }
func (f *FatigueState) TotalDeepMin() int  { return f.totalDeepMin }

func (f *FatigueState) recompute() {
	p := f.params
	raw := p.FatigueConsecWeight*(float64(f.consecDeepMin)/float64(p.ConsecThresholdMin)) +
		p.FatigueTotalWeight*(float64(f.totalDeepMin)/float64(p.TotalDeepThresholdMin))
	f.value = clamp(0, 1, raw)
}

// AddWork records a placed work quantum. A quantum below the deep-work
// threshold resets the consecutive counter but still recomputes F.
func (f *FatigueState) AddWork(durationMin int, load float64) {
	if load >= f.params.DeepWorkLoadThreshold {
		f.consecDeepMin += durationMin
		f.totalDeepMin += durationMin
	} else {
		f.consecDeepMin = 0
	}
	f.recompute()
}

// AddBreak records any appended break block (forced, preferred, or a
// fixed commitment) and applies proportional recovery.
func (f *FatigueState) AddBreak(durationMin int) {
	f.consecDeepMin = 0
	frac := math.Min(1, float64(durationMin)/float64(f.params.LongBreakDuration))
	f.value = math.Max(0, f.value*(1-f.params.BreakRecoveryFactor*frac))
}

// NeedsBreakBefore reports whether a break must be inserted before a
// quantum of nextDurationMin more deep minutes. The consecutive check is
// anticipatory: the break lands before the threshold would be exceeded,
// never after.
func (f *FatigueState) NeedsBreakBefore(nextDurationMin int) bool {
	if f.value >= f.params.FatigueForceBreak {
		return true
	}
	return f.consecDeepMin > 0 && f.consecDeepMin+nextDurationMin > f.params.ShortBreakTriggerMin
}

// BreakDuration picks the forced-break length: long once the day's deep
// work is saturated, short otherwise.
func (f *FatigueState) BreakDuration() int {
	if f.totalDeepMin >= f.params.TotalDeepThresholdMin {
		return f.params.LongBreakDuration
	}
	return f.params.ShortBreakDuration
}
