package engine

import (
	"context"
	"math"
	"sort"
	"time"

	"cogscheduler/backend/internal/clock"
	"cogscheduler/backend/internal/model"
)

// RecoveryBreakTitle marks breaks the engine inserted on its own, as
// opposed to preferred breaks and commitments carried from the profile.
const RecoveryBreakTitle = "Recovery Break"

// PreferredBreakTitle labels user-requested break windows.
const PreferredBreakTitle = "Break"

// quantum is one indivisible slice of a task. All quanta of a task share
// its title and load and keep their relative order in the plan.
type quantum struct {
	taskIdx int
	title   string
	load    float64
	deep    bool
}

// placedBlock is the internal minute-based form of a plan entry.
type placedBlock struct {
	title    string
	startMin int
	endMin   int
	load     float64
	energy   float64
	fatigue  float64
	isBreak  bool
	forced   bool
	expl     string
	taskIdx  int
	quanta   int
}

func (b placedBlock) toModel() model.Block {
	return model.Block{
		TaskTitle:      b.title,
		StartTime:      clock.FormatHHMM(b.startMin),
		EndTime:        clock.FormatHHMM(b.endMin),
		CognitiveLoad:  round2(b.load),
		EnergyAtStart:  round2(b.energy),
		FatigueAtStart: round2(b.fatigue),
		IsBreak:        b.isBreak,
		Explanation:    b.expl,
	}
}

// placeStats feeds the warnings and gamification layers.
type placeStats struct {
	truncated     bool
	deadlineHit   bool
	deepMinutes   int
	forcedBreaks  int
	breakBlocks   int
	workBlocks    int
	maxConsecDeep int
	anyDeep       bool
}

// orderTasks sorts by cognitive load, then difficulty, both descending;
// the sort is stable so input order breaks remaining ties. Heavy work is
// front-loaded toward the high-energy morning.
func orderTasks(tasks []model.Task) []model.Task {
	out := make([]model.Task, len(tasks))
	copy(out, tasks)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CognitiveLoad != out[j].CognitiveLoad {
			return out[i].CognitiveLoad > out[j].CognitiveLoad
		}
		return out[i].Difficulty > out[j].Difficulty
	})
	return out
}

// splitQuanta rounds every task up to a whole number of quanta. Each
// quantum is exactly QuantumMin long; light quanta may be merged back
// together at emission, never deep ones.
func splitQuanta(tasks []model.Task, p Params) []quantum {
	var out []quantum
	for idx, t := range tasks {
		n := (t.DurationMinutes + p.QuantumMin - 1) / p.QuantumMin
		deep := t.CognitiveLoad >= p.DeepWorkLoadThreshold
		for i := 0; i < n; i++ {
			out = append(out, quantum{taskIdx: idx, title: t.Title, load: t.CognitiveLoad, deep: deep})
		}
	}
	return out
}

type planBuilder struct {
	params   Params
	energy   EnergyModel
	fat      *FatigueState
	avail    Availability
	blocks   []placedBlock
	stats    placeStats
	fixedIdx int
	freeIdx  int
	cursor   int

	consecDeepRun int
	lastWasBreak  bool
}

// place runs the cursor over the free intervals, interleaving fixed
// events, forced breaks, and work quanta. Cancellation aborts with no
// partial result; hitting the soft deadline keeps the plan built so far.
func place(ctx context.Context, deadline time.Time, avail Availability, quanta []quantum, em EnergyModel, fat *FatigueState, p Params) ([]placedBlock, placeStats, error) {
	b := &planBuilder{params: p, energy: em, fat: fat, avail: avail}
	b.cursor = avail.Free[0].Start
	b.emitFixedBefore(b.cursor)

	for _, q := range quanta {
		if err := ctx.Err(); err != nil {
			return nil, placeStats{}, ErrCancelled
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			b.stats.deadlineHit = true
			break
		}

		if !b.fitQuantum() {
			b.stats.truncated = true
			break
		}

		deepMin := 0
		if q.deep {
			deepMin = p.QuantumMin
		}
		if b.fat.NeedsBreakBefore(deepMin) {
			b.insertForcedBreak()
			if !b.fitQuantum() {
				b.stats.truncated = true
				break
			}
		}

		b.emitWork(q)
	}

	b.emitFixedBefore(clock.MinutesPerDay)
	return b.blocks, b.stats, nil
}

// fitQuantum advances the cursor until a whole quantum fits in the
// current free interval, jumping intervals as needed. Returns false when
// the window is exhausted.
func (b *planBuilder) fitQuantum() bool {
	for b.cursor+b.params.QuantumMin > b.avail.Free[b.freeIdx].End {
		if !b.advanceInterval() {
			return false
		}
	}
	return true
}

func (b *planBuilder) advanceInterval() bool {
	if b.freeIdx+1 >= len(b.avail.Free) {
		return false
	}
	b.freeIdx++
	b.cursor = b.avail.Free[b.freeIdx].Start
	b.emitFixedBefore(b.cursor)
	return true
}

// emitFixedBefore flushes commitments and preferred breaks that start
// before limit. Both are break blocks for the accumulator: consecutive
// deep work resets and recovery applies.
func (b *planBuilder) emitFixedBefore(limit int) {
	for b.fixedIdx < len(b.avail.Fixed) && b.avail.Fixed[b.fixedIdx].Start < limit {
		f := b.avail.Fixed[b.fixedIdx]
		b.fixedIdx++

		title := f.Label
		expl := "fixed commitment — kept exactly as planned"
		if f.kind == fixedPreferredBreak {
			if title == "" {
				title = PreferredBreakTitle
			}
			expl = "preferred break honored"
		} else if title == "" {
			title = "Commitment"
		}

		b.blocks = append(b.blocks, placedBlock{
			title:    title,
			startMin: f.Start,
			endMin:   f.End,
			energy:   b.energy.At(f.Start),
			fatigue:  b.fat.Value(),
			isBreak:  true,
			expl:     expl,
			taskIdx:  -1,
		})
		b.fat.AddBreak(f.Duration())
		b.stats.breakBlocks++
		b.consecDeepRun = 0
		b.lastWasBreak = true
	}
}

func (b *planBuilder) insertForcedBreak() {
	dur := b.fat.BreakDuration()
	if b.cursor+dur > b.avail.Free[b.freeIdx].End {
		// No room before the interval boundary; the fixed event at the
		// boundary supplies the recovery instead.
		return
	}

	expl := "fatigue rising — short recovery break"
	if dur == b.params.LongBreakDuration {
		expl = "deep work saturated — long recovery break"
	}
	b.blocks = append(b.blocks, placedBlock{
		title:    RecoveryBreakTitle,
		startMin: b.cursor,
		endMin:   b.cursor + dur,
		energy:   b.energy.At(b.cursor),
		fatigue:  b.fat.Value(),
		isBreak:  true,
		forced:   true,
		expl:     expl,
		taskIdx:  -1,
	})
	b.cursor += dur
	b.fat.AddBreak(dur)
	b.stats.forcedBreaks++
	b.stats.breakBlocks++
	b.consecDeepRun = 0
	b.lastWasBreak = true
}

func (b *planBuilder) emitWork(q quantum) {
	p := b.params
	start := b.cursor
	e := b.energy.At(start)
	fv := b.fat.Value()

	// Back-to-back light quanta of one task coalesce into a single
	// block, capped at two quanta. Fatigue accounting stays
	// per-quantum either way.
	if !q.deep && len(b.blocks) > 0 {
		last := &b.blocks[len(b.blocks)-1]
		if !last.isBreak && last.taskIdx == q.taskIdx && last.endMin == start && last.quanta < 2 {
			last.endMin += p.QuantumMin
			last.quanta++
			b.cursor += p.QuantumMin
			b.fat.AddWork(p.QuantumMin, q.load)
			b.lastWasBreak = false
			return
		}
	}

	b.blocks = append(b.blocks, placedBlock{
		title:    q.title,
		startMin: start,
		endMin:   start + p.QuantumMin,
		load:     q.load,
		energy:   e,
		fatigue:  fv,
		expl:     explainWork(q, e, fv, b.lastWasBreak),
		taskIdx:  q.taskIdx,
		quanta:   1,
	})
	b.cursor += p.QuantumMin
	b.fat.AddWork(p.QuantumMin, q.load)
	b.stats.workBlocks++
	b.lastWasBreak = false

	if q.deep {
		b.stats.anyDeep = true
		b.stats.deepMinutes += p.QuantumMin
		b.consecDeepRun += p.QuantumMin
		if b.consecDeepRun > b.stats.maxConsecDeep {
			b.stats.maxConsecDeep = b.consecDeepRun
		}
	} else {
		b.consecDeepRun = 0
	}
}

func explainWork(q quantum, energy, fatigue float64, afterBreak bool) string {
	switch {
	case afterBreak && q.deep:
		return "scheduled after a break for recovery"
	case q.deep && energy >= 0.7 && fatigue <= 0.3:
		return "high energy, low fatigue — ideal for deep focus"
	case q.deep:
		return "demanding work placed at the best remaining energy"
	case energy < 0.55:
		return "lighter task placed during energy dip"
	default:
		return "steady focus slot — energy managed by breaks"
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
