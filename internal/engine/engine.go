// Package engine is the cognitive scheduling core: a pure function from
// (profile, params, tasks) to (plan, curves, warnings, gamification).
// It performs no I/O; persistence and parsing live with the callers.
package engine

import (
	"context"
	"time"

	"cogscheduler/backend/internal/model"
)

// DefaultSoftDeadline bounds one scheduling call. Exceeding it is not an
// error: the best plan so far is returned with a deadline warning.
const DefaultSoftDeadline = 2 * time.Second

// Request is one scheduling call. Params must already be the merged
// snapshot (process defaults + per-user weights); Now and SoftDeadline
// default to the obvious values when zero.
type Request struct {
	Tasks         []model.Task
	Profile       model.Profile
	AvailableFrom string
	AvailableTo   string
	Params        Params
	Prior         *PriorPlan
	Now           time.Time
	SoftDeadline  time.Duration
}

// Result is the full plan payload.
type Result struct {
	ParsedTasks  []model.Task       `json:"parsed_tasks"`
	Blocks       []model.Block      `json:"schedule"`
	EnergyCurve  []model.CurvePoint `json:"energy_curve"`
	FatigueCurve []model.CurvePoint `json:"fatigue_curve"`
	Warnings     []string           `json:"warnings"`
	Gamification model.Gamification `json:"gamification"`
	Truncated    bool               `json:"-"`
}

// Run builds the plan. Cancellation via ctx aborts with ErrCancelled and
// no partial result; every other failure mode is a sentinel from
// errors.go wrapped with the offending field.
func Run(ctx context.Context, req Request) (*Result, error) {
	p := req.Params
	if p.QuantumMin <= 0 {
		p = DefaultParams()
	}
	now := req.Now
	if now.IsZero() {
		now = time.Now()
	}
	softDeadline := req.SoftDeadline
	if softDeadline <= 0 {
		softDeadline = DefaultSoftDeadline
	}
	deadline := time.Now().Add(softDeadline)

	avail, err := BuildAvailability(req.AvailableFrom, req.AvailableTo, req.Profile.DailyCommitments, req.Profile.BreakPreferences)
	if err != nil {
		return nil, err
	}

	tasks := make([]model.Task, len(req.Tasks))
	copy(tasks, req.Tasks)
	for i := range tasks {
		if err := ValidateTask(tasks[i], p); err != nil {
			return nil, err
		}
		tasks[i].CognitiveLoad = EstimateLoad(tasks[i], req.Profile.LecturesToday, p)
	}

	em := NewEnergyModel(req.Profile.Chronotype, req.Profile.SleepHours, req.Profile.StressLevel, p)

	if len(tasks) == 0 {
		energyCurve, fatigueCurve := buildCurves(avail, nil, em, p)
		return &Result{
			ParsedTasks:  []model.Task{},
			Blocks:       []model.Block{},
			EnergyCurve:  energyCurve,
			FatigueCurve: fatigueCurve,
			Warnings:     []string{},
			Gamification: model.Gamification{Level: model.LevelStudent, Badges: []string{}},
		}, nil
	}

	ordered := orderTasks(tasks)
	quanta := splitQuanta(ordered, p)
	fat := NewFatigueState(p)

	placed, stats, err := place(ctx, deadline, avail, quanta, em, fat, p)
	if err != nil {
		return nil, err
	}

	energyCurve, fatigueCurve := buildCurves(avail, placed, em, p)

	blocks := make([]model.Block, 0, len(placed))
	for _, b := range placed {
		blocks = append(blocks, b.toModel())
	}

	return &Result{
		ParsedTasks:  tasks,
		Blocks:       blocks,
		EnergyCurve:  energyCurve,
		FatigueCurve: fatigueCurve,
		Warnings:     buildWarnings(req.Profile, tasks, stats, p),
		Gamification: computeGamification(placed, stats, req.Profile.StressLevel, req.Prior, now, p),
		Truncated:    stats.truncated || stats.deadlineHit,
	}, nil
}
