package engine

import (
	"errors"
	"math"
	"testing"

	"cogscheduler/backend/internal/model"
)

func TestEstimateLoadSuppliedWins(t *testing.T) {
	p := DefaultParams()
	task := model.Task{Title: "x", Category: "math", Difficulty: 9, CognitiveLoad: 4.2}
	if got := EstimateLoad(task, 3, p); got != 4.2 {
		t.Errorf("supplied load overridden: got %.2f", got)
	}
	task.CognitiveLoad = 14
	if got := EstimateLoad(task, 0, p); got != 10 {
		t.Errorf("supplied load not clamped: got %.2f", got)
	}
}

func TestEstimateLoadDerived(t *testing.T) {
	p := DefaultParams()
	task := model.Task{Title: "x", Category: "math", Difficulty: 5}
	want := 5*1.2 + 2*0.05
	if got := EstimateLoad(task, 2, p); math.Abs(got-want) > 1e-9 {
		t.Errorf("derived load = %.3f, want %.3f", got, want)
	}

	// Unknown categories use the neutral weight.
	task.Category = "underwater basket weaving"
	if got := EstimateLoad(task, 0, p); got != 5 {
		t.Errorf("unknown category load = %.3f, want 5", got)
	}
}

func TestEstimateLoadCategorySpread(t *testing.T) {
	p := DefaultParams()
	mk := func(cat string) model.Task {
		return model.Task{Category: cat, Difficulty: 6}
	}
	if EstimateLoad(mk("programming"), 0, p) <= EstimateLoad(mk("review"), 0, p) {
		t.Error("programming should weigh heavier than review at equal difficulty")
	}
}

func TestValidateTask(t *testing.T) {
	p := DefaultParams()
	ok := model.Task{Title: "fine", Category: "general", Difficulty: 5, DurationMinutes: 50}
	if err := ValidateTask(ok, p); err != nil {
		t.Errorf("valid task rejected: %v", err)
	}

	for _, bad := range []model.Task{
		{Title: "short", Difficulty: 5, DurationMinutes: 10},
		{Title: "zero diff", Difficulty: 0, DurationMinutes: 50},
		{Title: "diff high", Difficulty: 11, DurationMinutes: 50},
		{Title: "load", Difficulty: 5, DurationMinutes: 50, CognitiveLoad: 12},
	} {
		if err := ValidateTask(bad, p); !errors.Is(err, ErrMalformedTask) {
			t.Errorf("%s: got %v, want ErrMalformedTask", bad.Title, err)
		}
	}
}
