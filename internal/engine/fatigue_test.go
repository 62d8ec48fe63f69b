package engine

import (
	"math"
	"testing"
)

func TestFatigueAccumulation(t *testing.T) {
	p := DefaultParams()
	f := NewFatigueState(p)

	f.AddWork(25, 8.0)
	want := 0.4*(25.0/90.0) + 0.3*(25.0/180.0)
	if math.Abs(f.Value()-want) > 1e-9 {
		t.Errorf("F after one deep quantum = %.4f, want %.4f", f.Value(), want)
	}
	if f.ConsecDeepMin() != 25 || f.TotalDeepMin() != 25 {
		t.Errorf("counters = (%d, %d), want (25, 25)", f.ConsecDeepMin(), f.TotalDeepMin())
	}
}

func TestLightWorkResetsConsecutive(t *testing.T) {
	p := DefaultParams()
	f := NewFatigueState(p)
	f.AddWork(25, 8.0)
	f.AddWork(25, 3.0)
	if f.ConsecDeepMin() != 0 {
		t.Errorf("consec = %d after light quantum, want 0", f.ConsecDeepMin())
	}
	if f.TotalDeepMin() != 25 {
		t.Errorf("total = %d, want 25", f.TotalDeepMin())
	}
}

func TestBreakRecovery(t *testing.T) {
	p := DefaultParams()
	f := NewFatigueState(p)
	f.AddWork(75, 9.0)
	before := f.Value()

	f.AddBreak(15) // full long-break recovery: F scaled by 1-0.4
	want := before * 0.6
	if math.Abs(f.Value()-want) > 1e-9 {
		t.Errorf("F after long break = %.4f, want %.4f", f.Value(), want)
	}
	if f.ConsecDeepMin() != 0 {
		t.Errorf("break did not reset consec")
	}

	// Shorter break, proportionally weaker recovery.
	f2 := NewFatigueState(p)
	f2.AddWork(75, 9.0)
	f2.AddBreak(10)
	want2 := before * (1 - 0.4*(10.0/15.0))
	if math.Abs(f2.Value()-want2) > 1e-9 {
		t.Errorf("F after short break = %.4f, want %.4f", f2.Value(), want2)
	}
}

func TestNeedsBreakBefore(t *testing.T) {
	p := DefaultParams()
	f := NewFatigueState(p)

	if f.NeedsBreakBefore(25) {
		t.Error("fresh state should not need a break")
	}

	// 75 consecutive deep minutes: one more 25-min quantum would cross
	// the 90-min trigger, so the break comes first.
	f.AddWork(25, 8)
	f.AddWork(25, 8)
	f.AddWork(25, 8)
	if !f.NeedsBreakBefore(25) {
		t.Error("expected forced break before exceeding the consecutive trigger")
	}
	// A light quantum adds no deep minutes and forces nothing.
	if f.NeedsBreakBefore(0) {
		t.Error("light quantum should not trigger the consecutive check")
	}
}

func TestForceBreakOnHighFatigue(t *testing.T) {
	p := DefaultParams()
	p.FatigueForceBreak = 0.3
	f := NewFatigueState(p)
	f.AddWork(50, 9)
	if f.Value() < 0.3 {
		t.Fatalf("setup: F = %.3f below forced threshold", f.Value())
	}
	if !f.NeedsBreakBefore(0) {
		t.Error("F above threshold must force a break regardless of quantum")
	}
}

func TestBreakDuration(t *testing.T) {
	p := DefaultParams()
	f := NewFatigueState(p)
	f.AddWork(90, 9)
	if got := f.BreakDuration(); got != p.ShortBreakDuration {
		t.Errorf("break duration = %d before saturation, want short %d", got, p.ShortBreakDuration)
	}
	f.AddWork(90, 9)
	if got := f.BreakDuration(); got != p.LongBreakDuration {
		t.Errorf("break duration = %d after %d deep minutes, want long %d", got, f.TotalDeepMin(), p.LongBreakDuration)
	}
}

func TestFatigueClamped(t *testing.T) {
	p := DefaultParams()
	f := NewFatigueState(p)
	for i := 0; i < 40; i++ {
		f.AddWork(25, 10)
	}
	if f.Value() > 1 {
		t.Errorf("F = %.3f above 1", f.Value())
	}
}
