package engine

import (
	"fmt"

	"cogscheduler/backend/internal/clock"
)

type fixedKind int

const (
	fixedCommitment fixedKind = iota
	fixedPreferredBreak
)

// fixedEvent is an unmovable interval carried into the plan verbatim:
// a commitment (lecture, meeting) or a user-preferred break.
type fixedEvent struct {
	clock.Interval
	kind fixedKind
}

// Availability is the normalized scheduling surface: free intervals in
// order, plus the fixed events that were subtracted from the window.
type Availability struct {
	WindowStart int
	WindowEnd   int
	Free        []clock.Interval
	Fixed       []fixedEvent
}

// BuildAvailability parses the window, commitments, and preferred
// breaks, clamps everything to the window, merges overlaps, and
// subtracts the busy intervals. Commitments strictly outside the window
// are dropped.
func BuildAvailability(availableFrom, availableTo string, commitments, breakPrefs []string) (Availability, error) {
	start, err := clock.ParseHHMM(availableFrom)
	if err != nil {
		return Availability{}, fmt.Errorf("%w: available_from: %v", ErrInvalidWindow, err)
	}
	end, err := clock.ParseHHMM(availableTo)
	if err != nil {
		return Availability{}, fmt.Errorf("%w: available_to: %v", ErrInvalidWindow, err)
	}
	if start >= end {
		return Availability{}, fmt.Errorf("%w: available_from %s not before available_to %s",
			ErrInvalidWindow, availableFrom, availableTo)
	}

	commits, err := parseFixed(commitments, start, end, "daily_commitments")
	if err != nil {
		return Availability{}, err
	}
	commits = clock.Merge(commits)

	prefs, err := parseFixed(breakPrefs, start, end, "break_preferences")
	if err != nil {
		return Availability{}, err
	}
	prefs = clock.Merge(prefs)

	var fixed []fixedEvent
	for _, c := range commits {
		fixed = append(fixed, fixedEvent{Interval: c, kind: fixedCommitment})
	}
	// Preferred breaks yield to commitments when they collide.
	for _, b := range prefs {
		for _, part := range clock.Subtract(b.Start, b.End, commits) {
			part.Label = b.Label
			fixed = append(fixed, fixedEvent{Interval: part, kind: fixedPreferredBreak})
		}
	}
	sortFixed(fixed)

	busy := make([]clock.Interval, 0, len(fixed))
	for _, f := range fixed {
		busy = append(busy, f.Interval)
	}
	free := clock.Subtract(start, end, clock.Merge(busy))
	if len(free) == 0 {
		return Availability{}, fmt.Errorf("%w: commitments cover %s-%s entirely",
			ErrNoFreeTime, availableFrom, availableTo)
	}

	return Availability{WindowStart: start, WindowEnd: end, Free: free, Fixed: fixed}, nil
}

func parseFixed(specs []string, windowStart, windowEnd int, field string) ([]clock.Interval, error) {
	var out []clock.Interval
	for _, s := range specs {
		if s == "" {
			continue
		}
		iv, err := clock.ParseRange(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidWindow, field, err)
		}
		iv = iv.Clamp(windowStart, windowEnd)
		if iv.Duration() <= 0 {
			continue
		}
		out = append(out, iv)
	}
	return out, nil
}

func sortFixed(fixed []fixedEvent) {
	for i := 1; i < len(fixed); i++ {
		for j := i; j > 0 && fixed[j].Start < fixed[j-1].Start; j-- {
			fixed[j], fixed[j-1] = fixed[j-1], fixed[j]
		}
	}
}
