// Package clock handles the "HH:MM" wall-clock arithmetic the scheduler
// runs on. All times are minutes since midnight; nothing here touches
// time.Time except callers that need a real date.
package clock

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const MinutesPerDay = 24 * 60

// ParseHHMM converts "HH:MM" to minutes since midnight.
func ParseHHMM(s string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("malformed time %q: want HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("malformed hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("malformed minute in %q", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("time %q out of range", s)
	}
	return h*60 + m, nil
}

// FormatHHMM converts minutes since midnight to "HH:MM".
func FormatHHMM(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// Interval is a half-open [Start, End) window in minutes since midnight.
type Interval struct {
	Start int
	End   int
	Label string
}

func (iv Interval) Duration() int { return iv.End - iv.Start }

func (iv Interval) Contains(m int) bool { return m >= iv.Start && m < iv.End }

// ParseRange parses "HH:MM-HH:MM" with an optional trailing label,
// e.g. "10:00-11:00 Lecture".
func ParseRange(s string) (Interval, error) {
	s = strings.TrimSpace(s)
	timePart := s
	label := ""
	if idx := strings.IndexByte(s, ' '); idx >= 0 {
		timePart = s[:idx]
		label = strings.TrimSpace(s[idx+1:])
	}
	parts := strings.SplitN(timePart, "-", 2)
	if len(parts) != 2 {
		return Interval{}, fmt.Errorf("malformed range %q: want HH:MM-HH:MM", s)
	}
	start, err := ParseHHMM(parts[0])
	if err != nil {
		return Interval{}, err
	}
	end, err := ParseHHMM(parts[1])
	if err != nil {
		return Interval{}, err
	}
	if end <= start {
		return Interval{}, fmt.Errorf("range %q ends before it starts", s)
	}
	return Interval{Start: start, End: end, Label: label}, nil
}

// Clamp trims iv to [lo, hi). A zero-duration result means iv lies
// entirely outside the window.
func (iv Interval) Clamp(lo, hi int) Interval {
	out := iv
	if out.Start < lo {
		out.Start = lo
	}
	if out.End > hi {
		out.End = hi
	}
	if out.End < out.Start {
		out.End = out.Start
	}
	return out
}

// Merge sorts intervals and coalesces overlapping or touching ones.
// When two intervals merge, the later label wins.
func Merge(ivs []Interval) []Interval {
	if len(ivs) == 0 {
		return nil
	}
	sorted := make([]Interval, len(ivs))
	copy(sorted, ivs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	out := []Interval{sorted[0]}
	for _, iv := range sorted[1:] {
		last := &out[len(out)-1]
		if iv.Start <= last.End {
			if iv.End > last.End {
				last.End = iv.End
			}
			if iv.Label != "" {
				last.Label = iv.Label
			}
			continue
		}
		out = append(out, iv)
	}
	return out
}

// Subtract removes the busy intervals from [start, end) and returns the
// remaining free intervals in order. busy must already be merged.
func Subtract(start, end int, busy []Interval) []Interval {
	var free []Interval
	cursor := start
	for _, b := range busy {
		if b.End <= cursor || b.Start >= end {
			continue
		}
		if b.Start > cursor {
			free = append(free, Interval{Start: cursor, End: b.Start})
		}
		if b.End > cursor {
			cursor = b.End
		}
	}
	if cursor < end {
		free = append(free, Interval{Start: cursor, End: end})
	}
	return free
}
