package engine

import (
	"fmt"

	"cogscheduler/backend/internal/model"
)

const maxWarnings = 6

// buildWarnings derives the human-readable cautions for a finished plan,
// ordered by severity and capped at six.
func buildWarnings(prof model.Profile, tasks []model.Task, stats placeStats, p Params) []string {
	var out []string

	if prof.SleepHours < 7 {
		out = append(out, fmt.Sprintf(
			"Only %.1fh of sleep — burnout risk; keep today light if you can", prof.SleepHours))
	}
	if prof.StressLevel == 5 && stats.anyDeep {
		out = append(out, "Stress level 5 with deep work scheduled — consider deferring the hardest tasks")
	}
	if stats.deadlineHit {
		out = append(out, "truncated_by_deadline: scheduling stopped at the soft deadline; returning the best plan so far")
	}
	if stats.truncated {
		out = append(out, "Not enough time for remaining tasks — plan truncated at the end of the window")
	}
	if stats.maxConsecDeep > p.ShortBreakTriggerMin {
		// Forced breaks should make this unreachable.
		out = append(out, fmt.Sprintf(
			"Internal check: %d consecutive deep-work minutes exceeded the %d min trigger despite forced breaks",
			stats.maxConsecDeep, p.ShortBreakTriggerMin))
	}
	if prof.StressLevel >= p.StressCapThreshold {
		for _, t := range tasks {
			if t.CognitiveLoad > p.MaxLoadUnderStress {
				out = append(out, fmt.Sprintf(
					"%q (load %.1f) exceeds the stress-capped maximum of %.1f — scheduled anyway, expect it to feel harder",
					t.Title, t.CognitiveLoad, p.MaxLoadUnderStress))
				break
			}
		}
	}
	if len(prof.BreakPreferences) == 0 && stats.deepMinutes > 120 {
		out = append(out, fmt.Sprintf(
			"No breaks requested but %d min of deep work in the window — recovery breaks were inserted", stats.deepMinutes))
	}

	if len(out) > maxWarnings {
		out = out[:maxWarnings]
	}
	return out
}
