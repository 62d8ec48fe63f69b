package engine

import (
	"time"

	"cogscheduler/backend/internal/model"
)

// XP rules per produced plan.
const (
	xpPerTaskBlock  = 5
	xpPerDeepBlock  = 10 // on top of the task-block award
	xpPerBreakBlock = 2
	xpTruncationFee = 5
)

var levelThresholds = []struct {
	xp   int
	name string
}{
	{0, model.LevelStudent},
	{200, model.LevelScholar},
	{600, model.LevelGenius},
	{1200, model.LevelMastermind},
}

func levelForXP(xp int) string {
	level := model.LevelStudent
	for _, l := range levelThresholds {
		if xp >= l.xp {
			level = l.name
		}
	}
	return level
}

// PriorPlan carries what gamification needs from the user's previously
// stored plan.
type PriorPlan struct {
	Streak    int
	HadDeep   bool
	CreatedAt time.Time
}

// computeGamification derives XP, level, streak, and badges from the
// produced block list. The streak day boundary uses the server's local
// timezone.
func computeGamification(blocks []placedBlock, stats placeStats, stressLevel int, prior *PriorPlan, now time.Time, p Params) model.Gamification {
	xp := 0
	for _, b := range blocks {
		if b.isBreak {
			xp += xpPerBreakBlock
			continue
		}
		xp += xpPerTaskBlock
		if b.load >= p.DeepWorkLoadThreshold {
			xp += xpPerDeepBlock
		}
	}
	if stats.truncated {
		xp -= xpTruncationFee
	}
	if xp < 0 {
		xp = 0
	}

	streak := 0
	if stats.anyDeep {
		streak = 1
		if prior != nil && prior.HadDeep && isYesterday(prior.CreatedAt, now) {
			streak = prior.Streak + 1
		}
	}

	return model.Gamification{
		XP:     xp,
		Level:  levelForXP(xp),
		Streak: streak,
		Badges: computeBadges(blocks, stats, stressLevel, p),
	}
}

func computeBadges(blocks []placedBlock, stats placeStats, stressLevel int, p Params) []string {
	badges := []string{}

	if deepDiver(blocks, p.DeepWorkLoadThreshold) {
		badges = append(badges, "Deep Diver")
	}
	if stats.breakBlocks >= 2 && stats.workBlocks >= 3 {
		badges = append(badges, "Balanced")
	}
	if stressLevel >= 4 && !stats.truncated {
		badges = append(badges, "Stress-Proof")
	}
	return badges
}

// deepDiver looks for a run of at least three deep blocks whose only
// interruptions are breaks, at least one of them engine-forced.
func deepDiver(blocks []placedBlock, deepThreshold float64) bool {
	run := 0
	sawForced := false
	for _, b := range blocks {
		switch {
		case b.isBreak:
			if b.forced {
				sawForced = true
			}
		case b.load >= deepThreshold:
			run++
			if run >= 3 && sawForced {
				return true
			}
		default:
			run = 0
			sawForced = false
		}
	}
	return false
}

func isYesterday(prev, now time.Time) bool {
	py, pm, pd := prev.Local().Date()
	yy, ym, yd := now.Local().AddDate(0, 0, -1).Date()
	return py == yy && pm == ym && pd == yd
}
