// Package ics renders a produced plan as an iCalendar document.
package ics

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"cogscheduler/backend/internal/clock"
	"cogscheduler/backend/internal/model"
)

const (
	prodID  = "-//CogScheduler//Cognitive Scheduler//EN"
	calName = "CogScheduler Plan"
)

// Build renders one VEVENT per work block, anchored on the given day in
// local time. Breaks and commitments stay out of the export; the calendar
// owner already has those. Each event carries a 5-minute display alarm.
func Build(blocks []model.Block, day time.Time) string {
	var b strings.Builder
	writeLine(&b, "BEGIN:VCALENDAR")
	writeLine(&b, "VERSION:2.0")
	writeLine(&b, "PRODID:"+prodID)
	writeLine(&b, "CALSCALE:GREGORIAN")
	writeLine(&b, "X-WR-CALNAME:"+calName)

	stamp := time.Now().UTC().Format("20060102T150405Z")
	for _, blk := range blocks {
		if blk.IsBreak {
			continue
		}
		start, err := clock.ParseHHMM(blk.StartTime)
		if err != nil {
			continue
		}
		end, err := clock.ParseHHMM(blk.EndTime)
		if err != nil {
			continue
		}

		writeLine(&b, "BEGIN:VEVENT")
		writeLine(&b, "UID:"+uuid.NewString()+"@cogscheduler")
		writeLine(&b, "DTSTAMP:"+stamp)
		writeLine(&b, "DTSTART:"+localStamp(day, start))
		writeLine(&b, "DTEND:"+localStamp(day, end))
		writeLine(&b, "SUMMARY:"+escape(blk.TaskTitle))
		writeLine(&b, "DESCRIPTION:"+escape(description(blk)))
		writeLine(&b, "BEGIN:VALARM")
		writeLine(&b, "ACTION:DISPLAY")
		writeLine(&b, "DESCRIPTION:"+escape(blk.TaskTitle))
		writeLine(&b, "TRIGGER:-PT5M")
		writeLine(&b, "END:VALARM")
		writeLine(&b, "END:VEVENT")
	}

	writeLine(&b, "END:VCALENDAR")
	return b.String()
}

func description(blk model.Block) string {
	return fmt.Sprintf("%s (load %.1f, energy %.2f, fatigue %.2f)",
		blk.Explanation, blk.CognitiveLoad, blk.EnergyAtStart, blk.FatigueAtStart)
}

// localStamp renders a floating local time, the format calendar apps use
// for "wall clock" events that do not shift across timezones.
func localStamp(day time.Time, minute int) string {
	t := time.Date(day.Year(), day.Month(), day.Day(), 0, minute, 0, 0, day.Location())
	return t.Format("20060102T150405")
}

func escape(s string) string {
	r := strings.NewReplacer("\\", "\\\\", ";", "\\;", ",", "\\,", "\n", "\\n")
	return r.Replace(s)
}

func writeLine(b *strings.Builder, line string) {
	b.WriteString(line)
	b.WriteString("\r\n")
}
