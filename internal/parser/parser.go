// Package parser turns a free-text daily request into structured tasks.
// The production deployment would put an LLM extractor behind TaskParser;
// RegexParser is the always-available fallback.
package parser

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"cogscheduler/backend/internal/model"
)

// ErrNoTasks means the message yielded nothing schedulable.
var ErrNoTasks = errors.New("no tasks recognized in message")

// TaskParser extracts tasks from a natural-language message.
type TaskParser interface {
	Parse(ctx context.Context, message string) ([]model.Task, error)
}

// RegexParser recognizes phrases of the form "<activity> for N hours" or
// "<activity> for N minutes", split on commas, "and", and "then". A
// phrase without an explicit duration gets one hour.
type RegexParser struct{}

func NewRegexParser() *RegexParser {
	return &RegexParser{}
}

var (
	splitRe    = regexp.MustCompile(`(?i)\s*(?:,|;|\band then\b|\bthen\b|\band\b)\s*`)
	durationRe = regexp.MustCompile(`(?i)\bfor\s+(\d+(?:\.\d+)?)\s*(hours?|hrs?|h|minutes?|mins?|min|m)\b`)
	leadVerbRe = regexp.MustCompile(`(?i)^(?:i\s+(?:need|want|have)\s+to\s+|please\s+|study\s+|work\s+on\s+|do\s+|finish\s+|practice\s+|prepare\s+(?:for\s+)?)`)
)

// categoryKeywords maps phrase substrings to the load-estimator
// categories. First match wins, checked in listed order so the more
// specific subjects come before the generic verbs.
var categoryKeywords = []struct {
	substr   string
	category string
}{
	{"math", "math"},
	{"calculus", "math"},
	{"algebra", "math"},
	{"statistic", "math"},
	{"program", "programming"},
	{"coding", "programming"},
	{"code", "programming"},
	{"algorithm", "programming"},
	{"physic", "science"},
	{"chem", "science"},
	{"biolog", "science"},
	{"lab", "science"},
	{"research", "research"},
	{"thesis", "research"},
	{"paper", "writing"},
	{"essay", "writing"},
	{"write", "writing"},
	{"read", "reading"},
	{"review", "review"},
	{"revise", "review"},
	{"notes", "review"},
}

// categoryDifficulty supplies a difficulty guess when the text gives
// none; the load estimator refines it with category weights.
var categoryDifficulty = map[string]float64{
	"math":        7,
	"programming": 7,
	"science":     6,
	"research":    6,
	"writing":     5,
	"reading":     4,
	"review":      3,
	"general":     5,
}

func (p *RegexParser) Parse(ctx context.Context, message string) ([]model.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var tasks []model.Task
	for _, phrase := range splitRe.Split(message, -1) {
		phrase = strings.TrimSpace(phrase)
		if phrase == "" {
			continue
		}

		duration := 60
		if m := durationRe.FindStringSubmatch(phrase); m != nil {
			amount, err := strconv.ParseFloat(m[1], 64)
			if err == nil {
				if isHourUnit(m[2]) {
					duration = int(amount * 60)
				} else {
					duration = int(amount)
				}
			}
			phrase = strings.TrimSpace(durationRe.ReplaceAllString(phrase, ""))
		}
		if duration <= 0 || phrase == "" {
			continue
		}

		title := cleanTitle(phrase)
		if title == "" {
			continue
		}
		category := guessCategory(phrase)
		tasks = append(tasks, model.Task{
			Title:           title,
			Category:        category,
			Difficulty:      categoryDifficulty[category],
			DurationMinutes: duration,
		})
	}

	if len(tasks) == 0 {
		return nil, ErrNoTasks
	}
	return tasks, nil
}

func isHourUnit(unit string) bool {
	return strings.HasPrefix(strings.ToLower(unit), "h")
}

func cleanTitle(phrase string) string {
	title := leadVerbRe.ReplaceAllString(phrase, "")
	title = strings.Trim(title, " .!?")
	if title == "" {
		return ""
	}
	// Capitalize the first rune only; the rest stays as typed.
	return strings.ToUpper(title[:1]) + title[1:]
}

func guessCategory(phrase string) string {
	lower := strings.ToLower(phrase)
	for _, kw := range categoryKeywords {
		if strings.Contains(lower, kw.substr) {
			return kw.category
		}
	}
	return "general"
}
