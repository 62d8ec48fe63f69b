package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"cogscheduler/backend/internal/clock"
	"cogscheduler/backend/internal/engine"
	apperrors "cogscheduler/backend/internal/errors"
	"cogscheduler/backend/internal/ics"
	"cogscheduler/backend/internal/model"
	"cogscheduler/backend/internal/parser"
	"cogscheduler/backend/internal/pkg/logger"
	"cogscheduler/backend/internal/repository"
)

// ScheduleService orchestrates the scheduling engine: merges the stored
// profile with request overrides, snapshots the merged config, runs the
// engine, and persists the result. Base config is process-wide; the
// recalibrated fatigue weights are per-user overrides layered on top of
// it at the start of every call.
type ScheduleService struct {
	profileRepo  *repository.ProfileRepository
	scheduleRepo *repository.ScheduleRepository
	feedbackRepo *repository.FeedbackRepository
	taskParser   parser.TaskParser
	log          *logger.Logger
	softDeadline time.Duration

	mu   sync.RWMutex
	base engine.Params
}

func NewScheduleService(
	profileRepo *repository.ProfileRepository,
	scheduleRepo *repository.ScheduleRepository,
	feedbackRepo *repository.FeedbackRepository,
	taskParser parser.TaskParser,
	log *logger.Logger,
	softDeadline time.Duration,
) *ScheduleService {
	return &ScheduleService{
		profileRepo:  profileRepo,
		scheduleRepo: scheduleRepo,
		feedbackRepo: feedbackRepo,
		taskParser:   taskParser,
		log:          log,
		softDeadline: softDeadline,
		base:         engine.DefaultParams(),
	}
}

// ProfileOverrides are per-request profile fields; nil pointers and nil
// slices leave the stored value in place.
type ProfileOverrides struct {
	Role             *string  `json:"role"`
	Chronotype       *string  `json:"chronotype"`
	WakeTime         *string  `json:"wake_time"`
	SleepTime        *string  `json:"sleep_time"`
	SleepHours       *float64 `json:"sleep_hours"`
	StressLevel      *int     `json:"stress_level"`
	DailyCommitments []string `json:"daily_commitments"`
	BreakPreferences []string `json:"break_preferences"`
	LecturesToday    *int     `json:"lectures_today"`
	MeetingsToday    *int     `json:"meetings_today"`
}

// ScheduleRequest is the body of POST /schedule: pre-parsed tasks plus
// optional profile overrides and window bounds.
type ScheduleRequest struct {
	Tasks         []model.Task     `json:"tasks"`
	Profile       ProfileOverrides `json:"profile"`
	AvailableFrom string           `json:"available_from"`
	AvailableTo   string           `json:"available_to"`
}

type ScheduleResponse struct {
	engine.Result
	Persisted bool `json:"persisted"`
}

func (s *ScheduleService) BuildSchedule(ctx context.Context, userID string, req ScheduleRequest) (*ScheduleResponse, *apperrors.APIError) {
	profile, apiErr := s.loadProfile(ctx, userID)
	if apiErr != nil {
		return nil, apiErr
	}
	applyOverrides(profile, req.Profile)

	// When lectures_today was never set, the commitment count is the
	// best available estimate of accumulated lecture load.
	if profile.LecturesToday == 0 {
		profile.LecturesToday = len(profile.DailyCommitments)
	}

	from := req.AvailableFrom
	if from == "" {
		from = profile.WakeTime
	}
	to := req.AvailableTo
	if to == "" {
		to = profile.SleepTime
	}

	params, apiErr := s.paramsFor(ctx, userID)
	if apiErr != nil {
		return nil, apiErr
	}
	prior := s.priorPlan(ctx, userID, params)

	result, err := engine.Run(ctx, engine.Request{
		Tasks:         req.Tasks,
		Profile:       *profile,
		AvailableFrom: from,
		AvailableTo:   to,
		Params:        params,
		Prior:         prior,
		SoftDeadline:  s.softDeadline,
	})
	if err != nil {
		return nil, mapEngineError(err)
	}

	resp := &ScheduleResponse{Result: *result, Persisted: true}
	data, err := json.Marshal(resp)
	if err != nil {
		return nil, apperrors.Internal("failed to encode schedule")
	}

	schedule := model.Schedule{
		ID:        uuid.NewString(),
		UserID:    userID,
		Data:      data,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.scheduleRepo.Create(ctx, &schedule); err != nil {
		// The plan is still good; report the storage miss instead of
		// throwing the work away.
		s.log.Error("persist schedule failed", "user_id", userID, "error", err)
		resp.Persisted = false
	}

	s.log.Info("schedule built",
		"user_id", userID,
		"tasks", len(result.ParsedTasks),
		"blocks", len(result.Blocks),
		"warnings", len(result.Warnings),
		"truncated", result.Truncated,
		"persisted", resp.Persisted,
	)
	return resp, nil
}

// Converse parses a free-text message into tasks, then schedules them.
func (s *ScheduleService) Converse(ctx context.Context, userID, message string, req ScheduleRequest) (*ScheduleResponse, *apperrors.APIError) {
	tasks, err := s.taskParser.Parse(ctx, message)
	if err != nil {
		if errors.Is(err, parser.ErrNoTasks) {
			return nil, apperrors.BadRequest("parse_error", "could not recognize any tasks in the message")
		}
		return nil, apperrors.Internal("task parsing failed")
	}
	req.Tasks = tasks
	return s.BuildSchedule(ctx, userID, req)
}

// ConfigSnapshot returns the current process-wide engine config.
func (s *ScheduleService) ConfigSnapshot() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.base.Map()
}

// UpdateConfig applies a partial update. Any unknown key rejects the
// whole request and leaves the config untouched.
func (s *ScheduleService) UpdateConfig(updates map[string]interface{}) (map[string]interface{}, *apperrors.APIError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.base
	if err := next.Apply(updates); err != nil {
		return nil, apperrors.BadRequest("unknown_config_key", err.Error())
	}
	s.base = next
	s.log.Info("engine config updated", "keys", len(updates))
	return s.base.Map(), nil
}

func (s *ScheduleService) GetProfile(ctx context.Context, userID string) (*model.Profile, *apperrors.APIError) {
	return s.loadProfile(ctx, userID)
}

func (s *ScheduleService) UpdateProfile(ctx context.Context, userID string, p model.Profile) (*model.Profile, *apperrors.APIError) {
	if apiErr := validateProfile(&p); apiErr != nil {
		return nil, apiErr
	}
	if err := s.profileRepo.Upsert(ctx, userID, &p); err != nil {
		s.log.Error("update profile failed", "user_id", userID, "error", err)
		return nil, apperrors.Internal("failed to save profile")
	}
	return &p, nil
}

// ScheduleSummary is one row of the schedule history listing.
type ScheduleSummary struct {
	ID             string    `json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	CalendarSynced bool      `json:"calendar_synced"`
	Blocks         int       `json:"blocks"`
}

func (s *ScheduleService) ListSchedules(ctx context.Context, userID string, limit int) ([]ScheduleSummary, *apperrors.APIError) {
	schedules, err := s.scheduleRepo.ListByUser(ctx, userID, limit)
	if err != nil {
		s.log.Error("list schedules failed", "user_id", userID, "error", err)
		return nil, apperrors.Internal("failed to list schedules")
	}

	summaries := make([]ScheduleSummary, 0, len(schedules))
	for _, sched := range schedules {
		summaries = append(summaries, ScheduleSummary{
			ID:             sched.ID,
			CreatedAt:      sched.CreatedAt,
			CalendarSynced: sched.CalendarSynced,
			Blocks:         len(storedBlocks(sched.Data)),
		})
	}
	return summaries, nil
}

// ExportCalendar renders the most recent plan as an ICS document and
// marks the schedule as synced.
func (s *ScheduleService) ExportCalendar(ctx context.Context, userID string) (string, *apperrors.APIError) {
	latest, err := s.scheduleRepo.Latest(ctx, userID)
	if err == repository.ErrNotFound {
		return "", apperrors.NotFound("no_schedule", "no schedule to export yet")
	}
	if err != nil {
		s.log.Error("load latest schedule failed", "user_id", userID, "error", err)
		return "", apperrors.Internal("failed to load schedule")
	}

	blocks := storedBlocks(latest.Data)
	if len(blocks) == 0 {
		return "", apperrors.NotFound("empty_schedule", "latest schedule has no blocks")
	}

	doc := ics.Build(blocks, latest.CreatedAt.Local())
	if err := s.scheduleRepo.MarkCalendarSynced(ctx, latest.ID); err != nil {
		s.log.Warn("mark calendar synced failed", "schedule_id", latest.ID, "error", err)
	}
	return doc, nil
}

func (s *ScheduleService) loadProfile(ctx context.Context, userID string) (*model.Profile, *apperrors.APIError) {
	profile, err := s.profileRepo.Get(ctx, userID)
	if err == repository.ErrNotFound {
		p := model.DefaultProfile()
		return &p, nil
	}
	if err != nil {
		s.log.Error("load profile failed", "user_id", userID, "error", err)
		return nil, apperrors.Internal("failed to load profile")
	}
	return profile, nil
}

// paramsFor merges the process config with the user's recalibrated
// weights into the per-call snapshot.
func (s *ScheduleService) paramsFor(ctx context.Context, userID string) (engine.Params, *apperrors.APIError) {
	s.mu.RLock()
	params := s.base
	s.mu.RUnlock()

	weights, err := s.feedbackRepo.Weights(ctx, userID)
	if err == repository.ErrNotFound {
		return params, nil
	}
	if err != nil {
		s.log.Error("load user weights failed", "user_id", userID, "error", err)
		return engine.Params{}, apperrors.Internal("failed to load user weights")
	}
	return params.WithWeights(weights), nil
}

// priorPlan recovers streak inputs from the user's latest stored plan.
// Any load or decode failure just means no streak carry-over.
func (s *ScheduleService) priorPlan(ctx context.Context, userID string, params engine.Params) *engine.PriorPlan {
	latest, err := s.scheduleRepo.Latest(ctx, userID)
	if err != nil {
		return nil
	}

	var stored struct {
		Blocks       []model.Block      `json:"schedule"`
		Gamification model.Gamification `json:"gamification"`
	}
	if err := json.Unmarshal(latest.Data, &stored); err != nil {
		return nil
	}

	hadDeep := false
	for _, b := range stored.Blocks {
		if !b.IsBreak && b.CognitiveLoad >= params.DeepWorkLoadThreshold {
			hadDeep = true
			break
		}
	}
	return &engine.PriorPlan{
		Streak:    stored.Gamification.Streak,
		HadDeep:   hadDeep,
		CreatedAt: latest.CreatedAt,
	}
}

func storedBlocks(data []byte) []model.Block {
	var stored struct {
		Blocks []model.Block `json:"schedule"`
	}
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil
	}
	return stored.Blocks
}

func applyOverrides(p *model.Profile, o ProfileOverrides) {
	if o.Role != nil {
		p.Role = *o.Role
	}
	if o.Chronotype != nil {
		p.Chronotype = *o.Chronotype
	}
	if o.WakeTime != nil {
		p.WakeTime = *o.WakeTime
	}
	if o.SleepTime != nil {
		p.SleepTime = *o.SleepTime
	}
	if o.SleepHours != nil {
		p.SleepHours = *o.SleepHours
	}
	if o.StressLevel != nil {
		p.StressLevel = *o.StressLevel
	}
	if o.DailyCommitments != nil {
		p.DailyCommitments = o.DailyCommitments
	}
	if o.BreakPreferences != nil {
		p.BreakPreferences = o.BreakPreferences
	}
	if o.LecturesToday != nil {
		p.LecturesToday = *o.LecturesToday
	}
	if o.MeetingsToday != nil {
		p.MeetingsToday = *o.MeetingsToday
	}
}

func validateProfile(p *model.Profile) *apperrors.APIError {
	if !model.ValidRole(p.Role) {
		return apperrors.BadRequest("invalid_profile", "role must be student, professional, or researcher")
	}
	if !model.ValidChronotype(p.Chronotype) {
		return apperrors.BadRequest("invalid_profile", "chronotype must be early, normal, or late")
	}
	if p.SleepHours < 0 || p.SleepHours > 24 {
		return apperrors.BadRequest("invalid_profile", "sleep_hours must be between 0 and 24")
	}
	if p.StressLevel < 1 || p.StressLevel > 5 {
		return apperrors.BadRequest("invalid_profile", "stress_level must be between 1 and 5")
	}
	for _, field := range []struct{ name, value string }{
		{"wake_time", p.WakeTime},
		{"sleep_time", p.SleepTime},
	} {
		if _, err := clock.ParseHHMM(field.value); err != nil {
			return apperrors.BadRequest("invalid_profile", field.name+" must be HH:MM")
		}
	}
	for _, c := range p.DailyCommitments {
		if _, err := clock.ParseRange(c); err != nil {
			return apperrors.BadRequest("invalid_profile", "daily_commitments entries must be \"HH:MM-HH:MM label\"")
		}
	}
	for _, b := range p.BreakPreferences {
		if _, err := clock.ParseRange(b); err != nil {
			return apperrors.BadRequest("invalid_profile", "break_preferences entries must be \"HH:MM-HH:MM\"")
		}
	}
	if p.DailyCommitments == nil {
		p.DailyCommitments = []string{}
	}
	if p.BreakPreferences == nil {
		p.BreakPreferences = []string{}
	}
	return nil
}

func mapEngineError(err error) *apperrors.APIError {
	switch {
	case errors.Is(err, engine.ErrInvalidWindow):
		return apperrors.BadRequest("invalid_window", err.Error())
	case errors.Is(err, engine.ErrNoFreeTime):
		return apperrors.BadRequest("no_free_time", err.Error())
	case errors.Is(err, engine.ErrMalformedTask):
		return apperrors.BadRequest("malformed_task", err.Error())
	case errors.Is(err, engine.ErrCancelled):
		return apperrors.New(http.StatusRequestTimeout, "cancelled", "scheduling cancelled")
	default:
		return apperrors.Internal("scheduling failed")
	}
}
