package router_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"cogscheduler/backend/internal/db"
	"cogscheduler/backend/internal/handler"
	"cogscheduler/backend/internal/parser"
	"cogscheduler/backend/internal/pkg/logger"
	"cogscheduler/backend/internal/repository"
	"cogscheduler/backend/internal/router"
	"cogscheduler/backend/internal/service"
)

type authResponse struct {
	Token string `json:"token"`
	User  struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

type scheduleEnvelope struct {
	ParsedTasks []struct {
		Title         string  `json:"title"`
		CognitiveLoad float64 `json:"cognitive_load"`
	} `json:"parsed_tasks"`
	Schedule []struct {
		TaskTitle string `json:"task_title"`
		StartTime string `json:"start_time"`
		EndTime   string `json:"end_time"`
		IsBreak   bool   `json:"is_break"`
	} `json:"schedule"`
	EnergyCurve  []struct{} `json:"energy_curve"`
	Warnings     []string   `json:"warnings"`
	Gamification struct {
		XP    int    `json:"xp"`
		Level string `json:"level"`
	} `json:"gamification"`
	Persisted bool `json:"persisted"`
}

type feedbackEnvelope struct {
	Status         string `json:"status"`
	TLXEntries     int    `json:"tlx_entries"`
	UpdatedWeights struct {
		ConsecWeight float64 `json:"fatigue_consec_weight"`
		TotalWeight  float64 `json:"fatigue_total_weight"`
		ForceBreak   float64 `json:"fatigue_force_break"`
	} `json:"updated_weights"`
}

func TestHealth(t *testing.T) {
	engine := setupTestEngine(t)
	status, body := requestJSON(t, engine, http.MethodGet, "/health", "", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	var resp map[string]string
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("unmarshal health: %v", err)
	}
	if resp["status"] != "healthy" || resp["service"] != "cognitive-scheduler" {
		t.Fatalf("unexpected health payload: %v", resp)
	}
}

func TestScheduleEndToEnd(t *testing.T) {
	engine := setupTestEngine(t)
	user := registerUser(t, engine, "student@example.com", "123456")

	body := map[string]interface{}{
		"tasks": []map[string]interface{}{
			{"title": "Graph Theory", "category": "math", "difficulty": 8, "duration_minutes": 120, "cognitive_load": 8.2},
			{"title": "Chem Review", "category": "science", "difficulty": 4, "duration_minutes": 45, "cognitive_load": 3.0},
		},
		"profile": map[string]interface{}{
			"chronotype":        "normal",
			"sleep_hours":       7,
			"stress_level":      2,
			"break_preferences": []string{"13:00-14:00"},
		},
		"available_from": "09:00",
		"available_to":   "22:00",
	}
	status, raw := requestJSON(t, engine, http.MethodPost, "/api/schedule", user.Token, body)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on schedule, got %d: %s", status, string(raw))
	}

	var resp scheduleEnvelope
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatalf("unmarshal schedule response: %v", err)
	}
	if len(resp.Schedule) == 0 {
		t.Fatal("expected a non-empty plan")
	}
	if resp.Schedule[0].TaskTitle != "Graph Theory" || resp.Schedule[0].StartTime != "09:00" {
		t.Fatalf("plan should open with Graph Theory at 09:00, got %+v", resp.Schedule[0])
	}
	if len(resp.ParsedTasks) != 2 {
		t.Fatalf("expected 2 parsed tasks echoed, got %d", len(resp.ParsedTasks))
	}
	if len(resp.EnergyCurve) == 0 {
		t.Fatal("expected an energy curve")
	}
	if resp.Gamification.XP <= 0 {
		t.Fatalf("expected positive xp, got %d", resp.Gamification.XP)
	}
	if !resp.Persisted {
		t.Fatal("expected the plan to be persisted")
	}

	// The stored plan shows up in the history listing.
	status, raw = requestJSON(t, engine, http.MethodGet, "/api/schedules?limit=5", user.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on history, got %d", status)
	}
	var history struct {
		Schedules []struct {
			ID             string `json:"id"`
			CalendarSynced bool   `json:"calendar_synced"`
		} `json:"schedules"`
	}
	if err := json.Unmarshal(raw, &history); err != nil {
		t.Fatalf("unmarshal history: %v", err)
	}
	if len(history.Schedules) != 1 {
		t.Fatalf("expected one stored schedule, got %d", len(history.Schedules))
	}

	// Export the plan as ICS and observe the synced flag flip.
	status, raw = requestJSON(t, engine, http.MethodGet, "/api/calendar/export", user.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on export, got %d: %s", status, string(raw))
	}
	doc := string(raw)
	if !strings.Contains(doc, "BEGIN:VCALENDAR") || !strings.Contains(doc, "SUMMARY:Graph Theory") {
		t.Fatalf("unexpected ICS document:\n%s", doc)
	}

	status, raw = requestJSON(t, engine, http.MethodGet, "/api/schedules?limit=5", user.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on history, got %d", status)
	}
	if err := json.Unmarshal(raw, &history); err != nil {
		t.Fatalf("unmarshal history: %v", err)
	}
	if !history.Schedules[0].CalendarSynced {
		t.Fatal("expected calendar_synced after export")
	}
}

func TestConverseParsesTasks(t *testing.T) {
	engine := setupTestEngine(t)
	user := registerUser(t, engine, "chatty@example.com", "123456")

	body := map[string]interface{}{
		"message":        "Study graph theory for 2 hours and review chemistry notes for 45 minutes",
		"available_from": "09:00",
		"available_to":   "18:00",
	}
	status, raw := requestJSON(t, engine, http.MethodPost, "/api/converse", user.Token, body)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on converse, got %d: %s", status, string(raw))
	}

	var resp scheduleEnvelope
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatalf("unmarshal converse response: %v", err)
	}
	if len(resp.ParsedTasks) != 2 {
		t.Fatalf("expected 2 parsed tasks, got %d", len(resp.ParsedTasks))
	}
	if resp.ParsedTasks[0].CognitiveLoad <= 0 {
		t.Fatal("parsed tasks should carry derived cognitive loads")
	}
	if len(resp.Schedule) == 0 {
		t.Fatal("expected a plan from the parsed tasks")
	}

	// Gibberish with no recognizable tasks is a parse error, not a crash.
	status, raw = requestJSON(t, engine, http.MethodPost, "/api/chat", user.Token, map[string]interface{}{
		"message": ", and ,",
	})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for unparseable message, got %d: %s", status, string(raw))
	}
}

func TestConfigValidation(t *testing.T) {
	engine := setupTestEngine(t)
	user := registerUser(t, engine, "tuner@example.com", "123456")

	// Unknown key rejects the whole update.
	status, _ := requestJSON(t, engine, http.MethodPut, "/api/config", user.Token, map[string]interface{}{
		"bogus_key": 99,
	})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown key, got %d", status)
	}

	status, raw := requestJSON(t, engine, http.MethodGet, "/api/config", user.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on get config, got %d", status)
	}
	var cfg map[string]interface{}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		t.Fatalf("unmarshal config: %v", err)
	}
	if cfg["quantum_min"].(float64) != 25 {
		t.Fatalf("config changed by a rejected update: quantum_min = %v", cfg["quantum_min"])
	}

	// A valid partial update applies and reads back.
	status, _ = requestJSON(t, engine, http.MethodPut, "/api/config", user.Token, map[string]interface{}{
		"quantum_min": 20,
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200 for valid update, got %d", status)
	}
	status, raw = requestJSON(t, engine, http.MethodGet, "/api/config", user.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on get config, got %d", status)
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		t.Fatalf("unmarshal config: %v", err)
	}
	if cfg["quantum_min"].(float64) != 20 {
		t.Fatalf("expected quantum_min 20, got %v", cfg["quantum_min"])
	}
}

func TestTLXRecalibration(t *testing.T) {
	engine := setupTestEngine(t)
	user := registerUser(t, engine, "feedback@example.com", "123456")

	var resp feedbackEnvelope
	for i := 0; i < 3; i++ {
		status, raw := requestJSON(t, engine, http.MethodPost, "/api/tlx-feedback", user.Token, map[string]int{
			"block_index":   0,
			"mental_demand": 5,
			"effort":        5,
		})
		if status != http.StatusOK {
			t.Fatalf("expected 200 on feedback %d, got %d: %s", i, status, string(raw))
		}
		if err := json.Unmarshal(raw, &resp); err != nil {
			t.Fatalf("unmarshal feedback response: %v", err)
		}
	}

	if resp.Status != "ok" {
		t.Fatalf("expected status ok, got %q", resp.Status)
	}
	if resp.TLXEntries < 3 {
		t.Fatalf("expected at least 3 entries, got %d", resp.TLXEntries)
	}
	// Demand above baseline: consec weight drifts up from 0.40 within
	// its clamp range, force-break drifts down within its range.
	w := resp.UpdatedWeights
	if w.ConsecWeight < 0.40 || w.ConsecWeight > 0.60 {
		t.Fatalf("consec weight %.4f out of expected range", w.ConsecWeight)
	}
	if w.TotalWeight < 0.05 || w.TotalWeight > 0.60 {
		t.Fatalf("total weight %.4f out of clamp range", w.TotalWeight)
	}
	if w.ForceBreak < 0.40 || w.ForceBreak >= 0.75 {
		t.Fatalf("force-break threshold %.4f should have moved below the default", w.ForceBreak)
	}

	// Out-of-range ratings are rejected.
	status, _ := requestJSON(t, engine, http.MethodPost, "/api/tlx-feedback", user.Token, map[string]int{
		"block_index":   0,
		"mental_demand": 9,
		"effort":        5,
	})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for out-of-range rating, got %d", status)
	}
}

func TestProfileRoundTrip(t *testing.T) {
	engine := setupTestEngine(t)
	user := registerUser(t, engine, "profiled@example.com", "123456")

	profile := map[string]interface{}{
		"name":              "Dana",
		"role":              "researcher",
		"chronotype":        "late",
		"wake_time":         "09:30",
		"sleep_time":        "01:00",
		"sleep_hours":       6.5,
		"stress_level":      3,
		"daily_commitments": []string{"10:00-11:00 Lab meeting"},
		"break_preferences": []string{"15:00-15:30"},
		"lectures_today":    1,
	}
	status, raw := requestJSON(t, engine, http.MethodPut, "/api/profile", user.Token, profile)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on put profile, got %d: %s", status, string(raw))
	}

	status, raw = requestJSON(t, engine, http.MethodGet, "/api/profile", user.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on get profile, got %d", status)
	}
	var got map[string]interface{}
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal profile: %v", err)
	}
	if got["chronotype"] != "late" || got["role"] != "researcher" {
		t.Fatalf("profile did not round-trip: %v", got)
	}

	// Invalid chronotype is rejected.
	profile["chronotype"] = "nocturnal"
	status, _ = requestJSON(t, engine, http.MethodPut, "/api/profile", user.Token, profile)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid chronotype, got %d", status)
	}
}

func TestAuthRequired(t *testing.T) {
	engine := setupTestEngine(t)
	for _, path := range []string{"/api/schedule", "/api/config", "/api/profile"} {
		status, _ := requestJSON(t, engine, http.MethodGet, path, "", nil)
		if status != http.StatusUnauthorized && status != http.StatusNotFound {
			t.Errorf("%s without token: got %d, want 401", path, status)
		}
	}
	status, _ := requestJSON(t, engine, http.MethodPost, "/api/schedule", "", map[string]interface{}{})
	if status != http.StatusUnauthorized {
		t.Errorf("schedule without token: got %d, want 401", status)
	}
}

func TestCORSPreflight(t *testing.T) {
	engine := setupTestEngine(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	recorder := httptest.NewRecorder()

	engine.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", recorder.Code)
	}
	if recorder.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Fatalf("unexpected allow-origin header: %s", recorder.Header().Get("Access-Control-Allow-Origin"))
	}
}

func setupTestEngine(t *testing.T) http.Handler {
	t.Helper()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	_, currentFile, _, _ := runtime.Caller(0)
	migrationsDir := filepath.Join(filepath.Dir(currentFile), "..", "..", "migrations")
	if err := db.RunMigrations(database, migrationsDir); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	log := logger.NewNop()
	userRepo := repository.NewUserRepository(database)
	profileRepo := repository.NewProfileRepository(database)
	scheduleRepo := repository.NewScheduleRepository(database)
	feedbackRepo := repository.NewFeedbackRepository(database)

	authService := service.NewAuthService(userRepo, profileRepo, "test-secret", 24*time.Hour)
	scheduleService := service.NewScheduleService(
		profileRepo, scheduleRepo, feedbackRepo,
		parser.NewRegexParser(), log, 2*time.Second,
	)

	authHandler := handler.NewAuthHandler(authService)
	scheduleHandler := handler.NewScheduleHandler(scheduleService)

	return router.New(authService, authHandler, scheduleHandler, []string{"http://localhost:5173"}, log)
}

func registerUser(t *testing.T, server http.Handler, email, password string) authResponse {
	t.Helper()
	status, body := requestJSON(t, server, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if status != http.StatusCreated {
		t.Fatalf("register %s failed with status %d: %s", email, status, string(body))
	}
	var resp authResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("unmarshal register response: %v", err)
	}
	if resp.Token == "" {
		t.Fatalf("empty token for user %s", email)
	}
	return resp
}

func requestJSON(
	t *testing.T,
	server http.Handler,
	method, path, token string,
	body interface{},
) (int, []byte) {
	t.Helper()

	var payload []byte
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		payload = raw
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, req)
	return recorder.Code, recorder.Body.Bytes()
}
