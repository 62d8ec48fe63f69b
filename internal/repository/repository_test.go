package repository_test

import (
	"context"
	"math"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"

	"cogscheduler/backend/internal/db"
	"cogscheduler/backend/internal/model"
	"cogscheduler/backend/internal/repository"
)

func setupDB(t *testing.T) (
	*repository.UserRepository,
	*repository.ProfileRepository,
	*repository.ScheduleRepository,
	*repository.FeedbackRepository,
) {
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

	return repository.NewUserRepository(database),
		repository.NewProfileRepository(database),
		repository.NewScheduleRepository(database),
		repository.NewFeedbackRepository(database)
}

func createUser(t *testing.T, users *repository.UserRepository, email string) string {
	t.Helper()
	now := time.Now().UTC()
	user := model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: "hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := users.Create(context.Background(), &user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user.ID
}

func TestProfileUpsertRoundTrip(t *testing.T) {
	users, profiles, _, _ := setupDB(t)
	ctx := context.Background()
	userID := createUser(t, users, "round@example.com")

	if _, err := profiles.Get(ctx, userID); err != repository.ErrNotFound {
		t.Fatalf("expected ErrNotFound before upsert, got %v", err)
	}

	p := model.DefaultProfile()
	p.Chronotype = model.ChronotypeLate
	p.DailyCommitments = []string{"10:00-11:00 Lecture"}
	if err := profiles.Upsert(ctx, userID, &p); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := profiles.Get(ctx, userID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Chronotype != model.ChronotypeLate {
		t.Errorf("chronotype = %q", got.Chronotype)
	}
	if len(got.DailyCommitments) != 1 || got.DailyCommitments[0] != "10:00-11:00 Lecture" {
		t.Errorf("commitments = %v", got.DailyCommitments)
	}

	// Second upsert updates in place.
	p.StressLevel = 4
	if err := profiles.Upsert(ctx, userID, &p); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	got, err = profiles.Get(ctx, userID)
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if got.StressLevel != 4 {
		t.Errorf("stress_level = %d, want 4", got.StressLevel)
	}
}

func TestScheduleOrderingAndLatest(t *testing.T) {
	users, _, schedules, _ := setupDB(t)
	ctx := context.Background()
	userID := createUser(t, users, "plans@example.com")

	base := time.Now().UTC().Add(-time.Hour)
	var lastID string
	for i := 0; i < 3; i++ {
		s := model.Schedule{
			ID:        uuid.NewString(),
			UserID:    userID,
			Data:      []byte(`{"schedule":[]}`),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := schedules.Create(ctx, &s); err != nil {
			t.Fatalf("create schedule %d: %v", i, err)
		}
		lastID = s.ID
	}

	latest, err := schedules.Latest(ctx, userID)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.ID != lastID {
		t.Errorf("latest = %s, want the most recent %s", latest.ID, lastID)
	}

	list, err := schedules.ListByUser(ctx, userID, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d schedules, want limit 2", len(list))
	}
	if !list[0].CreatedAt.After(list[1].CreatedAt) {
		t.Error("listing not ordered created_at desc")
	}

	if err := schedules.MarkCalendarSynced(ctx, lastID); err != nil {
		t.Fatalf("mark synced: %v", err)
	}
	latest, err = schedules.Latest(ctx, userID)
	if err != nil {
		t.Fatalf("latest after sync: %v", err)
	}
	if !latest.CalendarSynced {
		t.Error("calendar_synced not persisted")
	}
}

func TestFeedbackSubmitRecalibrates(t *testing.T) {
	users, _, _, feedback := setupDB(t)
	ctx := context.Background()
	userID := createUser(t, users, "tlx@example.com")

	defaults := model.FatigueWeights{FatigueConsecWeight: 0.4, FatigueTotalWeight: 0.3, FatigueForceBreak: 0.75}
	bump := func(total int, recent []model.TLXEntry, w model.FatigueWeights) (model.FatigueWeights, bool) {
		if total%3 != 0 {
			return w, false
		}
		w.FatigueConsecWeight += 0.01
		return w, true
	}

	for i := 1; i <= 3; i++ {
		entry := model.TLXEntry{UserID: userID, BlockIndex: 0, MentalDemand: 5, Effort: 5, CreatedAt: time.Now().UTC()}
		total, weights, err := feedback.Submit(ctx, &entry, defaults, bump)
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
		if total != i {
			t.Errorf("total after %d submits = %d", i, total)
		}
		if i < 3 && weights != defaults {
			t.Errorf("weights changed before the third entry: %+v", weights)
		}
		if i == 3 && math.Abs(weights.FatigueConsecWeight-0.41) > 1e-9 {
			t.Errorf("weights after third entry = %+v, want recalibrated", weights)
		}
	}

	// The stored weights survive a fresh read.
	w, err := feedback.Weights(ctx, userID)
	if err != nil {
		t.Fatalf("weights: %v", err)
	}
	if math.Abs(w.FatigueConsecWeight-0.41) > 1e-9 {
		t.Errorf("stored consec weight = %.3f, want 0.41", w.FatigueConsecWeight)
	}
}

func TestDeleteUserCascades(t *testing.T) {
	users, profiles, schedules, feedback := setupDB(t)
	ctx := context.Background()
	userID := createUser(t, users, "gone@example.com")

	p := model.DefaultProfile()
	if err := profiles.Upsert(ctx, userID, &p); err != nil {
		t.Fatalf("upsert profile: %v", err)
	}
	s := model.Schedule{ID: uuid.NewString(), UserID: userID, Data: []byte(`{}`), CreatedAt: time.Now().UTC()}
	if err := schedules.Create(ctx, &s); err != nil {
		t.Fatalf("create schedule: %v", err)
	}
	entry := model.TLXEntry{UserID: userID, MentalDemand: 4, Effort: 4, CreatedAt: time.Now().UTC()}
	noop := func(total int, recent []model.TLXEntry, w model.FatigueWeights) (model.FatigueWeights, bool) {
		return w, false
	}
	if _, _, err := feedback.Submit(ctx, &entry, model.FatigueWeights{}, noop); err != nil {
		t.Fatalf("submit feedback: %v", err)
	}

	if err := users.Delete(ctx, userID); err != nil {
		t.Fatalf("delete user: %v", err)
	}

	if _, err := profiles.Get(ctx, userID); err != repository.ErrNotFound {
		t.Errorf("profile survived user deletion: %v", err)
	}
	if _, err := schedules.Latest(ctx, userID); err != repository.ErrNotFound {
		t.Errorf("schedule survived user deletion: %v", err)
	}
	if err := users.Delete(ctx, userID); err != repository.ErrNotFound {
		t.Errorf("second delete: got %v, want ErrNotFound", err)
	}
}
