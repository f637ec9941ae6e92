package memory

import (
	"context"
	"testing"
	"time"

	"fittrack/internal/domain"
)

func intp(v int) *int { return &v }

func draft(name string, date time.Time, exercises ...string) domain.WorkoutDraft {
	d := domain.WorkoutDraft{Name: name, Date: date}
	for _, ex := range exercises {
		d.Exercises = append(d.Exercises, domain.ExerciseDraft{Name: ex, Sets: intp(3)})
	}
	return d
}

func TestWorkoutRepository(t *testing.T) {
	db := New()
	ctx := context.Background()
	userID := int64(1)
	day := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	w, err := db.CreateWorkout(ctx, userID, draft("Upper Body", day.Add(18*time.Hour), "Bench", "Rows", "Press"))
	if err != nil {
		t.Fatalf("CreateWorkout: %v", err)
	}
	if w.ID == "" {
		t.Error("expected generated ID")
	}
	if len(w.Exercises) != 3 || w.Exercises[2].Name != "Press" || w.Exercises[2].Position != 2 {
		t.Errorf("exercises not kept in order: %+v", w.Exercises)
	}
	_, _ = db.CreateWorkout(ctx, userID, draft("Early Run", day.Add(6*time.Hour), "Run"))
	_, _ = db.CreateWorkout(ctx, userID, draft("Tomorrow", day.Add(30*time.Hour), "Row"))

	all, err := db.ListWorkouts(ctx, userID)
	if err != nil {
		t.Fatalf("ListWorkouts: %v", err)
	}
	if len(all) != 3 || all[0].Name != "Early Run" {
		t.Errorf("expected 3 workouts ordered by date, got %+v", all)
	}

	// Other user sees nothing
	other, _ := db.ListWorkouts(ctx, 999)
	if len(other) != 0 {
		t.Error("expected 0 workouts for other user")
	}
	if got, _ := db.GetWorkout(ctx, 999, w.ID); got != nil {
		t.Error("expected nil for other user's workout")
	}

	byDay, err := db.ListWorkoutsByDay(ctx, userID, domain.DayRange{Day: "2024-01-10", Start: day, End: day.AddDate(0, 0, 1)})
	if err != nil {
		t.Fatalf("ListWorkoutsByDay: %v", err)
	}
	if len(byDay) != 2 {
		t.Errorf("expected 2 workouts on 2024-01-10, got %d", len(byDay))
	}

	ex, err := db.UpdateExercise(ctx, userID, w.ID, w.Exercises[1].ID, domain.ExercisePatch{Reps: intp(12)})
	if err != nil {
		t.Fatalf("UpdateExercise: %v", err)
	}
	if ex == nil || *ex.Reps != 12 || *ex.Sets != 3 {
		t.Errorf("unexpected exercise after patch: %+v", ex)
	}

	ok, err := db.DeleteExercise(ctx, userID, w.ID, w.Exercises[0].ID)
	if err != nil || !ok {
		t.Fatalf("DeleteExercise: %v %v", ok, err)
	}
	got, _ := db.GetWorkout(ctx, userID, w.ID)
	if len(got.Exercises) != 2 || got.Exercises[0].Name != "Rows" {
		t.Errorf("unexpected exercises after delete: %+v", got.Exercises)
	}

	ok, _ = db.DeleteWorkout(ctx, 999, w.ID)
	if ok {
		t.Error("other user must not delete")
	}
	ok, _ = db.DeleteWorkout(ctx, userID, w.ID)
	if !ok {
		t.Error("expected delete to succeed")
	}
	if got, _ := db.GetWorkout(ctx, userID, w.ID); got != nil {
		t.Error("expected nil (deleted)")
	}
}

func TestWorkoutRepository_ReturnsCopies(t *testing.T) {
	db := New()
	ctx := context.Background()
	w, _ := db.CreateWorkout(ctx, 1, draft("Legs", time.Now(), "Squat"))

	w.Exercises[0].Name = "mutated"
	got, _ := db.GetWorkout(ctx, 1, w.ID)
	if got.Exercises[0].Name != "Squat" {
		t.Error("stored workout shares memory with caller")
	}
}

func TestProfileRepository(t *testing.T) {
	db := New()
	ctx := context.Background()

	p, err := db.GetProfile(ctx, 1)
	if err != nil || p != nil {
		t.Fatalf("expected no profile, got %v %v", p, err)
	}

	name := "sam"
	avatar := "https://example.com/a.png"
	p, err = db.UpsertProfile(ctx, 1, domain.ProfilePatch{Username: &name, AvatarURL: &avatar})
	if err != nil {
		t.Fatalf("UpsertProfile: %v", err)
	}
	if *p.Username != "sam" || *p.AvatarURL != avatar {
		t.Errorf("unexpected profile: %+v", p)
	}

	empty := ""
	p, _ = db.UpsertProfile(ctx, 1, domain.ProfilePatch{AvatarURL: &empty})
	if p.AvatarURL != nil || *p.Username != "sam" {
		t.Errorf("expected avatar cleared and username kept: %+v", p)
	}
}

func TestUserRepository(t *testing.T) {
	db := New()
	ctx := context.Background()

	u, err := db.Create(ctx, "bob", "hash")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.Username != "bob" {
		t.Errorf("expected bob, got %s", u.Username)
	}

	u2, err := db.GetByUsername(ctx, "bob")
	if err != nil {
		t.Fatalf("GetByUsername: %v", err)
	}
	if u2 == nil || u2.ID != u.ID {
		t.Error("failed to retrieve user")
	}

	if _, err := db.Create(ctx, "bob", "hash"); err == nil {
		t.Error("expected duplicate username error")
	}

	count, _ := db.Count(ctx)
	if count != 1 {
		t.Errorf("expected 1 user, got %d", count)
	}
}

func TestSessionRepository(t *testing.T) {
	db := New()
	repo := db.NewSessionRepo()
	ctx := context.Background()

	err := repo.Create(ctx, 1, "token123", "agent", "127.0.0.1", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	_ = repo.Create(ctx, 1, "old", "agent", "127.0.0.1", time.Now().Add(-time.Hour))

	sess, err := repo.GetByToken(ctx, "token123")
	if err != nil {
		t.Fatalf("GetByToken: %v", err)
	}
	if sess == nil || sess.UserAgent != "agent" {
		t.Errorf("unexpected session: %+v", sess)
	}

	if err := repo.DeleteExpired(ctx); err != nil {
		t.Fatalf("DeleteExpired: %v", err)
	}
	if s, _ := repo.GetByToken(ctx, "old"); s != nil {
		t.Error("expected expired session purged")
	}

	_ = repo.Delete(ctx, "token123")
	sess, _ = repo.GetByToken(ctx, "token123")
	if sess != nil {
		t.Error("expected nil (deleted)")
	}
}
