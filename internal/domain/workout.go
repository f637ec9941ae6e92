package domain

import (
	"context"
	"time"
)

// WorkoutType is the display category of a workout. It is derived from the
// workout name by ClassifyWorkout and never stored.
type WorkoutType string

const (
	TypeStrength    WorkoutType = "strength"
	TypeCardio      WorkoutType = "cardio"
	TypeFlexibility WorkoutType = "flexibility"
	TypeRest        WorkoutType = "rest"
)

// Exercise is a single movement within a workout.
type Exercise struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Sets            *int     `json:"sets,omitempty"`
	Reps            *int     `json:"reps,omitempty"`
	DurationMinutes *float64 `json:"durationMinutes,omitempty"`
	WeightKg        *float64 `json:"weightKg,omitempty"`
	Notes           string   `json:"notes,omitempty"`
	Position        int      `json:"position"`
	Completed       bool     `json:"completed"`
}

// Workout is a scheduled or performed training session. Exercises are kept in
// Position order.
type Workout struct {
	ID          string      `json:"id"`
	UserID      int64       `json:"userId"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Type        WorkoutType `json:"type"`
	Exercises   []Exercise  `json:"exercises"`
	Completed   bool        `json:"completed"`
	Date        time.Time   `json:"date"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// Clone returns a deep copy of w, so callers can hand workouts out without
// sharing the exercise slice.
func (w Workout) Clone() Workout {
	out := w
	if w.Exercises != nil {
		out.Exercises = make([]Exercise, len(w.Exercises))
		copy(out.Exercises, w.Exercises)
	}
	return out
}

// ExerciseDraft is user input for a new exercise.
type ExerciseDraft struct {
	Name            string   `json:"name"`
	Sets            *int     `json:"sets,omitempty"`
	Reps            *int     `json:"reps,omitempty"`
	DurationMinutes *float64 `json:"durationMinutes,omitempty"`
	Weight          *float64 `json:"weight,omitempty"`
	WeightUnit      string   `json:"weightUnit,omitempty"`
	Notes           string   `json:"notes,omitempty"`
}

// WorkoutDraft is user-supplied, not yet persisted workout data.
type WorkoutDraft struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Date        time.Time       `json:"date"`
	Exercises   []ExerciseDraft `json:"exercises"`
}

// ExercisePatch edits the numeric fields of an exercise. Nil fields are left
// untouched.
type ExercisePatch struct {
	Sets            *int     `json:"sets,omitempty"`
	Reps            *int     `json:"reps,omitempty"`
	DurationMinutes *float64 `json:"durationMinutes,omitempty"`
	Weight          *float64 `json:"weight,omitempty"`
	WeightUnit      string   `json:"weightUnit,omitempty"`
}

// LocalChange reports a mutation that was applied to the session's in-memory
// collection only. Durable is always false: completion flags have no backing
// column and are lost when the collection is reloaded.
type LocalChange struct {
	WorkoutID  string `json:"workoutId"`
	ExerciseID string `json:"exerciseId,omitempty"`
	Completed  bool   `json:"completed"`
	Durable    bool   `json:"durable"`
}

// DayRange is the half-open instant range [Start, End) covering one calendar
// day.
type DayRange struct {
	Day   string
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the range.
func (r DayRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// WorkoutRepository is the port for workout persistence. Lookups that miss
// return nil (or false) with a nil error; an empty list is a valid result.
type WorkoutRepository interface {
	ListWorkouts(ctx context.Context, userID int64) ([]Workout, error)
	GetWorkout(ctx context.Context, userID int64, id string) (*Workout, error)
	ListWorkoutsByDay(ctx context.Context, userID int64, day DayRange) ([]Workout, error)
	CreateWorkout(ctx context.Context, userID int64, draft WorkoutDraft) (*Workout, error)
	DeleteWorkout(ctx context.Context, userID int64, id string) (bool, error)
	UpdateExercise(ctx context.Context, userID int64, workoutID, exerciseID string, patch ExercisePatch) (*Exercise, error)
	DeleteExercise(ctx context.Context, userID int64, workoutID, exerciseID string) (bool, error)
}

// WorkoutCache is a best-effort, per-user copy of the last successfully
// fetched collection. It is a hint for warm starts, never a source of truth.
type WorkoutCache interface {
	Get(ctx context.Context, userID int64) ([]Workout, bool, error)
	Put(ctx context.Context, userID int64, workouts []Workout) error
	Invalidate(ctx context.Context, userID int64) error
}
