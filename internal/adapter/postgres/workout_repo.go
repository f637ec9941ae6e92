package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"fittrack/internal/domain"
)

const workoutColumns = "id, user_id, name, description, date, created_at, updated_at"

const exerciseColumns = "id, workout_id, name, sets, reps, duration_minutes, weight_kg, notes, order_position"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkout(row rowScanner) (domain.Workout, error) {
	var w domain.Workout
	err := row.Scan(&w.ID, &w.UserID, &w.Name, &w.Description, &w.Date, &w.CreatedAt, &w.UpdatedAt)
	w.Date = w.Date.UTC()
	return w, err
}

func scanExercise(row rowScanner) (string, domain.Exercise, error) {
	var (
		workoutID string
		ex        domain.Exercise
	)
	err := row.Scan(&ex.ID, &workoutID, &ex.Name, &ex.Sets, &ex.Reps, &ex.DurationMinutes, &ex.WeightKg, &ex.Notes, &ex.Position)
	return workoutID, ex, err
}

// ListWorkouts returns all of the user's workouts ordered by date.
func (d *DB) ListWorkouts(ctx context.Context, userID int64) ([]domain.Workout, error) {
	return d.queryWorkouts(ctx,
		"SELECT "+workoutColumns+" FROM workouts WHERE user_id = $1 ORDER BY date, created_at;",
		userID)
}

// ListWorkoutsByDay returns the user's workouts dated inside day.
func (d *DB) ListWorkoutsByDay(ctx context.Context, userID int64, day domain.DayRange) ([]domain.Workout, error) {
	return d.queryWorkouts(ctx,
		"SELECT "+workoutColumns+" FROM workouts WHERE user_id = $1 AND date >= $2 AND date < $3 ORDER BY date, created_at;",
		userID, day.Start.UTC(), day.End.UTC())
}

// GetWorkout returns one workout with its exercises, or nil if it does not
// exist for the user.
func (d *DB) GetWorkout(ctx context.Context, userID int64, id string) (*domain.Workout, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	ws, err := d.queryWorkouts(ctx,
		"SELECT "+workoutColumns+" FROM workouts WHERE user_id = $1 AND id = $2;",
		userID, id)
	if err != nil || len(ws) == 0 {
		return nil, err
	}
	return &ws[0], nil
}

func (d *DB) queryWorkouts(ctx context.Context, query string, args ...any) ([]domain.Workout, error) {
	rows, err := d.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Workout, 0)
	index := make(map[string]int)
	for rows.Next() {
		w, err := scanWorkout(rows)
		if err != nil {
			return nil, err
		}
		w.Exercises = []domain.Exercise{}
		index[w.ID] = len(out)
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	ids := make([]string, len(out))
	for i, w := range out {
		ids[i] = w.ID
	}
	exRows, err := d.sql.QueryContext(ctx,
		"SELECT "+exerciseColumns+" FROM workout_exercises WHERE workout_id = ANY($1::uuid[]) ORDER BY workout_id, order_position;",
		pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer exRows.Close()

	for exRows.Next() {
		workoutID, ex, err := scanExercise(exRows)
		if err != nil {
			return nil, err
		}
		if i, ok := index[workoutID]; ok {
			out[i].Exercises = append(out[i].Exercises, ex)
		}
	}
	return out, exRows.Err()
}

// CreateWorkout inserts the workout and its exercises in one transaction.
func (d *DB) CreateWorkout(ctx context.Context, userID int64, draft domain.WorkoutDraft) (*domain.Workout, error) {
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	w, err := scanWorkout(tx.QueryRowContext(ctx,
		"INSERT INTO workouts(id, user_id, name, description, date, created_at, updated_at) VALUES($1, $2, $3, $4, $5, $6, $6) RETURNING "+workoutColumns+";",
		uuid.NewString(), userID, draft.Name, draft.Description, draft.Date.UTC(), now,
	))
	if err != nil {
		return nil, fmt.Errorf("insert workout: %w", err)
	}

	w.Exercises = make([]domain.Exercise, 0, len(draft.Exercises))
	for i, ex := range draft.Exercises {
		_, created, err := scanExercise(tx.QueryRowContext(ctx,
			"INSERT INTO workout_exercises(id, workout_id, name, sets, reps, duration_minutes, weight_kg, notes, order_position) VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING "+exerciseColumns+";",
			uuid.NewString(), w.ID, ex.Name, ex.Sets, ex.Reps, ex.DurationMinutes, ex.Weight, ex.Notes, i,
		))
		if err != nil {
			return nil, fmt.Errorf("insert exercise %d: %w", i, err)
		}
		w.Exercises = append(w.Exercises, created)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &w, nil
}

// DeleteWorkout removes a workout; its exercises go with it.
func (d *DB) DeleteWorkout(ctx context.Context, userID int64, id string) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, nil
	}
	res, err := d.sql.ExecContext(ctx, "DELETE FROM workouts WHERE id = $1 AND user_id = $2;", id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// UpdateExercise applies the non-nil fields of patch and returns the stored
// exercise, or nil if it does not belong to the user's workout.
func (d *DB) UpdateExercise(ctx context.Context, userID int64, workoutID, exerciseID string, patch domain.ExercisePatch) (*domain.Exercise, error) {
	if !validIDs(workoutID, exerciseID) {
		return nil, nil
	}
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	_, ex, err := scanExercise(tx.QueryRowContext(ctx,
		`UPDATE workout_exercises e SET
			sets = COALESCE($1, e.sets),
			reps = COALESCE($2, e.reps),
			duration_minutes = COALESCE($3, e.duration_minutes),
			weight_kg = COALESCE($4, e.weight_kg)
		FROM workouts w
		WHERE e.id = $5 AND e.workout_id = $6 AND w.id = e.workout_id AND w.user_id = $7
		RETURNING e.id, e.workout_id, e.name, e.sets, e.reps, e.duration_minutes, e.weight_kg, e.notes, e.order_position;`,
		patch.Sets, patch.Reps, patch.DurationMinutes, patch.Weight, exerciseID, workoutID, userID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, "UPDATE workouts SET updated_at = $1 WHERE id = $2;", time.Now().UTC(), workoutID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &ex, nil
}

// DeleteExercise removes one exercise from the user's workout.
func (d *DB) DeleteExercise(ctx context.Context, userID int64, workoutID, exerciseID string) (bool, error) {
	if !validIDs(workoutID, exerciseID) {
		return false, nil
	}
	res, err := d.sql.ExecContext(ctx,
		"DELETE FROM workout_exercises e USING workouts w WHERE e.id = $1 AND e.workout_id = $2 AND w.id = e.workout_id AND w.user_id = $3;",
		exerciseID, workoutID, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// validIDs reports whether every id parses as a UUID. Anything else cannot
// match a row and would only make Postgres reject the cast.
func validIDs(ids ...string) bool {
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return false
		}
	}
	return true
}
