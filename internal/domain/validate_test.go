package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fittrack/internal/domain"
)

func intp(v int) *int           { return &v }
func floatp(v float64) *float64 { return &v }

func validDraft() domain.WorkoutDraft {
	return domain.WorkoutDraft{
		Name: "  Leg Day ",
		Date: time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC),
		Exercises: []domain.ExerciseDraft{
			{Name: "Squats", Sets: intp(4), Reps: intp(10), Weight: floatp(80)},
		},
	}
}

func TestWorkoutDraftNormalize_FirstFailure(t *testing.T) {
	tests := []struct {
		name  string
		draft domain.WorkoutDraft
		field string
	}{
		{"everything missing", domain.WorkoutDraft{}, "name"},
		{"blank name", domain.WorkoutDraft{Name: "   "}, "name"},
		{"no exercises", domain.WorkoutDraft{Name: "Legs"}, "exercises"},
		{"no date", domain.WorkoutDraft{Name: "Legs", Exercises: []domain.ExerciseDraft{{Name: "Squat"}}}, "date"},
		{"blank exercise", func() domain.WorkoutDraft {
			d := validDraft()
			d.Exercises = append(d.Exercises, domain.ExerciseDraft{Name: " "})
			return d
		}(), "exercises[1].name"},
		{"zero sets", func() domain.WorkoutDraft {
			d := validDraft()
			d.Exercises[0].Sets = intp(0)
			return d
		}(), "exercises[0].sets"},
		{"negative weight", func() domain.WorkoutDraft {
			d := validDraft()
			d.Exercises[0].Weight = floatp(-1)
			return d
		}(), "exercises[0].weight"},
		{"bad unit", func() domain.WorkoutDraft {
			d := validDraft()
			d.Exercises[0].WeightUnit = "stones"
			return d
		}(), "exercises[0].weightUnit"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.draft.Normalize()
			var verr *domain.ValidationError
			require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestWorkoutDraftNormalize_ConvertsPounds(t *testing.T) {
	d := validDraft()
	d.Exercises[0].Weight = floatp(220.46226218)
	d.Exercises[0].WeightUnit = "lb"

	got, err := d.Normalize()
	require.NoError(t, err)
	assert.Equal(t, "Leg Day", got.Name)
	assert.InDelta(t, 100.0, *got.Exercises[0].Weight, 0.001)
	assert.Equal(t, "kg", got.Exercises[0].WeightUnit)
	assert.InDelta(t, 220.46226218, *d.Exercises[0].Weight, 0.001, "input draft must not be mutated")
}

func TestExercisePatch(t *testing.T) {
	_, err := domain.ExercisePatch{}.Normalize()
	assert.Error(t, err)

	_, err = domain.ExercisePatch{Reps: intp(-2)}.Normalize()
	assert.Error(t, err)

	p, err := domain.ExercisePatch{Sets: intp(5), Weight: floatp(10), WeightUnit: "lb"}.Normalize()
	require.NoError(t, err)

	ex := domain.Exercise{ID: "e1", Reps: intp(8)}
	p.Apply(&ex)
	assert.Equal(t, 5, *ex.Sets)
	assert.Equal(t, 8, *ex.Reps)
	assert.InDelta(t, 4.5359, *ex.WeightKg, 0.001)
}
