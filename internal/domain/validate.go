package domain

import (
	"fmt"
	"strings"
)

// Normalize validates a draft and returns a copy with trimmed names and all
// weights expressed in kilograms. Preconditions are checked in order (name,
// exercises, date, then each exercise) and only the first failure is
// reported.
func (d WorkoutDraft) Normalize() (WorkoutDraft, error) {
	out := d
	out.Name = strings.TrimSpace(d.Name)
	out.Description = strings.TrimSpace(d.Description)
	if out.Name == "" {
		return d, invalid("name", "must not be empty")
	}
	if len(d.Exercises) == 0 {
		return d, invalid("exercises", "at least one exercise is required")
	}
	if d.Date.IsZero() {
		return d, invalid("date", "is required")
	}

	out.Exercises = make([]ExerciseDraft, len(d.Exercises))
	for i, ex := range d.Exercises {
		field := fmt.Sprintf("exercises[%d]", i)
		ex.Name = strings.TrimSpace(ex.Name)
		if ex.Name == "" {
			return d, invalid(field+".name", "must not be empty")
		}
		if err := checkNumbers(field, ex.Sets, ex.Reps, ex.DurationMinutes, ex.Weight, ex.WeightUnit); err != nil {
			return d, err
		}
		if ex.Weight != nil {
			kg := ConvertWeight(*ex.Weight, unitOrKg(ex.WeightUnit), "kg")
			ex.Weight = &kg
		}
		ex.WeightUnit = "kg"
		out.Exercises[i] = ex
	}
	return out, nil
}

// Normalize validates a patch and converts its weight to kilograms.
func (p ExercisePatch) Normalize() (ExercisePatch, error) {
	if p.Sets == nil && p.Reps == nil && p.DurationMinutes == nil && p.Weight == nil {
		return p, invalid("patch", "no fields to update")
	}
	if err := checkNumbers("exercise", p.Sets, p.Reps, p.DurationMinutes, p.Weight, p.WeightUnit); err != nil {
		return p, err
	}
	out := p
	if p.Weight != nil {
		kg := ConvertWeight(*p.Weight, unitOrKg(p.WeightUnit), "kg")
		out.Weight = &kg
	}
	out.WeightUnit = "kg"
	return out, nil
}

// Apply copies the patch's non-nil fields onto ex. The patch must already be
// normalized.
func (p ExercisePatch) Apply(ex *Exercise) {
	if p.Sets != nil {
		v := *p.Sets
		ex.Sets = &v
	}
	if p.Reps != nil {
		v := *p.Reps
		ex.Reps = &v
	}
	if p.DurationMinutes != nil {
		v := *p.DurationMinutes
		ex.DurationMinutes = &v
	}
	if p.Weight != nil {
		v := *p.Weight
		ex.WeightKg = &v
	}
}

func checkNumbers(field string, sets, reps *int, duration, weight *float64, unit string) error {
	if sets != nil && *sets <= 0 {
		return invalid(field+".sets", "must be > 0")
	}
	if reps != nil && *reps <= 0 {
		return invalid(field+".reps", "must be > 0")
	}
	if duration != nil && *duration < 0 {
		return invalid(field+".durationMinutes", "must be >= 0")
	}
	if weight != nil && *weight < 0 {
		return invalid(field+".weight", "must be >= 0")
	}
	if !ValidWeightUnit(unit) {
		return invalid(field+".weightUnit", "must be \"kg\" or \"lb\"")
	}
	return nil
}

func unitOrKg(unit string) string {
	if unit == "" {
		return "kg"
	}
	return unit
}
