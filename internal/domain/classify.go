package domain

import "strings"

// ClassifyWorkout derives the display type from a workout name. Keywords are
// matched case-insensitively in priority order: rest, cardio, stretch/flex,
// and anything else is strength. "Cardio Stretch" is therefore cardio.
func ClassifyWorkout(name string) WorkoutType {
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "rest"):
		return TypeRest
	case strings.Contains(n, "cardio"):
		return TypeCardio
	case strings.Contains(n, "stretch"), strings.Contains(n, "flex"):
		return TypeFlexibility
	default:
		return TypeStrength
	}
}
