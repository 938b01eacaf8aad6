package models

import "errors"

// Errors shared by every store backend so callers can match them with
// errors.Is regardless of which backend is configured.
var (
	ErrNotFound      = errors.New("not found")
	ErrSessionClosed = errors.New("session already finished")

	// ErrForeignExercise rejects a load for an exercise of another workout.
	ErrForeignExercise = errors.New("exercise does not belong to workout")
)
