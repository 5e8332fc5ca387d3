package services

import "errors"

// Sentinel errors returned by the engines. Controllers map these to HTTP
// statuses; everything else is treated as a store failure.
var (
	// ErrNotFound: a referenced question, config, attempt or progress row
	// does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrConflict: a unique-constraint conflict that survived the single
	// recompute-and-retry. Fatal to the operation.
	ErrConflict = errors.New("conflict not resolvable after retry")

	// Gating / validation rejections. User-actionable, never retried.
	ErrNoQuestions        = errors.New("no questions available")
	ErrNotEnoughOptions   = errors.New("not enough answerable questions")
	ErrMaxAttemptsReached = errors.New("maximum attempts reached")
	ErrDayLocked          = errors.New("day is not yet unlocked")
	ErrSessionCompleted   = errors.New("session is already completed")
	ErrAttemptFinalized   = errors.New("attempt is already finalized")
	ErrAttemptInFlight    = errors.New("an attempt is already in progress")
	ErrQuestionLimit      = errors.New("all questions have already been answered")
	ErrAlreadyAnswered    = errors.New("question has already been answered")
	ErrCooldownActive     = errors.New("retake cooldown has not elapsed")
	ErrNotEnrolled        = errors.New("user is not enrolled in this course")
)
