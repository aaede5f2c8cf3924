package services

import (
	"errors"
	"fmt"
)

var (
	ErrNotAuthenticated    = errors.New("not authenticated")
	ErrChallengeNotFound   = errors.New("challenge not found")
	ErrAlreadyJoined       = errors.New("already joined")
	ErrActiveLimitExceeded = errors.New("active challenge limit exceeded")
	ErrNotJoined           = errors.New("not joined")
	ErrSourceUnavailable   = errors.New("external source unavailable")
	ErrNothingToSync       = errors.New("nothing to sync")
	ErrInvalidDelta        = errors.New("invalid progress delta")
	ErrUnknownProvider     = errors.New("unknown provider")
)

// SourceError is a failed read from one measurement source. It matches
// ErrSourceUnavailable and unwraps to the underlying cause.
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s unavailable: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

func (e *SourceError) Is(target error) bool {
	return target == ErrSourceUnavailable
}

// Result is what callers show to the user: a success flag and a message.
type Result struct {
	Success bool
	Message string
}

func OK(message string) Result {
	return Result{Success: true, Message: message}
}

// ResultFromError maps err to a user-facing Result. Unknown errors become a
// generic failure so storage details never reach the chat.
func ResultFromError(err error) Result {
	if err == nil {
		return OK("Done")
	}

	switch {
	case errors.Is(err, ErrNotAuthenticated):
		return Result{Message: "Please log in first with /start"}
	case errors.Is(err, ErrChallengeNotFound):
		return Result{Message: "Challenge not found"}
	case errors.Is(err, ErrAlreadyJoined):
		return Result{Message: "You have already joined this challenge"}
	case errors.Is(err, ErrActiveLimitExceeded):
		return Result{Message: fmt.Sprintf("You can have at most %d active challenges", MaxActiveChallenges)}
	case errors.Is(err, ErrNotJoined):
		return Result{Message: "You are not participating in this challenge"}
	case errors.Is(err, ErrNothingToSync):
		return Result{Message: "Nothing to sync"}
	case errors.Is(err, ErrInvalidDelta):
		return Result{Message: "Progress values must be non-negative numbers"}
	case errors.Is(err, ErrUnknownProvider):
		return Result{Message: "Unknown provider, use strava or fitbit"}
	case errors.Is(err, ErrSourceUnavailable):
		return Result{Message: "Fitness data source is unavailable, try again later"}
	default:
		return Result{Message: "Something went wrong, try again later"}
	}
}
