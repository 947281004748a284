package domain

import "errors"

// Domain errors
var (
	ErrPlayerNotFound   = errors.New("player not found")
	ErrGameNotFound     = errors.New("game not found")
	ErrInvalidPlayer    = errors.New("invalid player")
	ErrDuplicateNumber  = errors.New("jersey number already taken")
	ErrRosterFull       = errors.New("roster is full")
	ErrPlayerReferenced = errors.New("player is referenced by recorded events")
	ErrInvalidGame      = errors.New("invalid game configuration")
	ErrGameNotLive      = errors.New("game is not in progress")
	ErrInvalidEvent     = errors.New("invalid game event")
	ErrInvalidBackup    = errors.New("invalid backup document")
	ErrCacheMiss        = errors.New("report not cached")
	ErrRateLimited      = errors.New("rate limit exceeded")
	ErrInvalidRequest   = errors.New("invalid request")
	ErrInternalError    = errors.New("internal server error")
)

// IsNotFoundError checks if an error is a not-found type error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrPlayerNotFound) || errors.Is(err, ErrGameNotFound)
}

// IsValidationError checks if an error was caused by bad client input
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidPlayer) ||
		errors.Is(err, ErrDuplicateNumber) ||
		errors.Is(err, ErrRosterFull) ||
		errors.Is(err, ErrInvalidGame) ||
		errors.Is(err, ErrInvalidEvent) ||
		errors.Is(err, ErrInvalidBackup) ||
		errors.Is(err, ErrInvalidRequest)
}
