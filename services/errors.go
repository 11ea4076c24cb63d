package services

import "errors"

// Business errors surfaced to controllers. Messages are part of the API
// surface and kept stable; controllers map them onto envelope codes.
var (
	ErrNoActiveChallenge     = errors.New("no active challenge assigned")
	ErrAlreadyCompleted      = errors.New("challenge already completed")
	ErrAlreadySkipped        = errors.New("challenge already skipped")
	ErrNoteEditWindowExpired = errors.New("note edit window expired")
	ErrNoChallengesAvailable = errors.New("no challenges available")

	ErrEmptyNote   = errors.New("note must not be empty")
	ErrNoteTooLong = errors.New("note too long")

	ErrEmptyWin    = errors.New("win text must not be empty")
	ErrWinTooLong  = errors.New("win text too long")
	ErrWinNotFound = errors.New("win not found")
	ErrRateLimited = errors.New("rate limit exceeded, please wait a minute")

	ErrEmptyEntry    = errors.New("journal entry must not be empty")
	ErrEntryTooLong  = errors.New("journal entry too long")
	ErrEntryNotFound = errors.New("journal entry not found")

	ErrInvalidEmail       = errors.New("invalid email format")
	ErrWeakPassword       = errors.New("password must be at least 8 characters long")
	ErrEmailTaken         = errors.New("email already registered")
	ErrEmailAlreadyLinked = errors.New("user already has an email registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
)
