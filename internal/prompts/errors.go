package prompts

import "errors"

var (
	// ErrNotLoggedIn is returned before any store access is attempted.
	ErrNotLoggedIn = errors.New("you must be logged in")

	// ErrNotFound covers both a missing prompt and one the viewer does not
	// own: the write filter is id AND owner, so the two cannot diverge.
	ErrNotFound = errors.New("prompt not found or not yours")

	ErrInvalidVote = errors.New("vote value must be +1 or -1")
)

// ValidationError flags input rejected before any store call.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }
