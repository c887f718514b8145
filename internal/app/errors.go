package app

import "errors"

// Sentinel errors for navigation
var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrInvalidScreen    = errors.New("transition not allowed from the current screen")
)
