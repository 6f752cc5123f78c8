package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Domain errors, mapped to HTTP statuses at the server boundary
	ErrBadRequest = fmt.Errorf("bad request")
	ErrNotFound   = fmt.Errorf("not found")
	ErrConflict   = fmt.Errorf("already exists")
	ErrForbidden  = fmt.Errorf("forbidden")
	ErrFetch      = fmt.Errorf("feed fetch failed")

	ErrPlaylistNotFound = fmt.Errorf("playlist %w", ErrNotFound)
	ErrSessionNotFound  = fmt.Errorf("session %w", ErrNotFound)
	ErrPlaylistExists   = fmt.Errorf("playlist %w", ErrConflict)
	ErrDefaultProtected = fmt.Errorf("%w: the default playlist cannot be deleted", ErrForbidden)
	ErrMissingName      = fmt.Errorf("%w: playlist name is required", ErrBadRequest)
	ErrMissingFeedURL   = fmt.Errorf("%w: feed URL is required", ErrBadRequest)

	// Store errors
	ErrUniqueViolation = fmt.Errorf("unique constraint violation")

	// Input validation errors (CLI)
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
