package model

import "errors"

var (
	// ErrInvalidAPIKey indicates that no project is registered for the API key.
	ErrInvalidAPIKey = errors.New("invalid api key")
	// ErrProjectNotFound indicates that the project does not exist or is not owned by the caller.
	ErrProjectNotFound = errors.New("project not found")
)
