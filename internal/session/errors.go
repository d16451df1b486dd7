package session

import "errors"

// Custom session errors
var (
	// ErrSessionNotFound indicates the requested playback session does not exist
	ErrSessionNotFound = errors.New("playback session not found")

	// ErrManagerStopped indicates the session manager has been stopped
	ErrManagerStopped = errors.New("session manager has been stopped")

	// ErrUnknownAction indicates an unrecognized control action
	ErrUnknownAction = errors.New("unknown control action")
)
