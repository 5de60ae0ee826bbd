package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrMalformedLabel  = errors.New("malformed token label")
	ErrNoSignal        = errors.New("no sentiment signal")
	ErrCycleRunning    = errors.New("cycle already in progress")
	ErrLockHeld        = errors.New("lock already held")
	ErrExternalService = errors.New("external service failure")
)
