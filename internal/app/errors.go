package app

import "errors"

// Sentinel kinds for scheduler errors.
var (
	ErrStopped    = errors.New("scheduler stopped")
	ErrNotStarted = errors.New("scheduler not started")
	ErrBusy       = errors.New("scheduler queue full")
	ErrAborted    = errors.New("session aborted")
	ErrLoad       = errors.New("load items failed")
)
