package domain

import "errors"

// Sentinel errors used across layers.
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidConfig = errors.New("invalid nap configuration")
	ErrInvalidName   = errors.New("invalid display name")
	ErrEmptyIdentity = errors.New("identity must not be empty")
	ErrInvalidLevels = errors.New("invalid level table")
	ErrSessionActive = errors.New("a nap is already running")
	ErrAlarmPending  = errors.New("alarm is waiting to be acknowledged")
)
