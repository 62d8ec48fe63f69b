package engine

import "errors"

var (
	// ErrInvalidWindow covers malformed HH:MM values and windows where
	// available_from >= available_to.
	ErrInvalidWindow = errors.New("invalid scheduling window")

	// ErrNoFreeTime means commitments and preferred breaks fully cover
	// the window.
	ErrNoFreeTime = errors.New("no free time available")

	// ErrCancelled is returned on cooperative cancellation; no partial
	// plan accompanies it.
	ErrCancelled = errors.New("scheduling cancelled")

	// ErrUnknownConfigKey rejects config updates for keys outside the
	// tunable set.
	ErrUnknownConfigKey = errors.New("unknown config key")

	// ErrMalformedTask covers negative durations and out-of-range
	// difficulty or load.
	ErrMalformedTask = errors.New("malformed task")
)
