package midi

import "errors"

var (
	// ErrNoDriver is returned when the binary was built without a MIDI
	// driver or the driver failed to initialize.
	ErrNoDriver = errors.New("no MIDI driver available")

	// ErrPortNotFound is returned when no input port matches the requested
	// name prefix.
	ErrPortNotFound = errors.New("MIDI input port not found")
)
