package config

import "errors"

var (
	// ErrParsingConfig is returned when environment variables cannot be parsed
	// into the provided struct.
	ErrParsingConfig = errors.New("config.errors.failed_to_parse_environment")

	// ErrConfigNotLoaded is returned when a cached config cannot be retrieved
	// after a load attempt.
	ErrConfigNotLoaded = errors.New("config.errors.not_loaded")

	// ErrNilPointer is returned when a nil pointer is passed to Load.
	ErrNilPointer = errors.New("config.errors.nil_pointer")
)
