package config

import "errors"

var (
	// ErrParsingConfig is returned when environment variables cannot be parsed into the config struct
	ErrParsingConfig = errors.New("config.parse_failed")

	// ErrNilPointer is returned when a nil pointer is provided to Load
	ErrNilPointer = errors.New("config.nil_pointer")

	// ErrInvalidStorage is returned when STOREFRONT_STORAGE names an unknown backend
	ErrInvalidStorage = errors.New("config.invalid_storage_backend")
)
