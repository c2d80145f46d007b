package httpserver

import "errors"

var (
	// ErrStart is returned by Run when the listener cannot be opened or the
	// server stops with an error.
	ErrStart = errors.New("httpserver.start_failed")

	// ErrShutdown is returned when graceful shutdown misses its deadline.
	ErrShutdown = errors.New("httpserver.shutdown_failed")

	// ErrAlreadyRunning is returned by a second Run call.
	ErrAlreadyRunning = errors.New("httpserver.already_running")
)
