package session

import "errors"

var (
	// ErrInvalidCredentials is returned by Login when the remote API rejects
	// the email/password pair. It wraps the underlying apiclient.Failure.
	ErrInvalidCredentials = errors.New("session.invalid_credentials")

	// ErrMalformedLogin indicates a login response without a token or user.
	ErrMalformedLogin = errors.New("session.malformed_login")

	// ErrPersist indicates the session could not be written to durable storage.
	ErrPersist = errors.New("session.persist_failed")

	// ErrNilDependency is raised by New for a missing collaborator.
	ErrNilDependency = errors.New("session.nil_dependency")
)
