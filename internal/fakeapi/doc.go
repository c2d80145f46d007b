// Package fakeapi is an in-memory implementation of the remote storefront
// API: login plus a per-user cart. It backs the demo command and the
// integration tests.
//
// Passwords are stored as bcrypt hashes and credentials are HS256 JWTs with
// an exp claim. FailNext injects a failure into the next call of a route;
// status 0 drops the connection.
package fakeapi
