package domain

import "errors"

// Error taxonomy shared by every layer. Callers match with errors.Is;
// producers wrap these with detail using %w.
var (
	// ErrMalformedMessage marks bytes that are not a decodable DNS query.
	// The listener drops such datagrams and keeps running.
	ErrMalformedMessage = errors.New("malformed DNS message")

	// ErrBind marks a failure to open or bind the listener socket.
	ErrBind = errors.New("failed to bind DNS listener")

	// ErrInvalidTransition is returned for Start while running or Stop while stopped.
	ErrInvalidTransition = errors.New("invalid service state transition")

	// ErrStore marks a lookup or persistence failure in a record store backend.
	ErrStore = errors.New("record store failure")

	// ErrConflict is returned when inserting a hostname that already exists.
	ErrConflict = errors.New("hostname already registered")

	// ErrNotFound is returned when deleting a record id that does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidRecord wraps record validation failures.
	ErrInvalidRecord = errors.New("invalid record")
)
