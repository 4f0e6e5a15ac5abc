package apikeys

import "errors"

var (
	// ErrUnauthorized is returned when a key is unknown or malformed.
	ErrUnauthorized = errors.New("unknown or malformed API key")

	// ErrInactiveKey is returned when a key exists but has been
	// deactivated. Distinct from ErrUnauthorized so callers can tell
	// "key known but disabled" from "key unknown".
	ErrInactiveKey = errors.New("API key is inactive")

	// ErrUsernameExists is returned when creating a key for a username that
	// already owns one.
	ErrUsernameExists = errors.New("username already has an API key")

	// ErrKeyNotFound is returned when no key matches the given username.
	ErrKeyNotFound = errors.New("no API key found for username")
)
