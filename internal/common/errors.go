// Package common holds sentinel errors shared across the service layers.
// Handlers map these to HTTP status codes and {ok:false, error} bodies.
package common

import "errors"

var (
	ErrInvalidCredentials    = errors.New("invalid username or password")
	ErrDuplicateUsername     = errors.New("username already exists")
	ErrQuotaExceeded         = errors.New("registration limit reached for this address")
	ErrUnauthenticated       = errors.New("not logged in")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	ErrUnsupportedType       = errors.New("only archive files are allowed (.zip, .rar, .apk)")
	ErrInvalidName           = errors.New("invalid file name")
	ErrNotFound              = errors.New("not found")
)
