// Package errors pkg/zap/errors.go provides errors for the zap package.

package zap

import "errors"

var (
	// ErrTransport indicates a network or connection level failure. Callers
	// may retry or fall back to polling.
	ErrTransport = errors.New("transport failure")

	// ErrUnauthorized indicates the bearer credential was rejected. The call
	// is never retried internally; the session layer decides what to do.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrBadTarget indicates the backend rejected the target URL before any
	// scan was created.
	ErrBadTarget = errors.New("target rejected by scanner")

	errMissingScanID = errors.New("start response carried no scan id")
)
