// Package errs holds sentinel errors shared across packages.
package errs

import "errors"

var (
	// ErrTransport marks a poll that failed before a payload arrived (timeout, network, non-2xx).
	ErrTransport = errors.New("status endpoint unreachable")
	// ErrOffline marks a structured failure payload returned by the status proxy.
	ErrOffline = errors.New("status endpoint reported offline")
	// ErrMalformedStatus marks a payload with fewer fields than the status format has.
	ErrMalformedStatus = errors.New("invalid status format")
	// ErrInvalidCounter marks a requests counter that is not a non-negative integer.
	ErrInvalidCounter = errors.New("invalid requests counter")
	// ErrNoSnapshot is returned by stores before the first snapshot is published.
	ErrNoSnapshot = errors.New("no snapshot published yet")
)
