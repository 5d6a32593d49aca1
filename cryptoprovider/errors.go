// Copyright (C) 2026 nerites-labs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package cryptoprovider

import "errors"

// StatusKind is this package's error taxonomy. Operations that need to
// distinguish caller-contract violations from library-level crypto
// failures return one of these alongside a wrapped Go error.
type StatusKind int

const (
	// StatusOK indicates success. Functions that succeed return a nil
	// error; StatusOK exists for callers that want to log a uniform
	// status alongside the (nil) error.
	StatusOK StatusKind = iota
	// StatusInvalidParameters is a caller contract violation: null,
	// length mismatch, or unknown policy URI.
	StatusInvalidParameters
	// StatusNOK is a crypto primitive failure at library level: bad
	// signature, parse error, keygen error.
	StatusNOK
	// StatusOutOfMemory indicates an allocation failed.
	StatusOutOfMemory
	// StatusNotSupported indicates the operation requires a build feature
	// absent at runtime.
	StatusNotSupported
	// StatusTimeout indicates an awaited event did not arrive in time.
	StatusTimeout
)

func (s StatusKind) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusInvalidParameters:
		return "InvalidParameters"
	case StatusNOK:
		return "NOK"
	case StatusOutOfMemory:
		return "OutOfMemory"
	case StatusNotSupported:
		return "NotSupported"
	case StatusTimeout:
		return "Timeout"
	default:
		return "Unknown"
	}
}

// StatusError pairs a StatusKind with the underlying cause so callers that
// only care about the taxonomy can type-switch, while callers that want
// detail still get a normal wrapped error via Unwrap/Error.
type StatusError struct {
	Kind  StatusKind
	Cause error
}

func (e *StatusError) Error() string {
	if e.Cause == nil {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Cause.Error()
}

func (e *StatusError) Unwrap() error { return e.Cause }

// newStatus wraps err with kind. A nil err with a non-OK kind still
// produces a usable error describing the kind alone.
func newStatus(kind StatusKind, err error) error {
	return &StatusError{Kind: kind, Cause: err}
}

// Status extracts the StatusKind from err, defaulting to StatusNOK for any
// error that was not produced by this package.
func Status(err error) StatusKind {
	if err == nil {
		return StatusOK
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Kind
	}
	return StatusNOK
}

var (
	// ErrInvalidParameters is the sentinel cause used when no more
	// specific detail is available.
	ErrInvalidParameters = errors.New("cryptoprovider: invalid parameters")
	// ErrUnsupportedForPolicy marks a length/operation query that is
	// undefined for the receiver's policy (e.g. asymmetric lengths on
	// the PubSub policy).
	ErrUnsupportedForPolicy = errors.New("cryptoprovider: operation undefined for this policy")
)
