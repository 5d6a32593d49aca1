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

// Package secretbuf implements a fixed-length container for key material
// that wipes its storage on release and enforces that any exposed view
// cannot outlive the buffer.
package secretbuf

import (
	"errors"
	"io"
	"os"
	"sync"
)

// ErrReleased is returned by Expose/ExposeModify once the buffer has been
// cleared by DeleteClear. It is the enforcement mechanism for the
// invariant that an exposed view cannot outlive the secret buffer.
var ErrReleased = errors.New("secretbuf: buffer already released")

// SecretBuffer holds key material of fixed length and wipes it on release.
// The zero value is not usable; construct with New, NewFromExposed,
// NewFromFile, or NewFromReader.
type SecretBuffer struct {
	mu       sync.RWMutex
	data     []byte
	released bool
}

// New allocates a zero-filled secret buffer of the given length.
func New(length int) (*SecretBuffer, error) {
	if length < 0 {
		return nil, errors.New("secretbuf: negative length")
	}
	return &SecretBuffer{data: make([]byte, length)}, nil
}

// NewFromExposed copies all of src into a new secret buffer.
// The caller-owned src is not modified by this call; callers that want the
// source cleared are responsible for clearing it themselves after this
// call returns.
func NewFromExposed(src []byte) (*SecretBuffer, error) {
	if src == nil {
		return nil, errors.New("secretbuf: nil source")
	}
	buf := make([]byte, len(src))
	copy(buf, src)
	return &SecretBuffer{data: buf}, nil
}

// NewFromFile atomically reads the entire content of path into a new
// secret buffer.
func NewFromFile(path string) (*SecretBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	buf := make([]byte, info.Size())
	if _, err := io.ReadFull(f, buf); err != nil {
		return nil, err
	}
	return &SecretBuffer{data: buf}, nil
}

// NewFromReader reads exactly length bytes from r into a new secret
// buffer. It generalizes the file-backed constructor to any byte source
// (network, pipe, in-memory stream).
func NewFromReader(r io.Reader, length int) (*SecretBuffer, error) {
	if length < 0 {
		return nil, errors.New("secretbuf: negative length")
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return &SecretBuffer{data: buf}, nil
}

// Length returns the fixed length of the buffer. It remains valid after
// DeleteClear (the length does not change, only the content).
func (s *SecretBuffer) Length() int {
	if s == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Expose returns a read-only view of the buffer's content. The caller MUST
// call Unexpose when done; the view MUST NOT be retained past that call.
func (s *SecretBuffer) Expose() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.released {
		return nil, ErrReleased
	}
	return s.data, nil
}

// Unexpose conceptually re-seals a view obtained from Expose. Single-
// address-space implementations may treat this as a no-op, but the API is
// required so future implementations (e.g. ones that page keys out of
// memory) have a hook to reverse Expose.
func (s *SecretBuffer) Unexpose() {}

// ExposeModify returns a writable view of the buffer's content. The caller
// MUST call UnexposeModify when done.
func (s *SecretBuffer) ExposeModify() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return nil, ErrReleased
	}
	return s.data, nil
}

// UnexposeModify conceptually re-seals a view obtained from ExposeModify.
func (s *SecretBuffer) UnexposeModify() {}

// DeleteClear overwrites the buffer's storage with zeros and marks it
// released. It is idempotent and safe to call on a nil receiver.
func (s *SecretBuffer) DeleteClear() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return
	}
	for i := range s.data {
		s.data[i] = 0
	}
	s.released = true
}
