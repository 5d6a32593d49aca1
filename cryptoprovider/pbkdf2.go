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

import (
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"
)

// maxInt32 bounds salt length and output length the way the originating
// config struct bounds its size_t fields to a signed 32-bit bus, to keep
// parameters within values a wire-exposed PBKDF2 configuration can carry.
const maxInt32 = 1<<31 - 1

// PBKDF2Config configures a PBKDF2-HMAC-SHA256 run. The zero value is not
// usable: call Configure before Run.
type PBKDF2Config struct {
	salt       []byte
	iterations int
	outLen     int
	configured bool
}

// NewPBKDF2Config constructs an empty, unconfigured PBKDF2Config; call
// Configure before Run.
func NewPBKDF2Config() *PBKDF2Config {
	return &PBKDF2Config{}
}

// Configure fills in the salt, iteration count, and desired output length.
// salt must be non-empty, iterations must be positive, and outLen must be
// positive; salt length and outLen must each fit in 32 bits.
func (c *PBKDF2Config) Configure(salt []byte, iterations, outLen int) error {
	if len(salt) == 0 || len(salt) > maxInt32 {
		return newStatus(StatusInvalidParameters, ErrInvalidParameters)
	}
	if iterations <= 0 {
		return newStatus(StatusInvalidParameters, ErrInvalidParameters)
	}
	if outLen <= 0 || outLen > maxInt32 {
		return newStatus(StatusInvalidParameters, ErrInvalidParameters)
	}
	c.salt = append([]byte(nil), salt...)
	c.iterations = iterations
	c.outLen = outLen
	c.configured = true
	return nil
}

// Run derives outLen bytes from secret using PBKDF2-HMAC-SHA256 with the
// configured salt and iteration count.
func (c *PBKDF2Config) Run(secret []byte) ([]byte, error) {
	if !c.configured {
		return nil, newStatus(StatusInvalidParameters, ErrInvalidParameters)
	}
	return pbkdf2.Key(secret, c.salt, c.iterations, c.outLen, sha256.New), nil
}
