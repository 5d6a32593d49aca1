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

package crypto

import (
	"crypto/subtle"
	"errors"

	"github.com/nerites-labs/opcua-seccore/cryptoprovider"
	"github.com/nerites-labs/opcua-seccore/secretbuf"
	"github.com/nerites-labs/opcua-seccore/session"
)

// PasswordIdentity is the password-based alternative to the certificate
// identity carried by ClientSignature/ServerSignature: instead of a
// private-key signature over the peer's certificate and nonce, the user's
// password is stretched through PBKDF2-HMAC-SHA256 and the derived key is
// what gets compared at activation time. It is stored in
// SessionSlot.UserClient/UserServer the same way a certificate-backed
// reference would be.
type PasswordIdentity struct {
	DerivedKey *secretbuf.SecretBuffer
	Iterations int
}

// ErrPasswordIdentityMismatch is returned when a derived password key does
// not match the identity recorded at session creation.
var ErrPasswordIdentityMismatch = errors.New("session/crypto: password identity does not match")

// derivePasswordIdentity runs password through PBKDF2-HMAC-SHA256 with the
// given salt and iteration count, producing a 32-byte derived key wrapped
// in a secret buffer. password is never retained by this call; the caller
// owns clearing its own copy.
func derivePasswordIdentity(password, salt []byte, iterations int) (*PasswordIdentity, error) {
	cfg := cryptoprovider.NewPBKDF2Config()
	if err := cfg.Configure(salt, iterations, 32); err != nil {
		return nil, err
	}
	derived, err := cfg.Run(password)
	if err != nil {
		return nil, err
	}
	defer func() {
		for i := range derived {
			derived[i] = 0
		}
	}()

	buf, err := secretbuf.NewFromExposed(derived)
	if err != nil {
		return nil, err
	}
	return &PasswordIdentity{DerivedKey: buf, Iterations: iterations}, nil
}

// ClientActivateSessionUserTokenPassword implements the password-identity
// branch of user-token activation on the client side, parallel to
// ClientActivateSessionRequestCrypto's certificate-identity branch: it
// derives the user's password into slot.UserClient instead of producing a
// certificate signature.
func ClientActivateSessionUserTokenPassword(slot *session.SessionSlot, password, salt []byte, iterations int) error {
	identity, err := derivePasswordIdentity(password, salt, iterations)
	if err != nil {
		return err
	}
	slot.UserClient = identity
	return nil
}

// ServerActivateSessionUserTokenPasswordCheck implements the server-side
// counterpart: it re-derives the password identity with the same salt and
// iteration count the session was created with, and constant-time compares
// it against the identity already recorded in slot.UserServer. On success
// it replaces slot.UserServer with the freshly derived identity and wipes
// the stale one; on failure the stale identity is left untouched and an
// error is returned, matching ServerActivateSessionCheck's pattern of
// failing closed without mutating state on a rejected check.
func ServerActivateSessionUserTokenPasswordCheck(slot *session.SessionSlot, password, salt []byte, iterations int) error {
	expected, ok := slot.UserServer.(*PasswordIdentity)
	if !ok || expected == nil || expected.DerivedKey == nil {
		return ErrPasswordIdentityMismatch
	}

	candidate, err := derivePasswordIdentity(password, salt, iterations)
	if err != nil {
		return err
	}

	expectedView, err := expected.DerivedKey.Expose()
	if err != nil {
		candidate.DerivedKey.DeleteClear()
		return err
	}
	defer expected.DerivedKey.Unexpose()
	candidateView, err := candidate.DerivedKey.Expose()
	if err != nil {
		candidate.DerivedKey.DeleteClear()
		return err
	}
	defer candidate.DerivedKey.Unexpose()

	if subtle.ConstantTimeCompare(expectedView, candidateView) != 1 {
		candidate.DerivedKey.DeleteClear()
		return ErrPasswordIdentityMismatch
	}

	expected.DerivedKey.DeleteClear()
	slot.UserServer = candidate
	return nil
}
