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

// Package keyset implements the secure-channel Key Set: the triple
// (sign_key, encrypt_key, init_vector) derived from the client and server
// nonces after each symmetric key negotiation.
package keyset

import "github.com/nerites-labs/opcua-seccore/secretbuf"

// KeySet is a record of three secret buffers produced by a single symmetric
// key negotiation. A secure channel owns two of these: one for outbound
// traffic, one for inbound.
type KeySet struct {
	SignKey    *secretbuf.SecretBuffer
	EncryptKey *secretbuf.SecretBuffer
	InitVector *secretbuf.SecretBuffer
}

// New wraps three already-derived byte slices into secret buffers forming
// a KeySet. It copies each slice; callers remain responsible for wiping
// their own copies afterward.
func New(signKey, encryptKey, iv []byte) (*KeySet, error) {
	sk, err := secretbuf.NewFromExposed(signKey)
	if err != nil {
		return nil, err
	}
	ek, err := secretbuf.NewFromExposed(encryptKey)
	if err != nil {
		sk.DeleteClear()
		return nil, err
	}
	ivBuf, err := secretbuf.NewFromExposed(iv)
	if err != nil {
		sk.DeleteClear()
		ek.DeleteClear()
		return nil, err
	}
	return &KeySet{SignKey: sk, EncryptKey: ek, InitVector: ivBuf}, nil
}

// Clear wipes every secret buffer in the set. Safe to call on a nil
// receiver or on a partially-populated KeySet.
func (k *KeySet) Clear() {
	if k == nil {
		return
	}
	k.SignKey.DeleteClear()
	k.EncryptKey.DeleteClear()
	k.InitVector.DeleteClear()
}
