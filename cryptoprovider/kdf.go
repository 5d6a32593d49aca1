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
	"crypto/hmac"
	"hash"

	"github.com/nerites-labs/opcua-seccore/keyset"
	"github.com/nerites-labs/opcua-seccore/secretbuf"
)

// DerivePseudoRandomData implements the TLS-PRF of RFC 5246 §5 (no label)
// using the policy's PRF hash: HMAC-SHA1 for Basic256, HMAC-SHA256 for
// every other client-server policy.
func (p *Provider) DerivePseudoRandomData(secret, seed []byte, outLen int) ([]byte, error) {
	if err := p.requireClientServer(); err != nil {
		return nil, err
	}
	if outLen < 0 {
		return nil, newStatus(StatusInvalidParameters, ErrInvalidParameters)
	}
	hashFn := p.policy.PRFHash().New
	return tlsPRF(hashFn, secret, seed, outLen), nil
}

// tlsPRF computes P_hash(secret, seed) truncated to outLen bytes, per
// RFC 5246 §5: A(0) = seed, A(i) = HMAC(secret, A(i-1)),
// P_hash = HMAC(secret, A(1) || seed) || HMAC(secret, A(2) || seed) || ...
func tlsPRF(hashFn func() hash.Hash, secret, seed []byte, outLen int) []byte {
	out := make([]byte, 0, outLen+hashFn().Size())
	a := seed
	mac := hmac.New(hashFn, secret)
	for len(out) < outLen {
		mac.Reset()
		mac.Write(a)
		a = mac.Sum(nil)

		mac.Reset()
		mac.Write(a)
		mac.Write(seed)
		out = mac.Sum(out)
	}
	return out[:outLen]
}

// keySetLayout returns the per-slice lengths of a policy's
// (sign_key, encrypt_key, iv) triple, in that order.
func (p *Provider) keySetLayout() (signLen, encLen, ivLen int) {
	return p.policy.SignKeyLength, p.policy.SymKeyLength, p.policy.SymBlockSize
}

// deriveOneSide runs the PRF once and splits the output into
// sign_key ∥ encrypt_key ∥ iv.
func (p *Provider) deriveOneSide(secret, seed []byte) (sign, enc, iv []byte, err error) {
	signLen, encLen, ivLen := p.keySetLayout()
	total := signLen + encLen + ivLen
	out, err := p.DerivePseudoRandomData(secret, seed, total)
	if err != nil {
		return nil, nil, nil, err
	}
	return out[:signLen], out[signLen : signLen+encLen], out[signLen+encLen : total], nil
}

// DeriveKeySets derives the client and server Key Sets from the client and
// server nonces. Following the secret/seed convention of the
// client-server session's wire-exposed nonces, the client key set (the
// keys the client uses to sign/encrypt outbound traffic, and the server
// uses to verify/decrypt it) is derived with the server nonce as PRF
// secret and the client nonce as seed; the server key set is derived
// symmetrically with the client nonce as secret and the server nonce as
// seed. Both sides compute the identical byte sequences given the same
// two nonces.
func (p *Provider) DeriveKeySets(clientNonce, serverNonce []byte) (client, server *keyset.KeySet, err error) {
	if err := p.requireClientServer(); err != nil {
		return nil, nil, err
	}
	if len(clientNonce) == 0 || len(serverNonce) == 0 {
		return nil, nil, newStatus(StatusInvalidParameters, ErrInvalidParameters)
	}

	cSign, cEnc, cIV, err := p.deriveOneSide(serverNonce, clientNonce)
	if err != nil {
		return nil, nil, err
	}
	sSign, sEnc, sIV, err := p.deriveOneSide(clientNonce, serverNonce)
	if err != nil {
		return nil, nil, err
	}

	client, err = keyset.New(cSign, cEnc, cIV)
	if err != nil {
		return nil, nil, newStatus(StatusOutOfMemory, err)
	}
	server, err = keyset.New(sSign, sEnc, sIV)
	if err != nil {
		client.Clear()
		return nil, nil, newStatus(StatusOutOfMemory, err)
	}
	return client, server, nil
}

// DeriveKeySetsClient is a helper variant of DeriveKeySets that accepts the
// client nonce as a secret buffer, mirroring a client that already holds
// its own freshly generated nonce in wiped storage.
func (p *Provider) DeriveKeySetsClient(clientNonce *secretbuf.SecretBuffer, serverNonce []byte) (client, server *keyset.KeySet, err error) {
	view, err := clientNonce.Expose()
	if err != nil {
		return nil, nil, newStatus(StatusInvalidParameters, err)
	}
	defer clientNonce.Unexpose()
	return p.DeriveKeySets(view, serverNonce)
}

// DeriveKeySetsServer is a helper variant of DeriveKeySets that accepts the
// server nonce as a secret buffer.
func (p *Provider) DeriveKeySetsServer(clientNonce []byte, serverNonce *secretbuf.SecretBuffer) (client, server *keyset.KeySet, err error) {
	view, err := serverNonce.Expose()
	if err != nil {
		return nil, nil, newStatus(StatusInvalidParameters, err)
	}
	defer serverNonce.Unexpose()
	return p.DeriveKeySets(clientNonce, view)
}
