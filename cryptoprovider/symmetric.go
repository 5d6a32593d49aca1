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
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"errors"
	"time"

	"github.com/nerites-labs/opcua-seccore/secretbuf"
)

// SymmetricEncrypt AES-CBC encrypts a caller-padded plaintext. It does not
// apply any padding scheme; plainText's length must already be a multiple
// of the policy's block size.
func (p *Provider) SymmetricEncrypt(plainText []byte, key, iv *secretbuf.SecretBuffer) (out []byte, err error) {
	defer func(start time.Time) { p.recordOperation("encrypt", start, err) }(time.Now())

	if err := p.requireClientServer(); err != nil {
		return nil, err
	}
	blockSize := p.policy.SymBlockSize
	if len(plainText)%blockSize != 0 {
		return nil, newStatus(StatusInvalidParameters, ErrInvalidParameters)
	}

	keyView, err := key.Expose()
	if err != nil {
		return nil, newStatus(StatusInvalidParameters, err)
	}
	defer key.Unexpose()
	ivView, err := iv.Expose()
	if err != nil {
		return nil, newStatus(StatusInvalidParameters, err)
	}
	defer iv.Unexpose()

	block, err := aes.NewCipher(keyView)
	if err != nil {
		return nil, newStatus(StatusNOK, err)
	}
	if len(ivView) != block.BlockSize() {
		return nil, newStatus(StatusInvalidParameters, ErrInvalidParameters)
	}

	out = make([]byte, len(plainText))
	cipher.NewCBCEncrypter(block, ivView).CryptBlocks(out, plainText)
	return out, nil
}

// SymmetricDecrypt AES-CBC decrypts cipherText into the padded plaintext.
// It does not remove any padding scheme; the caller unpads the result.
func (p *Provider) SymmetricDecrypt(cipherText []byte, key, iv *secretbuf.SecretBuffer) (out []byte, err error) {
	defer func(start time.Time) { p.recordOperation("decrypt", start, err) }(time.Now())

	if err := p.requireClientServer(); err != nil {
		return nil, err
	}
	blockSize := p.policy.SymBlockSize
	if len(cipherText)%blockSize != 0 || len(cipherText) == 0 {
		return nil, newStatus(StatusInvalidParameters, ErrInvalidParameters)
	}

	keyView, err := key.Expose()
	if err != nil {
		return nil, newStatus(StatusInvalidParameters, err)
	}
	defer key.Unexpose()
	ivView, err := iv.Expose()
	if err != nil {
		return nil, newStatus(StatusInvalidParameters, err)
	}
	defer iv.Unexpose()

	block, err := aes.NewCipher(keyView)
	if err != nil {
		return nil, newStatus(StatusNOK, err)
	}
	if len(ivView) != block.BlockSize() {
		return nil, newStatus(StatusInvalidParameters, ErrInvalidParameters)
	}

	out = make([]byte, len(cipherText))
	cipher.NewCBCDecrypter(block, ivView).CryptBlocks(out, cipherText)
	return out, nil
}

// SymmetricSign produces an HMAC over input using the policy's signing
// digest (SHA1 for Basic256, SHA256 otherwise) and the given symmetric
// signing key.
func (p *Provider) SymmetricSign(input []byte, key *secretbuf.SecretBuffer) (out []byte, err error) {
	defer func(start time.Time) { p.recordOperation("sign", start, err) }(time.Now())

	if err := p.requireClientServer(); err != nil {
		return nil, err
	}
	keyView, err := key.Expose()
	if err != nil {
		return nil, newStatus(StatusInvalidParameters, err)
	}
	defer key.Unexpose()

	hashFn := p.policy.SigningDigest.HashFunc()
	if hashFn == 0 {
		return nil, newStatus(StatusInvalidParameters, ErrUnsupportedForPolicy)
	}
	mac := hmac.New(hashFn.New, keyView)
	mac.Write(input)
	return mac.Sum(nil), nil
}

// SymmetricVerify recomputes the HMAC over input and compares it against
// signature in constant time.
func (p *Provider) SymmetricVerify(input []byte, key *secretbuf.SecretBuffer, signature []byte) (err error) {
	defer func(start time.Time) { p.recordOperation("verify", start, err) }(time.Now())

	expected, err := p.SymmetricSign(input, key)
	if err != nil {
		return err
	}
	if !hmac.Equal(expected, signature) {
		return newStatus(StatusNOK, errSignatureMismatch)
	}
	return nil
}

var errSignatureMismatch = errors.New("cryptoprovider: symmetric signature verification failed")
