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
	"crypto/rand"
	"crypto/rsa"
	"encoding/binary"
	"time"

	"github.com/nerites-labs/opcua-seccore/secretbuf"
)

// AsymmetricEncrypt RSA-OAEP encrypts input under the policy's OAEP hash,
// splitting it into chunks of at most AsymmetricMaxPlaintextLength(pub)
// bytes and concatenating the per-chunk ciphertexts.
func (p *Provider) AsymmetricEncrypt(input []byte, pub *rsa.PublicKey) (out []byte, err error) {
	defer func(start time.Time) { p.recordOperation("encrypt", start, err) }(time.Now())

	if err := p.requireClientServer(); err != nil {
		return nil, err
	}
	hashFn := p.policy.OAEPHash.HashFunc()
	if hashFn == 0 {
		return nil, newStatus(StatusInvalidParameters, ErrUnsupportedForPolicy)
	}
	maxLen, err := p.AsymmetricMaxPlaintextLength(pub)
	if err != nil {
		return nil, err
	}
	chunkCipherLen, err := p.AsymmetricCiphertextLength(pub)
	if err != nil {
		return nil, err
	}

	chunks := [][]byte{input}
	if len(input) > maxLen {
		chunks = chunks[:0]
		for off := 0; off < len(input); off += maxLen {
			end := off + maxLen
			if end > len(input) {
				end = len(input)
			}
			chunks = append(chunks, input[off:end])
		}
	}

	out = make([]byte, 0, len(chunks)*chunkCipherLen)
	for _, chunk := range chunks {
		ciphered, encErr := rsa.EncryptOAEP(hashFn.New(), rand.Reader, pub, chunk, nil)
		if encErr != nil {
			return nil, newStatus(StatusNOK, encErr)
		}
		if len(ciphered) != chunkCipherLen {
			return nil, newStatus(StatusNOK, ErrInvalidParameters)
		}
		out = append(out, ciphered...)
	}
	return out, nil
}

// AsymmetricDecrypt reverses AsymmetricEncrypt: input must be a multiple of
// the RSA modulus size in bytes, each chunk is OAEP-decrypted and the
// plaintexts concatenated.
func (p *Provider) AsymmetricDecrypt(input []byte, priv *rsa.PrivateKey) (out []byte, err error) {
	defer func(start time.Time) { p.recordOperation("decrypt", start, err) }(time.Now())

	if err := p.requireClientServer(); err != nil {
		return nil, err
	}
	hashFn := p.policy.OAEPHash.HashFunc()
	if hashFn == 0 {
		return nil, newStatus(StatusInvalidParameters, ErrUnsupportedForPolicy)
	}
	chunkLen, err := p.AsymmetricCiphertextLength(&priv.PublicKey)
	if err != nil {
		return nil, err
	}
	if chunkLen == 0 || len(input)%chunkLen != 0 {
		return nil, newStatus(StatusInvalidParameters, ErrInvalidParameters)
	}

	for off := 0; off < len(input); off += chunkLen {
		chunk, decErr := rsa.DecryptOAEP(hashFn.New(), rand.Reader, priv, input[off:off+chunkLen], nil)
		if decErr != nil {
			return nil, newStatus(StatusNOK, decErr)
		}
		out = append(out, chunk...)
	}
	return out, nil
}

// AsymmetricSign signs input's digest with the policy's signature scheme:
// RSASSA-PKCS1-v1_5 for every policy but Aes256Sha256RsaPss, which uses
// RSASSA-PSS with a salt length equal to the hash size.
func (p *Provider) AsymmetricSign(input []byte, priv *rsa.PrivateKey) (sig []byte, err error) {
	defer func(start time.Time) { p.recordOperation("sign", start, err) }(time.Now())

	if err := p.requireClientServer(); err != nil {
		return nil, err
	}
	hashFn := p.policy.SigningDigest.HashFunc()
	if hashFn == 0 {
		return nil, newStatus(StatusInvalidParameters, ErrUnsupportedForPolicy)
	}
	h := hashFn.New()
	h.Write(input)
	digest := h.Sum(nil)

	if p.policy.UsesPSS {
		sig, err = rsa.SignPSS(rand.Reader, priv, hashFn, digest, &rsa.PSSOptions{SaltLength: hashFn.Size()})
	} else {
		sig, err = rsa.SignPKCS1v15(rand.Reader, priv, hashFn, digest)
	}
	if err != nil {
		return nil, newStatus(StatusNOK, err)
	}
	return sig, nil
}

// AsymmetricVerify verifies signature over input's digest against pub,
// using the same scheme selection as AsymmetricSign.
func (p *Provider) AsymmetricVerify(input []byte, pub *rsa.PublicKey, signature []byte) (err error) {
	defer func(start time.Time) { p.recordOperation("verify", start, err) }(time.Now())

	if err := p.requireClientServer(); err != nil {
		return err
	}
	hashFn := p.policy.SigningDigest.HashFunc()
	if hashFn == 0 {
		return newStatus(StatusInvalidParameters, ErrUnsupportedForPolicy)
	}
	h := hashFn.New()
	h.Write(input)
	digest := h.Sum(nil)

	if p.policy.UsesPSS {
		err = rsa.VerifyPSS(pub, hashFn, digest, signature, &rsa.PSSOptions{SaltLength: hashFn.Size()})
	} else {
		err = rsa.VerifyPKCS1v15(pub, hashFn, digest, signature)
	}
	if err != nil {
		return newStatus(StatusNOK, err)
	}
	return nil
}

// PubSubCrypt implements AES-CTR encrypt/decrypt (the operation is its own
// inverse) for the PubSub-Aes256-CTR policy. The counter block is built as
// keyNonce(4B) || messageRandom(4B) || sequenceNumber(4B, big-endian) ||
// blockCounter(4B, starting at 0); see DESIGN.md for why sequence number
// is big-endian here.
func (p *Provider) PubSubCrypt(input []byte, key, keyNonce *secretbuf.SecretBuffer, random []byte, sequenceNumber uint32) (out []byte, err error) {
	defer func(start time.Time) { p.recordOperation("pubsub_crypt", start, err) }(time.Now())

	if err := p.requirePubSub(); err != nil {
		return nil, err
	}
	if len(random) != p.pubsub.MessageRandomLength {
		return nil, newStatus(StatusInvalidParameters, ErrInvalidParameters)
	}

	keyView, err := key.Expose()
	if err != nil {
		return nil, newStatus(StatusInvalidParameters, err)
	}
	defer key.Unexpose()
	nonceView, err := keyNonce.Expose()
	if err != nil {
		return nil, newStatus(StatusInvalidParameters, err)
	}
	defer keyNonce.Unexpose()
	if len(nonceView) != p.pubsub.KeyNonceLength {
		return nil, newStatus(StatusInvalidParameters, ErrInvalidParameters)
	}

	block, err := aes.NewCipher(keyView)
	if err != nil {
		return nil, newStatus(StatusNOK, err)
	}

	var iv [16]byte
	copy(iv[0:4], nonceView)
	copy(iv[4:8], random)
	binary.BigEndian.PutUint32(iv[8:12], sequenceNumber)
	// iv[12:16] is the block counter, left at zero.

	out = make([]byte, len(input))
	cipher.NewCTR(block, iv[:]).XORKeyStream(out, input)
	return out, nil
}
