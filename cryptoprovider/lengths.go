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
	"crypto/rsa"

	"github.com/nerites-labs/opcua-seccore/policy"
)

// SymmetricKeyLength returns the symmetric crypto-key length in bytes.
func (p *Provider) SymmetricKeyLength() (int, error) {
	if err := p.requireClientServer(); err != nil {
		return 0, err
	}
	return p.policy.SymKeyLength, nil
}

// SymmetricSignKeyLength returns the symmetric sign-key length in bytes.
func (p *Provider) SymmetricSignKeyLength() (int, error) {
	if err := p.requireClientServer(); err != nil {
		return 0, err
	}
	return p.policy.SignKeyLength, nil
}

// SymmetricSignatureLength returns the symmetric signature output length
// in bytes.
func (p *Provider) SymmetricSignatureLength() (int, error) {
	if err := p.requireClientServer(); err != nil {
		return 0, err
	}
	return p.policy.SignatureLength, nil
}

// SymmetricBlockSize returns the cipher/plain block size in bytes.
func (p *Provider) SymmetricBlockSize() (int, error) {
	if err := p.requireClientServer(); err != nil {
		return 0, err
	}
	return p.policy.SymBlockSize, nil
}

// SecureChannelNonceLength returns the nonce length in bytes.
func (p *Provider) SecureChannelNonceLength() (int, error) {
	if err := p.requireClientServer(); err != nil {
		return 0, err
	}
	return p.policy.NonceLength, nil
}

// CertificateThumbprintLength returns the certificate thumbprint length in
// bytes.
func (p *Provider) CertificateThumbprintLength() (int, error) {
	if err := p.requireClientServer(); err != nil {
		return 0, err
	}
	return p.policy.CertificateThumbprintLength, nil
}

// AsymmetricKeyLengthBits returns the RSA modulus size of pub, in bits.
func (p *Provider) AsymmetricKeyLengthBits(pub *rsa.PublicKey) (int, error) {
	if err := p.requireClientServer(); err != nil {
		return 0, err
	}
	if pub == nil {
		return 0, newStatus(StatusInvalidParameters, ErrInvalidParameters)
	}
	return pub.N.BitLen(), nil
}

// AsymmetricKeyLengthBytes returns the RSA modulus size of pub, in bytes.
func (p *Provider) AsymmetricKeyLengthBytes(pub *rsa.PublicKey) (int, error) {
	bits, err := p.AsymmetricKeyLengthBits(pub)
	if err != nil {
		return 0, err
	}
	return (bits + 7) / 8, nil
}

// AsymmetricMaxPlaintextLength returns the maximum plaintext bytes that can
// be OAEP-encrypted in a single pass for the given key.
func (p *Provider) AsymmetricMaxPlaintextLength(pub *rsa.PublicKey) (int, error) {
	if err := p.requireClientServer(); err != nil {
		return 0, err
	}
	keyBytes, err := p.AsymmetricKeyLengthBytes(pub)
	if err != nil {
		return 0, err
	}
	hashLen := oaepHashLen(p.policy)
	maxLen := keyBytes - 2*hashLen - 2
	if maxLen <= 0 {
		return 0, newStatus(StatusInvalidParameters, ErrInvalidParameters)
	}
	return maxLen, nil
}

// AsymmetricCiphertextLength returns the ciphertext length produced per
// OAEP-encrypted chunk, which equals the RSA modulus size in bytes.
func (p *Provider) AsymmetricCiphertextLength(pub *rsa.PublicKey) (int, error) {
	return p.AsymmetricKeyLengthBytes(pub)
}

// AsymmetricSignatureLength returns the RSA signature length for the given
// key, which equals the RSA modulus size in bytes for both PKCS#1 v1.5 and
// PSS.
func (p *Provider) AsymmetricSignatureLength(pub *rsa.PublicKey) (int, error) {
	return p.AsymmetricKeyLengthBytes(pub)
}

// OAEPHashLength returns the byte length of the policy's OAEP hash.
func (p *Provider) OAEPHashLength() (int, error) {
	if err := p.requireClientServer(); err != nil {
		return 0, err
	}
	return oaepHashLen(p.policy), nil
}

// PSSHashLength returns the byte length of the policy's PSS hash (equal to
// the signing digest for the one PSS-using policy, Aes256Sha256RsaPss).
func (p *Provider) PSSHashLength() (int, error) {
	if err := p.requireClientServer(); err != nil {
		return 0, err
	}
	if !p.policy.UsesPSS {
		return 0, newStatus(StatusInvalidParameters, ErrUnsupportedForPolicy)
	}
	return hashLen(p.policy.SigningDigest), nil
}

// DerivedKeyNonceLength returns the PubSub key-nonce length in bytes.
func (p *Provider) DerivedKeyNonceLength() (int, error) {
	if err := p.requirePubSub(); err != nil {
		return 0, err
	}
	return p.pubsub.KeyNonceLength, nil
}

// MessageRandomLength returns the PubSub message-random length in bytes.
func (p *Provider) MessageRandomLength() (int, error) {
	if err := p.requirePubSub(); err != nil {
		return 0, err
	}
	return p.pubsub.MessageRandomLength, nil
}

func oaepHashLen(p policy.Policy) int { return hashLen(p.OAEPHash) }

func hashLen(d policy.Digest) int {
	switch d {
	case policy.DigestSHA1:
		return 20
	case policy.DigestSHA256:
		return 32
	default:
		return 0
	}
}
