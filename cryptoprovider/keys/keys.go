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

// Package keys implements certificate and private-key management: DER/PEM
// parsing, chain assembly, public-key extraction, serialization, and CRL
// loading, all on top of crypto/x509.
package keys

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"os"
)

var (
	// ErrNotRSAKey is returned when a parsed key or certificate's public
	// key is not an RSA key; every Security Policy this core supports
	// requires RSA.
	ErrNotRSAKey = errors.New("keys: not an RSA key")
	// ErrNoPEMBlock is returned when PEM-armored input contains no
	// decodable block.
	ErrNoPEMBlock = errors.New("keys: no PEM block found")
	// ErrEncryptedKeyNeedsPassword is returned when a PEM-encoded private
	// key is encrypted and no password was supplied.
	ErrEncryptedKeyNeedsPassword = errors.New("keys: encrypted private key requires a password")
)

// ParseCertificate parses a single DER or PEM-armored X.509 certificate.
func ParseCertificate(data []byte) (*x509.Certificate, error) {
	der := data
	if block, _ := pem.Decode(data); block != nil {
		der = block.Bytes
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, err
	}
	return cert, nil
}

// ParseCertificateChain parses a PEM bundle containing one or more
// certificates, in the order they appear (leaf first, by OPC UA
// convention).
func ParseCertificateChain(data []byte) ([]*x509.Certificate, error) {
	var chain []*x509.Certificate
	rest := data
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, err
		}
		chain = append(chain, cert)
	}
	if len(chain) == 0 {
		// Not PEM-armored: try as a single DER certificate.
		cert, err := x509.ParseCertificate(data)
		if err != nil {
			return nil, ErrNoPEMBlock
		}
		chain = append(chain, cert)
	}
	return chain, nil
}

// ParsePrivateKey parses a PEM or DER-encoded RSA private key, supporting
// PKCS#1, PKCS#8, and legacy encrypted PEM (password non-nil).
func ParsePrivateKey(data []byte, password []byte) (*rsa.PrivateKey, error) {
	der := data
	if block, _ := pem.Decode(data); block != nil {
		der = block.Bytes
		//nolint:staticcheck // legacy encrypted PEM support for password-protected key files
		if x509.IsEncryptedPEMBlock(block) {
			if len(password) == 0 {
				return nil, ErrEncryptedKeyNeedsPassword
			}
			decrypted, err := x509.DecryptPEMBlock(block, password)
			if err != nil {
				return nil, err
			}
			der = decrypted
		}
	}

	if key, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return key, nil
	}
	key, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, err
	}
	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, ErrNotRSAKey
	}
	return rsaKey, nil
}

// PublicKey extracts the RSA public key carried by cert.
func PublicKey(cert *x509.Certificate) (*rsa.PublicKey, error) {
	pub, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, ErrNotRSAKey
	}
	return pub, nil
}

// SerializeCertificate re-encodes cert as PEM.
func SerializeCertificate(cert *x509.Certificate) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw})
}

// LoadCRL reads and parses a PEM or DER-encoded certificate revocation
// list from path.
func LoadCRL(path string) (*x509.RevocationList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	der := data
	if block, _ := pem.Decode(data); block != nil {
		der = block.Bytes
	}
	return x509.ParseRevocationList(der)
}
