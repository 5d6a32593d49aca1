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

package policy

import (
	"errors"
	"sort"
)

// ErrUnknownPolicy is returned when an unrecognized Security Policy URI is
// looked up. Callers at the cryptoprovider boundary map this to
// StatusInvalidParameters.
var ErrUnknownPolicy = errors.New("policy: unknown security policy uri")

var registry = map[URI]Policy{
	None: {
		URI: None,
	},
	Basic256: {
		URI:                          Basic256,
		SymBlockSize:                 16,
		SymKeyLength:                 32,
		SignKeyLength:                24,
		SignatureLength:              20,
		AsymKeyMinBits:               1024,
		AsymKeyMaxBits:               2048,
		OAEPHash:                     DigestSHA1,
		SigningDigest:                DigestSHA1,
		SignatureScheme:              SchemePKCS1v15,
		CertificateThumbprintLength:  20,
		NonceLength:                  32,
		SigningAlgorithmURI:          "http://www.w3.org/2000/09/xmldsig#rsa-sha1",
		RequiresAsymmetricEncryption: true,
		UsesPSS:                      false,
	},
	Basic256Sha256: {
		URI:                          Basic256Sha256,
		SymBlockSize:                 16,
		SymKeyLength:                 32,
		SignKeyLength:                32,
		SignatureLength:              32,
		AsymKeyMinBits:               2048,
		AsymKeyMaxBits:               4096,
		OAEPHash:                     DigestSHA1,
		SigningDigest:                DigestSHA256,
		SignatureScheme:              SchemePKCS1v15,
		CertificateThumbprintLength:  20,
		NonceLength:                  32,
		SigningAlgorithmURI:          "http://www.w3.org/2001/04/xmldsig-more#rsa-sha256",
		RequiresAsymmetricEncryption: true,
		UsesPSS:                      false,
	},
	Aes128Sha256RsaOaep: {
		URI:                          Aes128Sha256RsaOaep,
		SymBlockSize:                 16,
		SymKeyLength:                 16,
		SignKeyLength:                32,
		SignatureLength:              32,
		AsymKeyMinBits:               2048,
		AsymKeyMaxBits:               4096,
		OAEPHash:                     DigestSHA1,
		SigningDigest:                DigestSHA256,
		SignatureScheme:              SchemePKCS1v15,
		CertificateThumbprintLength:  20,
		NonceLength:                  32,
		SigningAlgorithmURI:          "http://www.w3.org/2001/04/xmldsig-more#rsa-sha256",
		RequiresAsymmetricEncryption: true,
		UsesPSS:                      false,
	},
	Aes256Sha256RsaPss: {
		URI:                          Aes256Sha256RsaPss,
		SymBlockSize:                 16,
		SymKeyLength:                 32,
		SignKeyLength:                32,
		SignatureLength:              32,
		AsymKeyMinBits:               2048,
		AsymKeyMaxBits:               4096,
		OAEPHash:                     DigestSHA256,
		SigningDigest:                DigestSHA256,
		SignatureScheme:              SchemePSS,
		CertificateThumbprintLength:  20,
		NonceLength:                  32,
		SigningAlgorithmURI:          "http://opcfoundation.org/UA/security/rsa-pss-sha2-256",
		RequiresAsymmetricEncryption: true,
		UsesPSS:                      true,
	},
}

var pubSubRegistry = map[PubSubURI]PubSubPolicy{
	PubSubAes256CTR: {
		URI:                 PubSubAes256CTR,
		KeyLength:           32,
		SignKeyLength:       32,
		SignatureLength:     32,
		KeyNonceLength:      4,
		MessageRandomLength: 4,
	},
}

// Lookup returns the static Policy record for uri, or ErrUnknownPolicy if
// uri is not one of the recognized Security Policy URIs.
func Lookup(uri URI) (Policy, error) {
	p, ok := registry[uri]
	if !ok {
		return Policy{}, ErrUnknownPolicy
	}
	return p, nil
}

// LookupPubSub returns the static PubSubPolicy record for uri, or
// ErrUnknownPolicy if uri is not recognized.
func LookupPubSub(uri PubSubURI) (PubSubPolicy, error) {
	p, ok := pubSubRegistry[uri]
	if !ok {
		return PubSubPolicy{}, ErrUnknownPolicy
	}
	return p, nil
}

// All returns every registered client-server Policy, sorted by URI for
// deterministic iteration.
func All() []Policy {
	out := make([]Policy, 0, len(registry))
	for _, p := range registry {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URI < out[j].URI })
	return out
}
