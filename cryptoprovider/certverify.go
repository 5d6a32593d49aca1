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
	"crypto/x509"
	"errors"
	"fmt"
	"time"

	"github.com/nerites-labs/opcua-seccore/cryptoprovider/pki"
	"github.com/nerites-labs/opcua-seccore/policy"
)

// ErrCertificateUntrusted is returned, with the non-success pki.ErrorKind
// named in the error message, when the trust store rejects a certificate,
// so callers can distinguish trust-store rejection from the policy-shape
// checks below.
var ErrCertificateUntrusted = errors.New("cryptoprovider: certificate rejected by trust store")

// ErrCertificateKeyType is returned when a certificate's public key is not
// RSA; every Security Policy this provider understands requires RSA.
var ErrCertificateKeyType = errors.New("cryptoprovider: certificate public key is not RSA")

// ErrCertificateKeyBits is returned when a certificate's RSA modulus size
// falls outside the policy's [AsymKeyMinBits, AsymKeyMaxBits] bounds.
var ErrCertificateKeyBits = errors.New("cryptoprovider: certificate key size out of policy bounds")

// ErrCertificateDigest is returned when a certificate was signed with a
// digest weaker than the policy's SigningDigest permits.
var ErrCertificateDigest = errors.New("cryptoprovider: certificate signature digest not permitted by policy")

// CertificateVerify validates cert against v and then, for a client-server
// policy, additionally enforces the policy's own shape constraints on the
// certificate: the public key must be RSA, its modulus size must fall
// inside the policy's key-bit bounds, and the certificate's signature
// digest must be at least as strong as the policy's signing digest.
// Policy None skips the shape checks (it has no key-bit bounds and performs
// no signature operations), but still runs the trust-store walk.
func (p *Provider) CertificateVerify(v *pki.Validator, cert *x509.Certificate) (err error) {
	defer func(start time.Time) { p.recordOperation("certificate_verify", start, err) }(time.Now())

	if err := p.requireClientServer(); err != nil {
		return err
	}
	if v == nil || cert == nil {
		return newStatus(StatusInvalidParameters, ErrInvalidParameters)
	}

	if kind := v.Validate(cert); kind != pki.ErrorNone {
		return newStatus(StatusNOK, fmt.Errorf("%w: %s", ErrCertificateUntrusted, kind))
	}

	if p.policy.IsNone() {
		return nil
	}

	pub, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return newStatus(StatusInvalidParameters, ErrCertificateKeyType)
	}

	bits := pub.N.BitLen()
	if bits < p.policy.AsymKeyMinBits || bits > p.policy.AsymKeyMaxBits {
		return newStatus(StatusInvalidParameters, ErrCertificateKeyBits)
	}

	if !digestSatisfies(p.policy.SigningDigest, cert.SignatureAlgorithm) {
		return newStatus(StatusInvalidParameters, ErrCertificateDigest)
	}

	return nil
}

// digestSatisfies reports whether a certificate signed with alg meets the
// minimum strength named by want. SHA-256 signatures satisfy a SHA-1
// requirement; a SHA-1 signature never satisfies a SHA-256 requirement.
func digestSatisfies(want policy.Digest, alg x509.SignatureAlgorithm) bool {
	switch alg {
	case x509.SHA256WithRSA, x509.SHA256WithRSAPSS, x509.SHA384WithRSA, x509.SHA384WithRSAPSS, x509.SHA512WithRSA, x509.SHA512WithRSAPSS:
		return true
	case x509.SHA1WithRSA:
		return want == policy.DigestSHA1
	default:
		return false
	}
}
