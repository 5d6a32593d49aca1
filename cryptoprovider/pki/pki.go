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

// Package pki implements certificate chain validation against a
// configurable trust store: roots, intermediates, and leaf-trusted issued
// certificates, checked against per-issuer CRLs during a chain walk.
package pki

import (
	"bytes"
	"crypto/x509"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/nerites-labs/opcua-seccore/cryptoprovider/keys"
	"github.com/nerites-labs/opcua-seccore/internal/metrics"
)

// ErrorKind classifies why Validate rejected a certificate.
type ErrorKind int

const (
	// ErrorNone indicates validation succeeded.
	ErrorNone ErrorKind = iota
	ErrorExpired
	ErrorRevoked
	ErrorUntrusted
	ErrorChainIncomplete
	ErrorSignatureInvalid
	ErrorMissingCRL
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorNone:
		return "none"
	case ErrorExpired:
		return "expired"
	case ErrorRevoked:
		return "revoked"
	case ErrorUntrusted:
		return "untrusted"
	case ErrorChainIncomplete:
		return "chain-incomplete"
	case ErrorSignatureInvalid:
		return "signature-invalid"
	case ErrorMissingCRL:
		return "missing-crl"
	default:
		return "unknown"
	}
}

// ErrMissingCRLForIssuer is returned by the constructors when an issuer
// appearing in a trusted or untrusted list has no corresponding CRL: a
// missing CRL is treated as a configuration error, not an implicit pass.
var ErrMissingCRLForIssuer = errors.New("pki: issuer certificate has no corresponding crl")

// Validator holds a trust store and validates certificate chains against
// it. It is NOT safe for concurrent mutation or validation; callers must
// serialize access.
type Validator struct {
	trustedRoots         []*x509.Certificate
	trustedIntermediates []*x509.Certificate // child-before-parent order
	untrustedRoots       []*x509.Certificate
	untrustedIntermediates []*x509.Certificate
	issuedCerts          []*x509.Certificate
	crlByIssuer          map[string]*x509.RevocationList
}

func issuerKey(cert *x509.Certificate) string {
	return string(cert.RawSubject)
}

// NewMinimal constructs a Validator trusting a single CA certificate and
// its revocation list.
func NewMinimal(ca *x509.Certificate, crl *x509.RevocationList) (*Validator, error) {
	v := &Validator{
		trustedRoots: []*x509.Certificate{ca},
		crlByIssuer:  map[string]*x509.RevocationList{issuerKey(ca): crl},
	}
	return v, nil
}

// PathConfig is the set of classified certificate lists for the
// pre-parsed-list constructor. Intermediate lists MUST be ordered
// child-before-parent.
type PathConfig struct {
	TrustedRoots           []*x509.Certificate
	TrustedIntermediates   []*x509.Certificate
	UntrustedRoots         []*x509.Certificate
	UntrustedIntermediates []*x509.Certificate
	IssuedCerts            []*x509.Certificate
	CRLs                   []*x509.RevocationList
}

// NewFromPaths builds a Validator from pre-parsed, classified certificate
// and CRL lists. It fails with ErrMissingCRLForIssuer if any issuer
// certificate in the trusted or untrusted lists lacks a corresponding CRL.
func NewFromPaths(cfg PathConfig) (*Validator, error) {
	crlByIssuer := make(map[string]*x509.RevocationList, len(cfg.CRLs))
	for _, crl := range cfg.CRLs {
		crlByIssuer[string(crl.RawIssuer)] = crl
	}

	issuers := make([]*x509.Certificate, 0, len(cfg.TrustedRoots)+len(cfg.TrustedIntermediates)+len(cfg.UntrustedRoots)+len(cfg.UntrustedIntermediates))
	issuers = append(issuers, cfg.TrustedRoots...)
	issuers = append(issuers, cfg.TrustedIntermediates...)
	issuers = append(issuers, cfg.UntrustedRoots...)
	issuers = append(issuers, cfg.UntrustedIntermediates...)
	for _, issuer := range issuers {
		if _, ok := crlByIssuer[issuerKey(issuer)]; !ok {
			return nil, ErrMissingCRLForIssuer
		}
	}

	return &Validator{
		trustedRoots:           cfg.TrustedRoots,
		trustedIntermediates:   cfg.TrustedIntermediates,
		untrustedRoots:         cfg.UntrustedRoots,
		untrustedIntermediates: cfg.UntrustedIntermediates,
		issuedCerts:            cfg.IssuedCerts,
		crlByIssuer:            crlByIssuer,
	}, nil
}

// StoreLayout names the directories making up a directory-backed trust
// store: each directory holds zero or more PEM or DER-encoded files of the
// one classification it is named for, with CRLsDir holding one
// revocation list per issuer.
type StoreLayout struct {
	TrustedRootsDir           string
	TrustedIntermediatesDir   string
	UntrustedRootsDir         string
	UntrustedIntermediatesDir string
	IssuedCertsDir            string
	CRLsDir                   string
}

// loadCertDir parses every regular file in dir as a certificate, skipping
// nothing and failing on the first unparsable file. An empty or absent dir
// name yields an empty, non-error result, since every StoreLayout field is
// optional.
func loadCertDir(dir string) ([]*x509.Certificate, error) {
	if dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var certs []*x509.Certificate
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		cert, err := keys.ParseCertificate(data)
		if err != nil {
			return nil, err
		}
		certs = append(certs, cert)
	}
	return certs, nil
}

// loadCRLDir parses every regular file in dir as a revocation list.
func loadCRLDir(dir string) ([]*x509.RevocationList, error) {
	if dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var crls []*x509.RevocationList
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		crl, err := keys.LoadCRL(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		crls = append(crls, crl)
	}
	return crls, nil
}

// NewFromStore builds a Validator by reading and classifying every
// certificate and CRL file named by layout, then delegating to
// NewFromPaths. TrustedIntermediatesDir and UntrustedIntermediatesDir are
// each read in directory order; callers relying on intermediate ordering
// (child-before-parent, as NewFromPaths requires) must name the files so
// that os.ReadDir's lexical order matches the chain order, e.g. by
// numbering them.
func NewFromStore(layout StoreLayout) (*Validator, error) {
	trustedRoots, err := loadCertDir(layout.TrustedRootsDir)
	if err != nil {
		return nil, err
	}
	trustedIntermediates, err := loadCertDir(layout.TrustedIntermediatesDir)
	if err != nil {
		return nil, err
	}
	untrustedRoots, err := loadCertDir(layout.UntrustedRootsDir)
	if err != nil {
		return nil, err
	}
	untrustedIntermediates, err := loadCertDir(layout.UntrustedIntermediatesDir)
	if err != nil {
		return nil, err
	}
	issuedCerts, err := loadCertDir(layout.IssuedCertsDir)
	if err != nil {
		return nil, err
	}
	crls, err := loadCRLDir(layout.CRLsDir)
	if err != nil {
		return nil, err
	}

	return NewFromPaths(PathConfig{
		TrustedRoots:           trustedRoots,
		TrustedIntermediates:   trustedIntermediates,
		UntrustedRoots:         untrustedRoots,
		UntrustedIntermediates: untrustedIntermediates,
		IssuedCerts:            issuedCerts,
		CRLs:                   crls,
	})
}

// isTrustedRoot reports whether cert is byte-identical to a configured
// trusted root.
func (v *Validator) isTrustedRoot(cert *x509.Certificate) bool {
	for _, root := range v.trustedRoots {
		if bytes.Equal(root.Raw, cert.Raw) {
			return true
		}
	}
	return false
}

// isIssuedCert reports whether cert is in the leaf-trusted issued-certs
// list.
func (v *Validator) isIssuedCert(cert *x509.Certificate) bool {
	for _, issued := range v.issuedCerts {
		if bytes.Equal(issued.Raw, cert.Raw) {
			return true
		}
	}
	return false
}

// findIssuer looks up the certificate that issued cert among every known
// root and intermediate (trusted or untrusted).
func (v *Validator) findIssuer(cert *x509.Certificate) *x509.Certificate {
	candidates := make([][]*x509.Certificate, 0, 4)
	candidates = append(candidates, v.trustedIntermediates, v.trustedRoots, v.untrustedIntermediates, v.untrustedRoots)
	for _, list := range candidates {
		for _, candidate := range list {
			if bytes.Equal(candidate.RawSubject, cert.RawIssuer) {
				return candidate
			}
		}
	}
	return nil
}

// checkCRL reports whether cert is revoked by issuer's CRL. Absence of a
// CRL for issuer is a configuration error caught at construction time, so
// here it is treated as chain-incomplete rather than silently passing.
func (v *Validator) checkCRL(cert, issuer *x509.Certificate) ErrorKind {
	crl, ok := v.crlByIssuer[issuerKey(issuer)]
	if !ok {
		return ErrorChainIncomplete
	}
	for _, revoked := range crl.RevokedCertificateEntries {
		if revoked.SerialNumber != nil && cert.SerialNumber != nil && revoked.SerialNumber.Cmp(cert.SerialNumber) == 0 {
			return ErrorRevoked
		}
	}
	return ErrorNone
}

// Validate walks cert's issuer chain, applying the trust rules below:
// a trusted root terminates the walk with success without
// consulting anything above it; an issued-cert is trusted at the leaf but
// its chain must still be traceable for CRL purposes; every non-leaf in
// the walk is cross-checked against its issuer's CRL; the walk fails
// closed if no issuer can be found before reaching a trusted root
// (chain-incomplete for a leaf-trusted certificate, untrusted otherwise).
// A walk that ends at an untrusted self-signed root succeeds only for a
// leaf-trusted certificate.
func (v *Validator) Validate(cert *x509.Certificate) (kind ErrorKind) {
	defer func() { metrics.PKIValidations.WithLabelValues(kind.String()).Inc() }()

	now := time.Now()
	if now.Before(cert.NotBefore) || now.After(cert.NotAfter) {
		return ErrorExpired
	}

	leafTrusted := v.isTrustedRoot(cert) || v.isIssuedCert(cert)
	if !leafTrusted {
		// A self-signed certificate with no configured trust is
		// rejected outright; nothing above it could change that.
		if bytes.Equal(cert.RawIssuer, cert.RawSubject) {
			return ErrorUntrusted
		}
	}

	current := cert
	for {
		if v.isTrustedRoot(current) {
			return ErrorNone
		}

		issuer := v.findIssuer(current)
		if issuer == nil {
			if leafTrusted {
				return ErrorChainIncomplete
			}
			return ErrorUntrusted
		}

		// A self-signed certificate is its own issuer: an untrusted root
		// ends the walk.
		if bytes.Equal(issuer.Raw, current.Raw) {
			if leafTrusted {
				return ErrorNone
			}
			return ErrorUntrusted
		}

		if err := current.CheckSignatureFrom(issuer); err != nil {
			return ErrorSignatureInvalid
		}

		if kind := v.checkCRL(current, issuer); kind != ErrorNone {
			return kind
		}

		if v.isTrustedRoot(issuer) {
			return ErrorNone
		}
		current = issuer
	}
}
