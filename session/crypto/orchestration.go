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

// Package crypto implements the session crypto orchestration: the client
// and server crypto steps around create-session and activate-session,
// built on top of cryptoprovider, cryptoprovider/keys, cryptoprovider/pki,
// and secretbuf.
package crypto

import (
	"crypto/rsa"
	"crypto/x509"
	"errors"

	"github.com/nerites-labs/opcua-seccore/cryptoprovider"
	"github.com/nerites-labs/opcua-seccore/cryptoprovider/keys"
	"github.com/nerites-labs/opcua-seccore/cryptoprovider/pki"
	"github.com/nerites-labs/opcua-seccore/secretbuf"
	"github.com/nerites-labs/opcua-seccore/session"
)

// ErrEmptyNonce is returned whenever a protocol step requires a non-empty
// peer nonce and receives an empty one.
var ErrEmptyNonce = errors.New("session/crypto: required nonce is empty")

// ChannelConfig carries the peer and local identity material a crypto
// step needs: the peer certificate (as received over the channel), the
// local certificate, and the local private key (loaded on demand and
// freed immediately after use). Trust, if set, is consulted to validate
// PeerCertificate against the trust store and the bound provider's policy
// before the certificate is used in any signature check; a nil Trust skips
// that validation, leaving it to the caller to have done it earlier.
type ChannelConfig struct {
	PeerCertificate *x509.Certificate
	LocalCertificate *x509.Certificate
	LocalPrivateKeyPEM []byte
	LocalPrivateKeyPassword []byte
	Trust *pki.Validator
}

// verifyPeerCertificate runs provider.CertificateVerify against cfg's peer
// certificate when cfg.Trust is configured. It is a no-op otherwise.
func verifyPeerCertificate(provider *cryptoprovider.Provider, cfg ChannelConfig) error {
	if cfg.Trust == nil {
		return nil
	}
	return provider.CertificateVerify(cfg.Trust, cfg.PeerCertificate)
}

// ClientCreateSessionRequest generates nonce_client of the policy's nonce
// length and stashes it in the slot, unless the policy is None (no nonce
// or signature needed). The create-session request's signature field is
// never populated here.
func ClientCreateSessionRequest(provider *cryptoprovider.Provider, slot *session.SessionSlot) error {
	if provider.Policy().IsNone() {
		return nil
	}
	nonce, err := provider.GenerateSecureChannelNonce()
	if err != nil {
		return err
	}
	slot.NonceClient.DeleteClear()
	slot.NonceClient = nonce
	return nil
}

// ClientCreateSessionResponseCheck stores server_nonce, validates the
// peer certificate against cfg.Trust (if configured), derives the
// certificate's public key, and verifies the server's signature over
// (our_certificate ∥ our_client_nonce). The response is rejected on any
// failure.
func ClientCreateSessionResponseCheck(provider *cryptoprovider.Provider, slot *session.SessionSlot, cfg ChannelConfig, serverNonce, serverSignature []byte) error {
	if provider.Policy().IsNone() {
		return nil
	}
	if len(serverNonce) == 0 {
		return ErrEmptyNonce
	}
	if err := verifyPeerCertificate(provider, cfg); err != nil {
		return err
	}

	nonceBuf, err := secretbuf.NewFromExposed(serverNonce)
	if err != nil {
		return err
	}
	slot.NonceServer.DeleteClear()
	slot.NonceServer = nonceBuf

	peerPub, err := keys.PublicKey(cfg.PeerCertificate)
	if err != nil {
		return err
	}

	clientNonceView, err := slot.NonceClient.Expose()
	if err != nil {
		return err
	}
	defer slot.NonceClient.Unexpose()

	toVerify := append(append([]byte(nil), cfg.LocalCertificate.Raw...), clientNonceView...)
	return provider.AsymmetricVerify(toVerify, peerPub, serverSignature)
}

// ClientActivateSessionRequestCrypto requires a non-empty server_nonce,
// signs (server_certificate ∥ server_nonce) with
// the client's private key, and store the signature bytes and algorithm
// URI in the slot. The private key is loaded and dropped within this call
// — it is never retained in the slot.
//
// This never silently downgrades a signing failure to success: apart from
// the None policy, which needs no signature and returns nil at once, every
// return path below either produces a fully populated SignatureData or a
// non-nil error, so a caller cannot observe a "succeeded" status paired
// with an empty or partial signature.
func ClientActivateSessionRequestCrypto(provider *cryptoprovider.Provider, slot *session.SessionSlot, cfg ChannelConfig) error {
	if provider.Policy().IsNone() {
		return nil
	}

	serverNonceView, err := slot.NonceServer.Expose()
	if err != nil {
		return err
	}
	defer slot.NonceServer.Unexpose()
	if len(serverNonceView) == 0 {
		return ErrEmptyNonce
	}

	toSign := append(append([]byte(nil), cfg.PeerCertificate.Raw...), serverNonceView...)

	privKey, err := keys.ParsePrivateKey(cfg.LocalPrivateKeyPEM, cfg.LocalPrivateKeyPassword)
	if err != nil {
		return err
	}
	signature, err := provider.AsymmetricSign(toSign, privKey)
	zeroRSAKey(privKey)
	if err != nil {
		return err
	}

	slot.ClientSignature.Clear()
	slot.ClientSignature = session.SignatureData{
		Algorithm: provider.Policy().SigningAlgorithmURI,
		Signature: signature,
	}
	return nil
}

// ServerCreateSessionRequestCrypto generates nonce_server, signs
// (client_certificate ∥ client_nonce) with the server private key, and
// emits the server's SignatureData. Errors leave the
// slot's state transition to the caller (the session state machine moves
// creating -> closed on failure).
func ServerCreateSessionRequestCrypto(provider *cryptoprovider.Provider, slot *session.SessionSlot, cfg ChannelConfig, clientNonce []byte) (session.SignatureData, error) {
	if provider.Policy().IsNone() {
		return session.SignatureData{}, nil
	}
	if len(clientNonce) == 0 {
		return session.SignatureData{}, ErrEmptyNonce
	}

	nonce, err := provider.GenerateSecureChannelNonce()
	if err != nil {
		return session.SignatureData{}, err
	}
	slot.NonceServer.DeleteClear()
	slot.NonceServer = nonce

	toSign := append(append([]byte(nil), cfg.LocalCertificate.Raw...), clientNonce...)

	privKey, err := keys.ParsePrivateKey(cfg.LocalPrivateKeyPEM, cfg.LocalPrivateKeyPassword)
	if err != nil {
		return session.SignatureData{}, err
	}
	signature, err := provider.AsymmetricSign(toSign, privKey)
	zeroRSAKey(privKey)
	if err != nil {
		return session.SignatureData{}, err
	}

	sig := session.SignatureData{
		Algorithm: provider.Policy().SigningAlgorithmURI,
		Signature: signature,
	}
	slot.ServerSignature.Clear()
	slot.ServerSignature = sig
	return sig, nil
}

// ServerActivateSessionCheck verifies the client's signature over
// (server_certificate ∥ server_nonce) with the peer public key, returning
// the error on failure (closing the session is left to the caller's state
// machine); on success, renews nonce_server with fresh
// entropy to prevent replay on the next activation. The peer certificate
// is validated against cfg.Trust first, when configured.
func ServerActivateSessionCheck(provider *cryptoprovider.Provider, slot *session.SessionSlot, cfg ChannelConfig, clientSignature []byte) error {
	if provider.Policy().IsNone() {
		return nil
	}
	if err := verifyPeerCertificate(provider, cfg); err != nil {
		return err
	}

	serverNonceView, err := slot.NonceServer.Expose()
	if err != nil {
		return err
	}
	toVerify := append(append([]byte(nil), cfg.LocalCertificate.Raw...), serverNonceView...)
	slot.NonceServer.Unexpose()

	peerPub, err := keys.PublicKey(cfg.PeerCertificate)
	if err != nil {
		return err
	}
	if err := provider.AsymmetricVerify(toVerify, peerPub, clientSignature); err != nil {
		return err
	}

	fresh, err := provider.GenerateSecureChannelNonce()
	if err != nil {
		return err
	}
	slot.NonceServer.DeleteClear()
	slot.NonceServer = fresh
	return nil
}

// zeroRSAKey best-effort-wipes the private exponent material of an RSA
// key right after it signs once, even though Go's garbage collector, not
// an explicit free, owns the backing allocation.
func zeroRSAKey(k *rsa.PrivateKey) {
	if k == nil {
		return
	}
	if k.D != nil {
		k.D.SetInt64(0)
	}
	for _, p := range k.Primes {
		if p != nil {
			p.SetInt64(0)
		}
	}
}
