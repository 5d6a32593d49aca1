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

// Package cryptoprovider implements the cryptographic provider
// abstraction: a Security Policy-bound set of symmetric, asymmetric,
// random, and key-derivation primitives, plus password-based key
// derivation via PBKDF2 and policy-aware certificate verification.
package cryptoprovider

import (
	"crypto/rand"
	"io"

	"github.com/nerites-labs/opcua-seccore/policy"
)

// Provider binds a chosen Security Policy to concrete primitive
// operations. It is immutable after construction and MAY be shared by
// reference across session slots; a process-wide cache is provided by
// ProviderCache so that construction happens once per policy.
type Provider struct {
	policy       policy.Policy
	pubsub       *policy.PubSubPolicy
	randomSource io.Reader
}

// New constructs a Provider for a client-server Security Policy URI. It
// fails with InvalidParameters on an unrecognized URI.
func New(uri policy.URI) (*Provider, error) {
	p, err := policy.Lookup(uri)
	if err != nil {
		return nil, newStatus(StatusInvalidParameters, err)
	}
	return &Provider{policy: p, randomSource: rand.Reader}, nil
}

// NewPubSub constructs a Provider for the PubSub Security Policy URI.
func NewPubSub(uri policy.PubSubURI) (*Provider, error) {
	p, err := policy.LookupPubSub(uri)
	if err != nil {
		return nil, newStatus(StatusInvalidParameters, err)
	}
	return &Provider{pubsub: &p, randomSource: rand.Reader}, nil
}

// Policy returns the client-server Security Policy this provider was
// constructed with. It is the zero Policy if the provider is PubSub-only.
func (p *Provider) Policy() policy.Policy { return p.policy }

// PubSubPolicy returns the PubSub Security Policy this provider was
// constructed with, and whether one is set.
func (p *Provider) PubSubPolicy() (policy.PubSubPolicy, bool) {
	if p.pubsub == nil {
		return policy.PubSubPolicy{}, false
	}
	return *p.pubsub, true
}

// requireClientServer returns InvalidParameters if this provider was
// constructed for PubSub only.
func (p *Provider) requireClientServer() error {
	if p.pubsub != nil && p.policy.URI == "" {
		return newStatus(StatusInvalidParameters, ErrUnsupportedForPolicy)
	}
	return nil
}

// requirePubSub returns InvalidParameters if this provider was not
// constructed for the PubSub policy.
func (p *Provider) requirePubSub() error {
	if p.pubsub == nil {
		return newStatus(StatusInvalidParameters, ErrUnsupportedForPolicy)
	}
	return nil
}
