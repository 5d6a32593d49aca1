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
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/nerites-labs/opcua-seccore/internal/metrics"
	"github.com/nerites-labs/opcua-seccore/policy"
)

// ProviderCache hoists Provider construction into a process-wide,
// immutable-after-construction object keyed by Security Policy URI: many
// session slots bind to the same policy, and a Provider carries no
// per-session state, so repeated construction is wasted allocation.
// singleflight collapses concurrent first-lookups for the same URI into a
// single construction.
type ProviderCache struct {
	group singleflight.Group
	mu    sync.Mutex
	byURI map[policy.URI]*Provider
}

// NewProviderCache returns an empty, ready-to-use cache.
func NewProviderCache() *ProviderCache {
	return &ProviderCache{byURI: make(map[policy.URI]*Provider)}
}

// Get returns the cached Provider for uri, constructing and caching it on
// first use. Concurrent callers requesting the same uri share one
// construction.
func (c *ProviderCache) Get(uri policy.URI) (*Provider, error) {
	c.mu.Lock()
	if p, ok := c.byURI[uri]; ok {
		c.mu.Unlock()
		metrics.ProviderCacheHits.WithLabelValues("hit").Inc()
		return p, nil
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do(string(uri), func() (interface{}, error) {
		c.mu.Lock()
		if p, ok := c.byURI[uri]; ok {
			c.mu.Unlock()
			return p, nil
		}
		c.mu.Unlock()

		p, err := New(uri)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.byURI[uri] = p
		c.mu.Unlock()
		metrics.ProviderCacheHits.WithLabelValues("constructed").Inc()
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Provider), nil
}
