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
	"time"

	"github.com/nerites-labs/opcua-seccore/internal/metrics"
)

// recordOperation instruments a provider operation against the
// process-wide Prometheus registry: an operations counter, an error
// counter on failure, and a duration histogram. policyLabel is the
// Security Policy URI, or "pubsub" for PubSub-only providers.
func (p *Provider) recordOperation(operation string, start time.Time, err error) {
	policyLabel := string(p.policy.URI)
	if policyLabel == "" {
		policyLabel = "pubsub"
	}
	metrics.CryptoOperations.WithLabelValues(operation, policyLabel).Inc()
	metrics.CryptoOperationDuration.WithLabelValues(operation, policyLabel).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.CryptoErrors.WithLabelValues(operation, policyLabel).Inc()
	}
}
