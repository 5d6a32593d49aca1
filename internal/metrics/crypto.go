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

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CryptoOperations tracks provider operations by kind and policy.
	CryptoOperations = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "crypto",
			Name:      "operations_total",
			Help:      "Total number of cryptographic provider operations",
		},
		[]string{"operation", "policy"}, // sign/verify/encrypt/decrypt/pubsub_crypt/certificate_verify, Security Policy URI
	)

	// CryptoErrors tracks provider operation failures by kind and policy.
	CryptoErrors = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "crypto",
			Name:      "errors_total",
			Help:      "Total number of cryptographic provider errors",
		},
		[]string{"operation", "policy"},
	)

	// CryptoOperationDuration tracks provider operation latency.
	CryptoOperationDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "crypto",
			Name:      "operation_duration_seconds",
			Help:      "Cryptographic provider operation duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 2, 15), // 10µs to 163ms
		},
		[]string{"operation", "policy"},
	)

	// ProviderCacheHits tracks ProviderCache.Get hits vs. constructions.
	ProviderCacheHits = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "crypto",
			Name:      "provider_cache_total",
			Help:      "Total ProviderCache.Get calls by outcome",
		},
		[]string{"outcome"}, // hit, constructed
	)

	// PKIValidations tracks pki.Validate outcomes by ErrorKind.
	PKIValidations = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pki",
			Name:      "validations_total",
			Help:      "Total certificate validations by outcome",
		},
		[]string{"result"}, // none, expired, revoked, untrusted, chain-incomplete, signature-invalid, missing-crl
	)
)
