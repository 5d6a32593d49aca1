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

// Package metrics exposes the Prometheus metrics surfacing the ambient
// operations of this module: provider cryptographic operations, PKI
// validation outcomes, and session lifecycle transitions.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "opcua_seccore"

// Registry is the Prometheus registry every metric in this package is
// registered against: a single package-local registry rather than
// prometheus.DefaultRegisterer.
var Registry = prometheus.NewRegistry()
