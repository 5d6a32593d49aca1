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

package logger

import "github.com/google/uuid"

// NewCorrelationID returns a fresh trace identifier for attaching to a
// related run of log lines (a session activation attempt, a PKI
// validation, a crypto handshake), letting the lines be grouped by
// searching this id even though none of this module's data model defines
// a request/trace id of its own.
func NewCorrelationID() string {
	return uuid.NewString()
}

// CorrelationID logs a correlation id produced by NewCorrelationID.
func CorrelationID(id string) Field { return Field{Key: "correlation_id", Value: id} }
