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

package session

import (
	"time"

	"github.com/nerites-labs/opcua-seccore/secretbuf"
)

// SignatureData pairs opaque signature bytes with the signing-algorithm
// URI they were produced under.
type SignatureData struct {
	Algorithm string
	Signature []byte
}

// Clear wipes the signature bytes. Safe on a nil receiver.
func (s *SignatureData) Clear() {
	if s == nil {
		return
	}
	for i := range s.Signature {
		s.Signature[i] = 0
	}
	s.Signature = nil
}

// SessionSlot is the per-session record: the numeric session token, both
// nonces (held as secret buffers so they wipe on teardown), the signature
// data exchanged during activation, opaque user identity references, the
// caller's app_context, and keep-alive bookkeeping.
type SessionSlot struct {
	Index   uint32
	Token   uint32 // bijective with Index
	State   State
	AppContext int64

	NonceClient *secretbuf.SecretBuffer
	NonceServer *secretbuf.SecretBuffer

	ClientSignature SignatureData
	ServerSignature SignatureData

	UserServer interface{} // opaque server-side user identity reference
	UserClient interface{} // opaque client-side user identity reference

	RevisedSessionTimeout time.Duration
	LatestMsgReceived     time.Time
	ExpirationTimerID     TimerID

	createdAt     time.Time // set on allocation, used to measure activation latency
	correlationID string    // attached to every log line for this session's lifetime
}

// reset clears a slot back to its unallocated zero state, wiping every
// secret it held.
func (s *SessionSlot) reset() {
	s.NonceClient.DeleteClear()
	s.NonceServer.DeleteClear()
	s.ClientSignature.Clear()
	s.ServerSignature.Clear()
	*s = SessionSlot{Index: s.Index}
}
