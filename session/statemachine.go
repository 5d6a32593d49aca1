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

	"github.com/nerites-labs/opcua-seccore/internal/logger"
	"github.com/nerites-labs/opcua-seccore/internal/metrics"
)

// StateMachine drives the session slot table through its state
// transition table. It owns the single event-loop's view of sessions:
// callers MUST NOT call its methods from more than one goroutine
// concurrently.
type StateMachine struct {
	table    *SlotTable
	notifier Notifier
	timers   TimerScheduler
	now      func() time.Time
}

// NewStateMachine builds a StateMachine over table, delivering
// notifications to notifier and scheduling keep-alive timers through
// timers. now defaults to time.Now if nil (tests may override it).
func NewStateMachine(table *SlotTable, notifier Notifier, timers TimerScheduler, now func() time.Time) *StateMachine {
	if now == nil {
		now = time.Now
	}
	return &StateMachine{table: table, notifier: notifier, timers: timers, now: now}
}

// BeginCreating allocates a slot and puts it in StateCreating, mirroring
// both "closed -> creating" edges of the transition table (the distinction
// between the client-initiated and server-initiated edge is which side
// calls this method, not a difference in state). When the table is full it
// emits activation-failure against the reserved index 0 and returns
// ErrSlotTableFull.
func (m *StateMachine) BeginCreating(appContext int64) (*SessionSlot, error) {
	slot, err := m.table.Allocate(appContext)
	if err != nil {
		metrics.SessionsCreated.WithLabelValues("rejected").Inc()
		if m.notifier != nil {
			m.notifier.OnActivationFailure(0, appContext, CloseReasonActivationFailure)
		}
		return nil, err
	}
	metrics.SessionsCreated.WithLabelValues("created").Inc()
	return slot, nil
}

// CompleteCreating transitions a StateCreating slot to StateSCActivating
// on successful create-session response processing (nonce and signature
// verified), or closes it with activation-failure otherwise.
func (m *StateMachine) CompleteCreating(index uint32, ok bool) error {
	slot, err := m.table.Get(index)
	if err != nil {
		return err
	}
	if slot.State != StateCreating {
		return ErrInvalidTransition
	}
	if !ok {
		return m.closeWithReason(slot, CloseReasonActivationFailure)
	}
	slot.State = StateSCActivating
	metrics.SessionActivationDuration.WithLabelValues("create_session").Observe(m.now().Sub(slot.createdAt).Seconds())
	return nil
}

// BeginUserActivating transitions sc-activating -> user-activating when
// the channel-level activate_session succeeds and user activation starts.
func (m *StateMachine) BeginUserActivating(index uint32) error {
	slot, err := m.table.Get(index)
	if err != nil {
		return err
	}
	if slot.State != StateSCActivating {
		return ErrInvalidTransition
	}
	slot.State = StateUserActivating
	return nil
}

// CompleteUserActivation transitions user-activating -> user-activated on
// success (arming the keep-alive timer and emitting `activated`), or to
// closed with activation-failure on user rejection or signature failure.
func (m *StateMachine) CompleteUserActivation(index uint32, ok bool, revisedTimeout time.Duration) error {
	slot, err := m.table.Get(index)
	if err != nil {
		return err
	}
	if slot.State != StateUserActivating {
		return ErrInvalidTransition
	}
	if !ok {
		return m.closeWithReason(slot, CloseReasonActivationFailure)
	}
	slot.State = StateUserActivated
	slot.RevisedSessionTimeout = revisedTimeout
	slot.LatestMsgReceived = m.now()
	m.armKeepAlive(slot)
	metrics.SessionsActive.Inc()
	metrics.SessionActivationDuration.WithLabelValues("activate_session").Observe(m.now().Sub(slot.createdAt).Seconds())
	if m.notifier != nil {
		m.notifier.OnActivated(slot.Index, slot.AppContext)
	}
	return nil
}

// NoteChannelLost transitions sc-activating or user-activated into
// sc-orphaned.
func (m *StateMachine) NoteChannelLost(index uint32) error {
	slot, err := m.table.Get(index)
	if err != nil {
		return err
	}
	switch slot.State {
	case StateSCActivating, StateUserActivated:
		wasActivated := slot.State == StateUserActivated
		slot.State = StateSCOrphaned
		if wasActivated {
			m.cancelKeepAlive(slot)
			metrics.SessionsActive.Dec()
		}
		metrics.SessionsOrphaned.Inc()
		return nil
	default:
		return ErrInvalidTransition
	}
}

// ReactivateOrphan transitions sc-orphaned back to sc-activating when a
// new channel activates on the orphaned session.
func (m *StateMachine) ReactivateOrphan(index uint32) error {
	slot, err := m.table.Get(index)
	if err != nil {
		return err
	}
	if slot.State != StateSCOrphaned {
		return ErrInvalidTransition
	}
	slot.State = StateSCActivating
	metrics.SessionsOrphaned.Dec()
	return nil
}

// Reactivate transitions user-activated back into sc-activating or
// user-activating (activation on a new channel, or for a new user),
// emitting `reactivating`.
func (m *StateMachine) Reactivate(index uint32, toUserActivating bool) error {
	slot, err := m.table.Get(index)
	if err != nil {
		return err
	}
	if slot.State != StateUserActivated {
		return ErrInvalidTransition
	}
	m.cancelKeepAlive(slot)
	metrics.SessionsActive.Dec()
	if toUserActivating {
		slot.State = StateUserActivating
	} else {
		slot.State = StateSCActivating
	}
	if m.notifier != nil {
		m.notifier.OnReactivating(slot.Index, slot.AppContext)
	}
	return nil
}

// BeginClosing transitions user-activated into closing on an application
// close request. Close is best-effort: the caller completes the
// transition to closed via CompleteClosing once the transport confirms,
// or via ForceClosed on transport timeout.
func (m *StateMachine) BeginClosing(index uint32) error {
	slot, err := m.table.Get(index)
	if err != nil {
		return err
	}
	if slot.State != StateUserActivated {
		return ErrInvalidTransition
	}
	m.cancelKeepAlive(slot)
	metrics.SessionsActive.Dec()
	slot.State = StateClosing
	return nil
}

// CompleteClosing finalizes a closing slot on receipt of the close
// response.
func (m *StateMachine) CompleteClosing(index uint32) error {
	slot, err := m.table.Get(index)
	if err != nil {
		return err
	}
	if slot.State != StateClosing {
		return ErrInvalidTransition
	}
	return m.closeWithReason(slot, CloseReasonNormal)
}

// ForceClosed forces a closing slot to closed when the transport-level
// close times out; cancellation is best-effort, never guaranteed.
func (m *StateMachine) ForceClosed(index uint32) error {
	slot, err := m.table.Get(index)
	if err != nil {
		return err
	}
	if slot.State != StateClosing {
		return ErrInvalidTransition
	}
	return m.closeWithReason(slot, CloseReasonTransportTimeout)
}

// NoteMessageReceived updates latest_msg_received on any service message
// received on an active session.
func (m *StateMachine) NoteMessageReceived(index uint32) error {
	slot, err := m.table.Get(index)
	if err != nil {
		return err
	}
	slot.LatestMsgReceived = m.now()
	return nil
}

// FireKeepAlive is invoked (re-entering the event loop) when slot's
// keep-alive timer fires. If the idle window has reached
// revised_session_timeout the session closes; otherwise the timer is
// rearmed for the remaining interval.
func (m *StateMachine) FireKeepAlive(index uint32) error {
	slot, err := m.table.Get(index)
	if err != nil {
		return err
	}
	if slot.State != StateUserActivated {
		return nil
	}
	elapsed := m.now().Sub(slot.LatestMsgReceived)
	if elapsed >= slot.RevisedSessionTimeout {
		return m.closeWithReason(slot, CloseReasonKeepAliveExpired)
	}
	remaining := slot.RevisedSessionTimeout - elapsed
	m.rearmKeepAlive(slot, remaining)
	return nil
}

func (m *StateMachine) armKeepAlive(slot *SessionSlot) {
	if m.timers == nil {
		return
	}
	index := slot.Index
	id := m.timers.Create(slot.RevisedSessionTimeout, func() { _ = m.FireKeepAlive(index) })
	slot.ExpirationTimerID = id
}

// rearmKeepAlive only replaces the stored timer id once the new timer is
// successfully scheduled (id != 0).
func (m *StateMachine) rearmKeepAlive(slot *SessionSlot, remaining time.Duration) {
	if m.timers == nil {
		return
	}
	index := slot.Index
	id := m.timers.Create(remaining, func() { _ = m.FireKeepAlive(index) })
	if id != 0 {
		slot.ExpirationTimerID = id
	}
}

func (m *StateMachine) cancelKeepAlive(slot *SessionSlot) {
	if m.timers != nil && slot.ExpirationTimerID != 0 {
		m.timers.Cancel(slot.ExpirationTimerID)
	}
	slot.ExpirationTimerID = 0
}

// closeWithReason transitions slot to closed, releases it back to the
// slot table, and emits the appropriate notification: activation-failure
// when closing out of a *-activating state, closed otherwise.
func (m *StateMachine) closeWithReason(slot *SessionSlot, reason CloseReason) error {
	wasActivating := slot.State == StateCreating || slot.State == StateSCActivating || slot.State == StateUserActivating
	previousState := slot.State
	correlationID := slot.correlationID
	m.cancelKeepAlive(slot)
	index, appContext := slot.Index, slot.AppContext
	slot.State = StateClosed

	if err := m.table.Release(index); err != nil {
		return err
	}

	metrics.SessionsClosed.WithLabelValues(reason.String()).Inc()
	switch previousState {
	case StateUserActivated:
		metrics.SessionsActive.Dec()
	case StateSCOrphaned:
		metrics.SessionsOrphaned.Dec()
	}

	if reason == CloseReasonActivationFailure || reason == CloseReasonKeepAliveExpired {
		logger.Warn("session closed",
			logger.CorrelationID(correlationID),
			logger.SessionIndex(index),
			logger.SessionState(previousState.String()),
			logger.String("reason", reason.String()),
		)
	} else {
		logger.Info("session closed",
			logger.CorrelationID(correlationID),
			logger.SessionIndex(index),
			logger.String("reason", reason.String()),
		)
	}

	if m.notifier == nil {
		return nil
	}
	if wasActivating {
		m.notifier.OnActivationFailure(index, appContext, reason)
	} else {
		m.notifier.OnClosed(index, appContext, reason)
	}
	return nil
}
