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
)

// SlotTable is the fixed-size session table: size MAX_SESSIONS+1 with
// slot 0 permanently reserved (never allocated). It is
// accessed from a single event-loop thread; any concurrent access from
// other goroutines MUST go through the event queue that owns this table,
// not through SlotTable's methods directly.
type SlotTable struct {
	slots []SessionSlot
	free  []bool // free[i] == true means slot i is available for allocation
}

// NewSlotTable builds a table with maxSessions allocatable slots plus the
// reserved slot 0.
func NewSlotTable(maxSessions uint32) *SlotTable {
	size := maxSessions + 1
	t := &SlotTable{
		slots: make([]SessionSlot, size),
		free:  make([]bool, size),
	}
	for i := range t.slots {
		t.slots[i].Index = uint32(i)
	}
	for i := uint32(1); i < size; i++ {
		t.free[i] = true
	}
	return t
}

// Allocate reserves the lowest-indexed free slot and returns it bound to a
// numeric session token equal to its index, satisfying the bijection
// property session_token(i).numeric == i. It returns ErrSlotTableFull if
// none remain.
func (t *SlotTable) Allocate(appContext int64) (*SessionSlot, error) {
	for i := uint32(1); i < uint32(len(t.slots)); i++ {
		if t.free[i] {
			t.free[i] = false
			slot := &t.slots[i]
			slot.Token = i
			slot.State = StateCreating
			slot.AppContext = appContext
			slot.createdAt = time.Now()
			slot.correlationID = logger.NewCorrelationID()
			return slot, nil
		}
	}
	return nil, ErrSlotTableFull
}

// Get returns the slot at index, or ErrUnknownSlot if index is out of
// range or not currently allocated.
func (t *SlotTable) Get(index uint32) (*SessionSlot, error) {
	if index == 0 || index >= uint32(len(t.slots)) {
		return nil, ErrUnknownSlot
	}
	if t.free[index] {
		return nil, ErrUnknownSlot
	}
	return &t.slots[index], nil
}

// Release wipes slot's secrets and returns its index to the free pool.
func (t *SlotTable) Release(index uint32) error {
	if index == 0 || index >= uint32(len(t.slots)) {
		return ErrUnknownSlot
	}
	if t.free[index] {
		return nil
	}
	t.slots[index].reset()
	t.free[index] = true
	return nil
}

// Capacity returns MAX_SESSIONS, the number of allocatable (non-reserved)
// slots.
func (t *SlotTable) Capacity() uint32 {
	return uint32(len(t.slots)) - 1
}
