package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu                sync.Mutex
	activated         []uint32
	reactivating      []uint32
	activationFailure []uint32
	closed            []uint32
	lastCloseReason   CloseReason
}

func (r *recordingNotifier) OnActivated(sessionIndex uint32, appContext int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activated = append(r.activated, sessionIndex)
}
func (r *recordingNotifier) OnReactivating(sessionIndex uint32, appContext int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reactivating = append(r.reactivating, sessionIndex)
}
func (r *recordingNotifier) OnActivationFailure(sessionIndex uint32, appContext int64, reason CloseReason) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activationFailure = append(r.activationFailure, sessionIndex)
	r.lastCloseReason = reason
}
func (r *recordingNotifier) OnClosed(sessionIndex uint32, appContext int64, reason CloseReason) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = append(r.closed, sessionIndex)
	r.lastCloseReason = reason
}

type fakeTimers struct {
	mu      sync.Mutex
	nextID  TimerID
	pending map[TimerID]func()
	created int
	cancelled int
}

func newFakeTimers() *fakeTimers {
	return &fakeTimers{pending: make(map[TimerID]func())}
}

func (f *fakeTimers) Create(timeout time.Duration, fire func()) TimerID {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := f.nextID
	f.pending[id] = fire
	f.created++
	return id
}

func (f *fakeTimers) Cancel(id TimerID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.pending, id)
	f.cancelled++
}

func (f *fakeTimers) fire(id TimerID) {
	f.mu.Lock()
	cb, ok := f.pending[id]
	f.mu.Unlock()
	if ok {
		cb()
	}
}

func newTestMachine(maxSessions uint32) (*StateMachine, *SlotTable, *recordingNotifier, *fakeTimers) {
	table := NewSlotTable(maxSessions)
	notifier := &recordingNotifier{}
	timers := newFakeTimers()
	m := NewStateMachine(table, notifier, timers, nil)
	return m, table, notifier, timers
}

func TestStateMachine_HappyPathToActivated(t *testing.T) {
	m, _, notifier, _ := newTestMachine(4)

	slot, err := m.BeginCreating(42)
	require.NoError(t, err)
	assert.Equal(t, StateCreating, slot.State)

	require.NoError(t, m.CompleteCreating(slot.Index, true))
	assert.Equal(t, StateSCActivating, slot.State)

	require.NoError(t, m.BeginUserActivating(slot.Index))
	assert.Equal(t, StateUserActivating, slot.State)

	require.NoError(t, m.CompleteUserActivation(slot.Index, true, 30*time.Second))
	assert.Equal(t, StateUserActivated, slot.State)

	require.Equal(t, []uint32{slot.Index}, notifier.activated)
}

func TestStateMachine_CreatingFailureYieldsActivationFailure(t *testing.T) {
	m, table, notifier, _ := newTestMachine(4)

	slot, err := m.BeginCreating(7)
	require.NoError(t, err)
	index := slot.Index

	require.NoError(t, m.CompleteCreating(index, false))
	assert.Equal(t, []uint32{index}, notifier.activationFailure)
	assert.Equal(t, CloseReasonActivationFailure, notifier.lastCloseReason)

	_, err = table.Get(index)
	assert.ErrorIs(t, err, ErrUnknownSlot, "slot must be released back to the table")
}

func TestStateMachine_ChannelLostOrphansThenReactivates(t *testing.T) {
	m, _, _, _ := newTestMachine(4)

	slot, err := m.BeginCreating(1)
	require.NoError(t, err)
	require.NoError(t, m.CompleteCreating(slot.Index, true))

	require.NoError(t, m.NoteChannelLost(slot.Index))
	assert.Equal(t, StateSCOrphaned, slot.State)

	require.NoError(t, m.ReactivateOrphan(slot.Index))
	assert.Equal(t, StateSCActivating, slot.State)
}

func TestStateMachine_CloseSessionFlow(t *testing.T) {
	m, _, notifier, _ := newTestMachine(4)

	slot, err := m.BeginCreating(1)
	require.NoError(t, err)
	require.NoError(t, m.CompleteCreating(slot.Index, true))
	require.NoError(t, m.BeginUserActivating(slot.Index))
	require.NoError(t, m.CompleteUserActivation(slot.Index, true, time.Minute))

	index := slot.Index
	require.NoError(t, m.BeginClosing(index))
	assert.Equal(t, StateClosing, slot.State)

	require.NoError(t, m.CompleteClosing(index))
	assert.Equal(t, []uint32{index}, notifier.closed)
	assert.Equal(t, CloseReasonNormal, notifier.lastCloseReason)
}

func TestStateMachine_KeepAliveExpiryClosesSession(t *testing.T) {
	table := NewSlotTable(4)
	notifier := &recordingNotifier{}
	timers := newFakeTimers()

	current := time.Unix(1000, 0)
	nowFn := func() time.Time { return current }
	m := NewStateMachine(table, notifier, timers, nowFn)

	slot, err := m.BeginCreating(1)
	require.NoError(t, err)
	require.NoError(t, m.CompleteCreating(slot.Index, true))
	require.NoError(t, m.BeginUserActivating(slot.Index))
	require.NoError(t, m.CompleteUserActivation(slot.Index, true, 10*time.Second))

	index := slot.Index
	timerID := slot.ExpirationTimerID
	require.NotZero(t, timerID)

	// Advance past the timeout with no message received in between.
	current = current.Add(11 * time.Second)
	timers.fire(timerID)

	assert.Equal(t, []uint32{index}, notifier.closed)
	assert.Equal(t, CloseReasonKeepAliveExpired, notifier.lastCloseReason)
}

func TestStateMachine_KeepAliveRearmsWhenMessageReceivedRecently(t *testing.T) {
	table := NewSlotTable(4)
	notifier := &recordingNotifier{}
	timers := newFakeTimers()

	current := time.Unix(2000, 0)
	nowFn := func() time.Time { return current }
	m := NewStateMachine(table, notifier, timers, nowFn)

	slot, err := m.BeginCreating(1)
	require.NoError(t, err)
	require.NoError(t, m.CompleteCreating(slot.Index, true))
	require.NoError(t, m.BeginUserActivating(slot.Index))
	require.NoError(t, m.CompleteUserActivation(slot.Index, true, 10*time.Second))

	index := slot.Index
	firstTimer := slot.ExpirationTimerID

	// A message arrives just before the timer fires.
	current = current.Add(9 * time.Second)
	require.NoError(t, m.NoteMessageReceived(index))

	current = current.Add(1 * time.Second) // total elapsed since creation: 10s, but only 1s since message
	timers.fire(firstTimer)

	assert.Empty(t, notifier.closed)
	assert.NotEqual(t, firstTimer, slot.ExpirationTimerID, "timer must be rearmed with a fresh id")
}

func TestStateMachine_ReactivateFromUserActivatedEmitsReactivating(t *testing.T) {
	m, _, notifier, _ := newTestMachine(4)

	slot, err := m.BeginCreating(1)
	require.NoError(t, err)
	require.NoError(t, m.CompleteCreating(slot.Index, true))
	require.NoError(t, m.BeginUserActivating(slot.Index))
	require.NoError(t, m.CompleteUserActivation(slot.Index, true, time.Minute))

	require.NoError(t, m.Reactivate(slot.Index, true))
	assert.Equal(t, StateUserActivating, slot.State)
	assert.Equal(t, []uint32{slot.Index}, notifier.reactivating)
}

func TestStateMachine_InvalidTransitionRejected(t *testing.T) {
	m, _, _, _ := newTestMachine(4)
	slot, err := m.BeginCreating(1)
	require.NoError(t, err)

	err = m.BeginUserActivating(slot.Index) // still in StateCreating
	assert.ErrorIs(t, err, ErrInvalidTransition)
}
