package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotTable_AllocateBijection(t *testing.T) {
	table := NewSlotTable(4)

	for i := uint32(1); i <= 4; i++ {
		slot, err := table.Allocate(int64(i) * 10)
		require.NoError(t, err)
		assert.Equal(t, i, slot.Index)
		assert.Equal(t, slot.Index, slot.Token, "session_token(i).numeric must equal i")
	}
}

func TestSlotTable_FullReturnsError(t *testing.T) {
	table := NewSlotTable(2)
	_, err := table.Allocate(1)
	require.NoError(t, err)
	_, err = table.Allocate(2)
	require.NoError(t, err)

	_, err = table.Allocate(3)
	assert.ErrorIs(t, err, ErrSlotTableFull)
}

func TestSlotTable_SlotZeroNeverAllocated(t *testing.T) {
	table := NewSlotTable(1)
	slot, err := table.Allocate(1)
	require.NoError(t, err)
	assert.NotEqual(t, uint32(0), slot.Index)

	_, err = table.Get(0)
	assert.ErrorIs(t, err, ErrUnknownSlot)
}

func TestSlotTable_ReleaseFreesSlotForReuse(t *testing.T) {
	table := NewSlotTable(1)
	slot, err := table.Allocate(1)
	require.NoError(t, err)
	index := slot.Index

	require.NoError(t, table.Release(index))

	_, err = table.Get(index)
	assert.ErrorIs(t, err, ErrUnknownSlot)

	reallocated, err := table.Allocate(2)
	require.NoError(t, err)
	assert.Equal(t, index, reallocated.Index)
}

func TestSlotTable_CapacityExcludesReservedSlot(t *testing.T) {
	table := NewSlotTable(10)
	assert.Equal(t, uint32(10), table.Capacity())
}
