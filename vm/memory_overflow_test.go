package vm

import (
	"math"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func newTestMachine(t *testing.T) *machine {
	t.Helper()
	return &machine{
		gas:       math.MaxUint64,
		stack:     NewStack(),
		memory:    NewMemory(),
		jumpdests: make(map[uint64]bool),
	}
}

// TestWordsForRejectsOverflow covers the SHA3/RETURN/REVERT/LOGn/CALL
// class of bug: an offset and size that individually fit uint64 but
// whose sum wraps near zero must fail closed, not be silently
// accepted as "no memory expansion needed".
func TestWordsForRejectsOverflow(t *testing.T) {
	_, ok := wordsFor(math.MaxUint64-1, 2)
	require.False(t, ok)

	_, ok = wordsFor(1<<63, 1<<63)
	require.False(t, ok)

	words, ok := wordsFor(0, 32)
	require.True(t, ok)
	require.Equal(t, uint64(1), words)
}

func TestChargeMemoryRejectsOverflowingRange(t *testing.T) {
	m := newTestMachine(t)
	require.False(t, m.chargeMemory(math.MaxUint64-16, 32))
}

func TestU256OffsetsRejectsOverflowingSum(t *testing.T) {
	offset := uint256.NewInt(math.MaxUint64 - 1)
	size := uint256.NewInt(2)
	_, _, ok := u256Offsets(offset, size)
	require.False(t, ok)
}

func TestMemoryGetSetFailSafeOnOverflowingRange(t *testing.T) {
	m := NewMemory()
	// Would panic on a naive Resize(offset+size) if offset+size wrapped.
	require.NotPanics(t, func() {
		require.Nil(t, m.Get(math.MaxUint64-16, 32))
	})
	require.NotPanics(t, func() {
		m.Set(math.MaxUint64-16, 32, []byte{1, 2, 3})
	})
}
