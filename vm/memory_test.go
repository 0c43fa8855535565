package vm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryResizeZeroFills(t *testing.T) {
	m := NewMemory()
	m.Resize(64)
	require.Equal(t, 64, m.Len())
	require.Equal(t, make([]byte, 64), m.Data())
}

func TestMemoryResizeNeverShrinks(t *testing.T) {
	m := NewMemory()
	m.Resize(64)
	m.Resize(32)
	require.Equal(t, 64, m.Len())
}

func TestMemorySetAndGet(t *testing.T) {
	m := NewMemory()
	m.Set(0, 4, []byte{1, 2, 3, 4})
	require.Equal(t, []byte{1, 2, 3, 4}, m.Get(0, 4))
}

func TestMemorySet32LeftPads(t *testing.T) {
	m := NewMemory()
	m.Set32(0, []byte{0xaa})
	word := m.Get(0, 32)
	require.Equal(t, byte(0xaa), word[31])
	for i := 0; i < 31; i++ {
		require.Equal(t, byte(0), word[i])
	}
}

func TestMemoryWords(t *testing.T) {
	m := NewMemory()
	m.Resize(33)
	require.Equal(t, uint64(2), m.Words())
}
