package vm

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestStackPushPopOrder(t *testing.T) {
	s := NewStack()
	one, two := uint256.NewInt(1), uint256.NewInt(2)
	require.NoError(t, s.Push(one))
	require.NoError(t, s.Push(two))
	require.Equal(t, 2, s.Len())

	top, err := s.Pop()
	require.NoError(t, err)
	require.Equal(t, *two, top)

	bottom, err := s.Pop()
	require.NoError(t, err)
	require.Equal(t, *one, bottom)
}

func TestStackUnderflow(t *testing.T) {
	s := NewStack()
	_, err := s.Pop()
	require.ErrorIs(t, err, ErrStackUnderflow)

	_, err = s.Peek(0)
	require.ErrorIs(t, err, ErrStackUnderflow)
}

func TestStackOverflowAtLimit(t *testing.T) {
	s := NewStack()
	for i := 0; i < StackLimit; i++ {
		require.NoError(t, s.Push(uint256.NewInt(uint64(i))))
	}
	err := s.Push(uint256.NewInt(1))
	require.ErrorIs(t, err, ErrStackOverflow)
}

func TestStackSwap(t *testing.T) {
	s := NewStack()
	require.NoError(t, s.Push(uint256.NewInt(1)))
	require.NoError(t, s.Push(uint256.NewInt(2)))
	require.NoError(t, s.Swap(1))

	top, _ := s.Peek(0)
	require.Equal(t, uint64(1), top.Uint64())
	bottom, _ := s.Peek(1)
	require.Equal(t, uint64(2), bottom.Uint64())
}

func TestStackDup(t *testing.T) {
	s := NewStack()
	require.NoError(t, s.Push(uint256.NewInt(7)))
	require.NoError(t, s.Dup(1))
	require.Equal(t, 2, s.Len())

	top, _ := s.Peek(0)
	require.Equal(t, uint64(7), top.Uint64())
	next, _ := s.Peek(1)
	require.Equal(t, uint64(7), next.Uint64())
}
