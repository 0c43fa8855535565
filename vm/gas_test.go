package vm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryGasCostFormula(t *testing.T) {
	// C_mem(w) = 3w + floor(w^2/512), §4.8.
	require.Equal(t, uint64(0), memoryGasCost(0))
	require.Equal(t, uint64(3), memoryGasCost(1))
	require.Equal(t, uint64(3*100+100*100/512), memoryGasCost(100))
}

func TestMemoryExpansionCostOnlyChargesGrowth(t *testing.T) {
	require.Equal(t, uint64(0), memoryExpansionCost(10, 10))
	require.Equal(t, uint64(0), memoryExpansionCost(10, 5))
	require.Equal(t, memoryGasCost(20)-memoryGasCost(10), memoryExpansionCost(10, 20))
}

func TestCeilWords(t *testing.T) {
	require.Equal(t, uint64(0), ceilWords(0))
	require.Equal(t, uint64(1), ceilWords(1))
	require.Equal(t, uint64(1), ceilWords(32))
	require.Equal(t, uint64(2), ceilWords(33))
}

func TestByteSizeSkipsLeadingZeroes(t *testing.T) {
	require.Equal(t, uint64(0), byteSize([]byte{0, 0, 0}))
	require.Equal(t, uint64(1), byteSize([]byte{0, 0, 1}))
	require.Equal(t, uint64(2), byteSize([]byte{0, 1, 1}))
}
