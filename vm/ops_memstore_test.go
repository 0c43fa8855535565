package vm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mana-ethereum/mana-sub004/common"
)

func zeroVal() common.Value { return common.Value{} }

func nonZeroVal(b byte) common.Value {
	var v common.Value
	v[31] = b
	return v
}

// TestSstoreCostBasicSetAndReset implements spec §8 seed vectors 4/5's
// pre-EIP-1283 comparison point: a fresh-zero slot set to non-zero costs
// SstoreSet, any other write costs SstoreReset, and clearing a
// non-zero slot earns the clear refund.
func TestSstoreCostBasicSetAndReset(t *testing.T) {
	sub := NewSubState()
	cost := sstoreCostBasic(zeroVal(), nonZeroVal(1), sub)
	require.Equal(t, SstoreSet, cost)
	require.Equal(t, uint64(0), sub.Refund)

	sub = NewSubState()
	cost = sstoreCostBasic(nonZeroVal(1), nonZeroVal(2), sub)
	require.Equal(t, SstoreReset, cost)
	require.Equal(t, uint64(0), sub.Refund)

	sub = NewSubState()
	cost = sstoreCostBasic(nonZeroVal(1), zeroVal(), sub)
	require.Equal(t, SstoreReset, cost)
	require.Equal(t, SstoreClearRefund, sub.Refund)
}

// TestSstoreCostEip1283CleanSlot implements spec §8 seed vector 4: a
// clean slot (original == current) behaves exactly like the basic
// table at the EIP-1283 price point.
func TestSstoreCostEip1283CleanSlot(t *testing.T) {
	sub := NewSubState()
	cost := sstoreCostEip1283(zeroVal(), zeroVal(), nonZeroVal(1), sub)
	require.Equal(t, SstoreSet, cost)
	require.Equal(t, uint64(0), sub.Refund)

	sub = NewSubState()
	cost = sstoreCostEip1283(nonZeroVal(1), nonZeroVal(1), zeroVal(), sub)
	require.Equal(t, SstoreReset, cost)
	require.Equal(t, SstoreClearRefund, sub.Refund)
}

// TestSstoreCostEip1283NoopOnDirtySlot implements spec §8 seed vector
// 5: writing a slot back to its current (already-dirty) value costs
// only the warm reload price, no refund change.
func TestSstoreCostEip1283NoopOnDirtySlot(t *testing.T) {
	sub := NewSubState()
	cost := sstoreCostEip1283(zeroVal(), nonZeroVal(1), nonZeroVal(1), sub)
	require.Equal(t, GasSloadCostWarm, cost)
	require.Equal(t, uint64(0), sub.Refund)
}

// TestSstoreCostEip1283DirtySlotRestoredToOriginal covers the
// dirty-slot "undo" path: a slot set away from its original value and
// then set back grants the gas-minus-warm-cost refund.
func TestSstoreCostEip1283DirtySlotRestoredToOriginal(t *testing.T) {
	sub := NewSubState()
	// original=0, current=1 (dirty), newVal=0 (restored to original).
	cost := sstoreCostEip1283(zeroVal(), nonZeroVal(1), zeroVal(), sub)
	require.Equal(t, GasSloadCostWarm, cost)
	require.Equal(t, SstoreSet-GasSloadCostWarm, sub.Refund)

	sub = NewSubState()
	// original=1, current=2 (dirty), newVal=1 (restored to original).
	cost = sstoreCostEip1283(nonZeroVal(1), nonZeroVal(2), nonZeroVal(1), sub)
	require.Equal(t, GasSloadCostWarm, cost)
	require.Equal(t, SstoreReset-GasSloadCostWarm, sub.Refund)
}

func TestSstoreCostEip1283DirtySlotClearReconciliation(t *testing.T) {
	sub := NewSubState()
	// original=1, current=0 (already cleared once, refund granted),
	// newVal=2 (un-clearing): refund must be taken back.
	sub.AddRefund(SstoreClearRefund)
	cost := sstoreCostEip1283(nonZeroVal(1), zeroVal(), nonZeroVal(2), sub)
	require.Equal(t, GasSloadCostWarm, cost)
	require.Equal(t, uint64(0), sub.Refund)
}
