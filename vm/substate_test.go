package vm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mana-ethereum/mana-sub004/common"
)

// TestSubStateRevertAtomicity implements spec §8's "Revert atomicity"
// property: changes made after a snapshot vanish entirely on Restore.
func TestSubStateRevertAtomicity(t *testing.T) {
	sub := NewSubState()
	sub.AddRefund(100)

	var addr common.Address
	addr[19] = 0x01
	sub.Touch(addr)

	snap := sub.Snapshot()

	sub.AddRefund(50)
	var other common.Address
	other[19] = 0x02
	sub.Touch(other)
	sub.MarkSelfDestruct(other)
	sub.AddLog(Log{Address: other})

	require.Equal(t, uint64(150), sub.Refund)
	require.Len(t, sub.Logs, 1)

	sub.Restore(snap)

	require.Equal(t, uint64(100), sub.Refund)
	require.Empty(t, sub.Logs)
	require.True(t, sub.TouchedAccounts[addr])
	require.False(t, sub.TouchedAccounts[other])
	require.False(t, sub.SelfDestructSet[other])
}

func TestSubStateSnapshotIsIndependentCopy(t *testing.T) {
	sub := NewSubState()
	var addr common.Address
	addr[19] = 0x01
	sub.Touch(addr)

	snap := sub.Snapshot()
	snap.Touch(addr) // no-op, already true
	var other common.Address
	other[19] = 0x02
	sub.Touch(other)

	require.False(t, snap.TouchedAccounts[other])
}

func TestSubRefundClampsAtZero(t *testing.T) {
	sub := NewSubState()
	sub.AddRefund(10)
	sub.SubRefund(25)
	require.Equal(t, uint64(0), sub.Refund)
}
