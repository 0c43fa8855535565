package state

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mana-ethereum/mana-sub004/common"
)

func TestAccountEncodeDecodeRoundTrip(t *testing.T) {
	acc := &Account{
		Nonce:       5,
		Balance:     big.NewInt(11),
		StorageRoot: common.EmptyRootHash,
		CodeHash:    common.EmptyCodeHash,
	}
	decoded, err := DecodeAccount(acc.Encode())
	require.NoError(t, err)
	require.Equal(t, acc.Nonce, decoded.Nonce)
	require.Equal(t, 0, acc.Balance.Cmp(decoded.Balance))
	require.Equal(t, acc.StorageRoot, decoded.StorageRoot)
	require.Equal(t, acc.CodeHash, decoded.CodeHash)
}

func TestNewAccountIsEmpty(t *testing.T) {
	acc := NewAccount(0)
	require.True(t, acc.IsEmpty())

	acc.Nonce = 1
	require.False(t, acc.IsEmpty())
}

func TestAccountCloneIsIndependent(t *testing.T) {
	acc := NewAccount(0)
	acc.Balance.SetInt64(5)
	clone := acc.Clone()
	clone.Balance.SetInt64(10)
	require.Equal(t, int64(5), acc.Balance.Int64())
	require.Equal(t, int64(10), clone.Balance.Int64())
}
