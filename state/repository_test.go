package state

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mana-ethereum/mana-sub004/cachingtrie"
	"github.com/mana-ethereum/mana-sub004/common"
	"github.com/mana-ethereum/mana-sub004/ethdb"
)

func newTestRepo(t *testing.T) *Repository {
	repo, _ := newTestRepoWithBase(t)
	return repo
}

func newTestRepoWithBase(t *testing.T) (*Repository, ethdb.KeyValueStore) {
	t.Helper()
	base := ethdb.NewMemoryDatabase()
	ct, err := cachingtrie.New(base, common.Hash{})
	require.NoError(t, err)
	return New(ct), base
}

// TestABILessStateScenario implements spec §8 seed vector 1: insert an
// account with a balance directly, then read it back and confirm a
// distinct address reads as absent.
func TestABILessStateScenario(t *testing.T) {
	repo := newTestRepo(t)

	var addr1, addr2 common.Address
	addr1[19] = 0x01
	addr2[19] = 0x02

	acc := NewAccount(0)
	acc.Balance = big.NewInt(5)
	repo.PutAccount(addr1, acc)

	got, err := repo.GetAccount(addr1)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, int64(5), got.Balance.Int64())

	absent, err := repo.GetAccount(addr2)
	require.NoError(t, err)
	require.Nil(t, absent)
}

func TestRepositoryTransfer(t *testing.T) {
	repo := newTestRepo(t)
	var from, to common.Address
	from[19] = 0x10
	to[19] = 0x20

	fromAcc := NewAccount(0)
	fromAcc.Balance = big.NewInt(100)
	repo.PutAccount(from, fromAcc)

	require.NoError(t, repo.Transfer(from, to, big.NewInt(40), 0))

	fromAfter, err := repo.GetAccount(from)
	require.NoError(t, err)
	require.Equal(t, int64(60), fromAfter.Balance.Int64())

	toAfter, err := repo.GetAccount(to)
	require.NoError(t, err)
	require.Equal(t, int64(40), toAfter.Balance.Int64())
}

func TestRepositoryTransferInsufficientBalance(t *testing.T) {
	repo := newTestRepo(t)
	var from, to common.Address
	from[19] = 0x10
	to[19] = 0x20

	fromAcc := NewAccount(0)
	fromAcc.Balance = big.NewInt(10)
	repo.PutAccount(from, fromAcc)

	err := repo.Transfer(from, to, big.NewInt(40), 0)
	require.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestRepositoryStorageRoundTripAndCommit(t *testing.T) {
	repo, base := newTestRepoWithBase(t)
	var addr common.Address
	addr[19] = 0x30
	repo.PutAccount(addr, NewAccount(0))

	var key common.Key
	key[31] = 0x01
	var val common.Value
	val[31] = 0x2a

	require.NoError(t, repo.PutStorage(addr, key, val))
	got, found, err := repo.GetStorage(addr, key)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, val, got)

	require.NoError(t, repo.Commit())
	root := repo.Root()
	_, err = repo.trie.Commit()
	require.NoError(t, err)

	reloaded, err := cachingtrie.New(base, root)
	require.NoError(t, err)
	other := New(reloaded)

	got, found, err = other.GetStorage(addr, key)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, val, got)

	acc, err := other.GetAccount(addr)
	require.NoError(t, err)
	require.NotNil(t, acc)
}
