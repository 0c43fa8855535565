package cachingtrie

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mana-ethereum/mana-sub004/common"
	"github.com/mana-ethereum/mana-sub004/ethdb"
	"github.com/mana-ethereum/mana-sub004/trie"
)

func TestCachingTrieReadsOwnWrites(t *testing.T) {
	base := ethdb.NewMemoryDatabase()
	ct, err := New(base, common.Hash{})
	require.NoError(t, err)

	require.NoError(t, ct.Put([]byte("k"), []byte("v")))
	v, found, err := ct.Get([]byte("k"))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte("v"), v)
}

func TestCachingTrieCommitCoherence(t *testing.T) {
	base := ethdb.NewMemoryDatabase()
	ct, err := New(base, common.Hash{})
	require.NoError(t, err)

	require.NoError(t, ct.Put([]byte("alpha"), []byte("1")))
	require.NoError(t, ct.Put([]byte("beta"), []byte("2")))
	root := ct.Hash()

	committed, err := ct.Commit()
	require.NoError(t, err)
	require.Equal(t, root, committed.Hash())

	store, err := trie.NewStore(base)
	require.NoError(t, err)
	baseTrie := trie.NewAt(store, root)

	v, found, err := baseTrie.Get([]byte("alpha"))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte("1"), v)

	v, found, err = baseTrie.Get([]byte("beta"))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte("2"), v)
}

func TestCachingTrieRawPutGet(t *testing.T) {
	base := ethdb.NewMemoryDatabase()
	ct, err := New(base, common.Hash{})
	require.NoError(t, err)

	require.NoError(t, ct.RawPut([]byte("codehash"), []byte("bytecode")))
	v, err := ct.RawGet([]byte("codehash"))
	require.NoError(t, err)
	require.Equal(t, []byte("bytecode"), v)

	committed, err := ct.Commit()
	require.NoError(t, err)
	v, err = committed.RawGet([]byte("codehash"))
	require.NoError(t, err)
	require.Equal(t, []byte("bytecode"), v)
}

func TestSubTrieSharesStoreAcrossCommit(t *testing.T) {
	base := ethdb.NewMemoryDatabase()
	ct, err := New(base, common.Hash{})
	require.NoError(t, err)

	sub := ct.SubTrie(common.Hash{})
	require.NoError(t, sub.Put([]byte("slot"), []byte("value")))
	subRoot := sub.Hash()

	committed, err := ct.Commit()
	require.NoError(t, err)

	store, err := trie.NewStore(base)
	require.NoError(t, err)
	reloaded := trie.NewAt(store, subRoot)
	v, found, err := reloaded.Get([]byte("slot"))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte("value"), v)

	_ = committed
}
