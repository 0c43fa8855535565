package trie

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mana-ethereum/mana-sub004/common"
	"github.com/mana-ethereum/mana-sub004/ethdb"
)

func newTestTrie(t *testing.T) *Trie {
	t.Helper()
	store, err := NewStore(ethdb.NewMemoryDatabase())
	require.NoError(t, err)
	return New(store)
}

func TestTrieEmptyRootHash(t *testing.T) {
	tr := newTestTrie(t)
	require.Equal(t, common.EmptyRootHash, tr.Hash())
}

func TestTrieGetPutLaw(t *testing.T) {
	tr := newTestTrie(t)
	require.NoError(t, tr.Put([]byte("alpha"), []byte("1")))
	require.NoError(t, tr.Put([]byte("beta"), []byte("2")))

	v, found, err := tr.Get([]byte("alpha"))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte("1"), v)

	v, found, err = tr.Get([]byte("beta"))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte("2"), v)

	_, found, err = tr.Get([]byte("gamma"))
	require.NoError(t, err)
	require.False(t, found)
}

func TestTriePutOverwrite(t *testing.T) {
	tr := newTestTrie(t)
	require.NoError(t, tr.Put([]byte("k"), []byte("v1")))
	require.NoError(t, tr.Put([]byte("k"), []byte("v2")))
	v, found, err := tr.Get([]byte("k"))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte("v2"), v)
}

func TestTriePermutationInvariance(t *testing.T) {
	kvs := map[string]string{
		"do":    "verb",
		"dog":   "puppy",
		"dodge": "coin",
		"horse": "stallion",
	}
	keys := [][]string{
		{"do", "dog", "dodge", "horse"},
		{"horse", "dodge", "dog", "do"},
		{"dog", "do", "horse", "dodge"},
	}

	var roots []common.Hash
	for _, order := range keys {
		tr := newTestTrie(t)
		for _, k := range order {
			require.NoError(t, tr.Put([]byte(k), []byte(kvs[k])))
		}
		roots = append(roots, tr.Hash())
	}
	for i := 1; i < len(roots); i++ {
		require.Equal(t, roots[0], roots[i])
	}
}

func TestTrieDeleteRestoresEmptyRoot(t *testing.T) {
	tr := newTestTrie(t)
	keys := []string{"do", "dog", "dodge", "horse"}
	for _, k := range keys {
		require.NoError(t, tr.Put([]byte(k), []byte(k)))
	}
	for _, k := range keys {
		require.NoError(t, tr.Delete([]byte(k)))
	}
	require.Equal(t, common.EmptyRootHash, tr.Hash())
}

func TestTrieDeleteLeavesSiblingsIntact(t *testing.T) {
	tr := newTestTrie(t)
	require.NoError(t, tr.Put([]byte("a"), []byte("1")))
	require.NoError(t, tr.Put([]byte("b"), []byte("2")))
	require.NoError(t, tr.Delete([]byte("a")))

	_, found, err := tr.Get([]byte("a"))
	require.NoError(t, err)
	require.False(t, found)

	v, found, err := tr.Get([]byte("b"))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte("2"), v)
}

func TestTrieProveAndVerify(t *testing.T) {
	tr := newTestTrie(t)
	require.NoError(t, tr.Put([]byte("do"), []byte("verb")))
	require.NoError(t, tr.Put([]byte("dog"), []byte("puppy")))
	require.NoError(t, tr.Put([]byte("horse"), []byte("stallion")))

	proofDB := ethdb.NewMemoryDatabase()
	found, err := tr.Prove([]byte("dog"), proofDB)
	require.NoError(t, err)
	require.True(t, found)

	value, found, err := VerifyProof(tr.Hash(), []byte("dog"), proofDB)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte("puppy"), value)
}
