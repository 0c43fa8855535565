package trie

import (
	"fmt"

	"github.com/mana-ethereum/mana-sub004/common"
	"github.com/mana-ethereum/mana-sub004/ethdb"
	"github.com/mana-ethereum/mana-sub004/rlp"
)

// Prove collects the RLP encoding of every node on the path from the
// root to key into proof, keyed by the node's hash (inline nodes are
// skipped: a verifier can re-derive them from their parent). It
// returns false if key is a dead end in the trie.
func (t *Trie) Prove(key []byte, proof ethdb.KeyValueStore) (bool, error) {
	root, err := t.store.load(t.root)
	if err != nil {
		return false, err
	}
	return t.prove(root, common.BytesToNibbles(key), proof)
}

func (t *Trie) prove(node Node, path []common.Nibble, proof ethdb.KeyValueStore) (bool, error) {
	if node == nil {
		return false, nil
	}
	if err := recordNode(node, proof); err != nil {
		return false, err
	}
	switch n := node.(type) {
	case *LeafNode:
		return nibblesEqual(n.Path, path), nil
	case *ExtensionNode:
		if !common.IsPrefixOf(n.Path, path) {
			return false, nil
		}
		child, err := t.store.load(n.Child)
		if err != nil {
			return false, err
		}
		return t.prove(child, path[len(n.Path):], proof)
	case *BranchNode:
		if len(path) == 0 {
			return n.Value != nil, nil
		}
		child, err := t.store.load(n.Children[path[0]])
		if err != nil {
			return false, err
		}
		return t.prove(child, path[1:], proof)
	default:
		return false, fmt.Errorf("unknown node type %T", node)
	}
}

func recordNode(node Node, proof ethdb.KeyValueStore) error {
	data := rlp.Encode(node.encode())
	if len(data) < 32 {
		return nil
	}
	h := common.Keccak256(data)
	return proof.Put(h[:], data)
}

// VerifyProof checks that key (with expected value, or nil if the
// proof asserts absence) is consistent with root against the node set
// collected in proof.
func VerifyProof(root common.Hash, key []byte, proof ethdb.KeyValueStore) ([]byte, bool, error) {
	store, err := NewStore(proof)
	if err != nil {
		return nil, false, err
	}
	t := NewAt(store, root)
	value, found, err := t.Get(key)
	if err != nil {
		return nil, false, fmt.Errorf("proof verification failed: %w", err)
	}
	return value, found, nil
}
