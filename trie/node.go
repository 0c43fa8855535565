package trie

import (
	"fmt"

	"github.com/mana-ethereum/mana-sub004/common"
	"github.com/mana-ethereum/mana-sub004/rlp"
)

// Node is the tagged-variant interface implemented by every trie node
// shape: leaf, extension and branch. The empty trie has no node value
// at all; its root is the canonical common.EmptyRootHash.
type Node interface {
	fmt.Stringer
	encode() rlp.Item
}

// Reference identifies a child (or root) node: either the node's raw
// RLP encoding when that encoding is shorter than 32 bytes ("inline"),
// or its Keccak-256 hash otherwise. The zero Reference denotes the
// empty node.
type Reference struct {
	Hash   common.Hash
	Inline []byte
}

func (r Reference) IsEmpty() bool {
	return r.Hash.IsZero() && len(r.Inline) == 0
}

func (r Reference) item() rlp.Item {
	if len(r.Inline) > 0 {
		return rlp.Encoded{Data: r.Inline}
	}
	if r.Hash.IsZero() {
		return rlp.String{Str: nil}
	}
	h := r.Hash
	return rlp.Hash{Hash: &h}
}

// LeafNode holds a terminating nibble path and its value.
type LeafNode struct {
	Path  []common.Nibble
	Value []byte
}

func (n *LeafNode) String() string {
	return fmt.Sprintf("Leaf(%v)=%x", n.Path, n.Value)
}

func (n *LeafNode) encode() rlp.Item {
	return rlp.List{Items: []rlp.Item{
		rlp.String{Str: EncodeHexPrefix(n.Path, true)},
		rlp.String{Str: n.Value},
	}}
}

// ExtensionNode holds a shared path prefix pointing to a single child
// (always a BranchNode reference, per the collapse invariant).
type ExtensionNode struct {
	Path  []common.Nibble
	Child Reference
}

func (n *ExtensionNode) String() string {
	return fmt.Sprintf("Extension(%v)->%x", n.Path, n.Child.Hash)
}

func (n *ExtensionNode) encode() rlp.Item {
	return rlp.List{Items: []rlp.Item{
		rlp.String{Str: EncodeHexPrefix(n.Path, false)},
		n.Child.item(),
	}}
}

// BranchNode holds 16 child references plus an optional value for a
// path that ends exactly at this node.
type BranchNode struct {
	Children [16]Reference
	Value    []byte
}

func (n *BranchNode) String() string {
	return fmt.Sprintf("Branch(value=%x)", n.Value)
}

func (n *BranchNode) encode() rlp.Item {
	items := make([]rlp.Item, 17)
	for i := 0; i < 16; i++ {
		items[i] = n.Children[i].item()
	}
	items[16] = rlp.String{Str: n.Value}
	return rlp.List{Items: items}
}

func (n *BranchNode) hasValue() bool {
	return n.Value != nil
}

// countChildren returns the number of non-empty child slots and the
// index of the last one found (valid only when count == 1).
func (n *BranchNode) countChildren() (count int, only int) {
	only = -1
	for i, c := range n.Children {
		if !c.IsEmpty() {
			count++
			only = i
		}
	}
	return count, only
}
