// Package trie implements the Modified Merkle-Patricia Trie: the
// hex-prefix codec, the tagged node model (leaf, extension, branch),
// inline-vs-hashed node storage, and the get/put/remove engine that
// preserves canonical shape on every mutation.
package trie

import (
	"errors"
	"fmt"

	"github.com/mana-ethereum/mana-sub004/common"
)

// ErrNotFound is returned by Get when the key is absent from the trie.
var ErrNotFound = errors.New("trie: key not found")

// Trie is a Modified Merkle-Patricia Trie rooted at a single
// Reference. It is not safe for concurrent use; callers executing
// independent transactions must each hold their own Trie (see the
// cachingtrie package for the overlay that makes that affordable).
type Trie struct {
	store *Store
	root  Reference
}

// New returns the canonical empty trie backed by store.
func New(store *Store) *Trie {
	return &Trie{store: store}
}

// NewAt returns a trie rooted at the given hash. The root node is not
// loaded until the first operation touches it.
func NewAt(store *Store, root common.Hash) *Trie {
	if root.IsZero() || root == common.EmptyRootHash {
		return New(store)
	}
	return &Trie{store: store, root: Reference{Hash: root}}
}

// Hash returns the current root hash of the trie, kec(rlp(root_node)),
// or the canonical empty-root hash for an empty trie.
func (t *Trie) Hash() common.Hash {
	if t.root.IsEmpty() {
		return common.EmptyRootHash
	}
	if len(t.root.Inline) > 0 {
		return common.Keccak256(t.root.Inline)
	}
	return t.root.Hash
}

// Get looks up key and reports whether it was found.
func (t *Trie) Get(key []byte) ([]byte, bool, error) {
	root, err := t.store.load(t.root)
	if err != nil {
		return nil, false, err
	}
	return t.get(root, common.BytesToNibbles(key))
}

func (t *Trie) get(node Node, path []common.Nibble) ([]byte, bool, error) {
	switch n := node.(type) {
	case nil:
		return nil, false, nil
	case *LeafNode:
		if nibblesEqual(n.Path, path) {
			return n.Value, true, nil
		}
		return nil, false, nil
	case *ExtensionNode:
		if !common.IsPrefixOf(n.Path, path) {
			return nil, false, nil
		}
		child, err := t.store.load(n.Child)
		if err != nil {
			return nil, false, err
		}
		return t.get(child, path[len(n.Path):])
	case *BranchNode:
		if len(path) == 0 {
			if n.Value != nil {
				return n.Value, true, nil
			}
			return nil, false, nil
		}
		child, err := t.store.load(n.Children[path[0]])
		if err != nil {
			return nil, false, err
		}
		return t.get(child, path[1:])
	default:
		return nil, false, fmt.Errorf("unknown node type %T", node)
	}
}

// Put inserts or replaces the value at key.
func (t *Trie) Put(key, value []byte) error {
	root, err := t.store.load(t.root)
	if err != nil {
		return err
	}
	newRoot, err := t.insert(root, common.BytesToNibbles(key), value)
	if err != nil {
		return err
	}
	ref, err := t.store.store(newRoot)
	if err != nil {
		return err
	}
	t.root = ref
	return nil
}

// insert implements the six structural cases of §4.2: empty -> leaf,
// leaf equal/divergent path, extension matched/divergent, branch
// value-set/recurse.
func (t *Trie) insert(node Node, path []common.Nibble, value []byte) (Node, error) {
	switch n := node.(type) {
	case nil:
		return &LeafNode{Path: cloneNibbles(path), Value: value}, nil

	case *LeafNode:
		if nibblesEqual(n.Path, path) {
			return &LeafNode{Path: n.Path, Value: value}, nil
		}
		return t.splitLeaf(n, path, value)

	case *ExtensionNode:
		if common.IsPrefixOf(n.Path, path) {
			child, err := t.store.load(n.Child)
			if err != nil {
				return nil, err
			}
			newChild, err := t.insert(child, path[len(n.Path):], value)
			if err != nil {
				return nil, err
			}
			ref, err := t.store.store(newChild)
			if err != nil {
				return nil, err
			}
			return &ExtensionNode{Path: n.Path, Child: ref}, nil
		}
		return t.splitExtension(n, path, value)

	case *BranchNode:
		nb := *n
		if len(path) == 0 {
			nb.Value = value
			return &nb, nil
		}
		idx := path[0]
		child, err := t.store.load(n.Children[idx])
		if err != nil {
			return nil, err
		}
		newChild, err := t.insert(child, path[1:], value)
		if err != nil {
			return nil, err
		}
		ref, err := t.store.store(newChild)
		if err != nil {
			return nil, err
		}
		nb.Children[idx] = ref
		return &nb, nil

	default:
		return nil, fmt.Errorf("unknown node type %T", node)
	}
}

// splitLeaf handles structural case 3: a leaf whose path diverges
// from the key being inserted.
func (t *Trie) splitLeaf(n *LeafNode, path []common.Nibble, value []byte) (Node, error) {
	prefixLen := common.GetCommonPrefixLength(n.Path, path)
	branch := &BranchNode{}

	if err := t.placeBranchBranch(branch, n.Path, prefixLen, n.Value); err != nil {
		return nil, err
	}
	if err := t.placeBranchBranch(branch, path, prefixLen, value); err != nil {
		return nil, err
	}
	return t.wrapWithPrefix(path[:prefixLen], branch)
}

// placeBranchBranch places one of the two diverging leaf values into
// branch, either as the branch's own value (remaining path is empty)
// or as a freshly stored leaf in the appropriate child slot.
func (t *Trie) placeBranchBranch(branch *BranchNode, path []common.Nibble, prefixLen int, value []byte) error {
	if len(path) == prefixLen {
		branch.Value = value
		return nil
	}
	idx := path[prefixLen]
	leaf := &LeafNode{Path: cloneNibbles(path[prefixLen+1:]), Value: value}
	ref, err := t.store.store(leaf)
	if err != nil {
		return err
	}
	branch.Children[idx] = ref
	return nil
}

// splitExtension handles structural case 5: an extension whose path
// diverges from the key being inserted.
func (t *Trie) splitExtension(n *ExtensionNode, path []common.Nibble, value []byte) (Node, error) {
	prefixLen := common.GetCommonPrefixLength(n.Path, path)
	branch := &BranchNode{}

	remaining := n.Path[prefixLen+1:]
	idxN := n.Path[prefixLen]
	var childRef Reference
	if len(remaining) == 0 {
		childRef = n.Child
	} else {
		var err error
		childRef, err = t.store.store(&ExtensionNode{Path: cloneNibbles(remaining), Child: n.Child})
		if err != nil {
			return nil, err
		}
	}
	branch.Children[idxN] = childRef

	if err := t.placeBranchBranch(branch, path, prefixLen, value); err != nil {
		return nil, err
	}
	return t.wrapWithPrefix(path[:prefixLen], branch)
}

// wrapWithPrefix stores branch and, if prefix is non-empty, wraps the
// resulting reference in an extension node holding that prefix.
func (t *Trie) wrapWithPrefix(prefix []common.Nibble, branch *BranchNode) (Node, error) {
	if len(prefix) == 0 {
		return branch, nil
	}
	ref, err := t.store.store(branch)
	if err != nil {
		return nil, err
	}
	return &ExtensionNode{Path: cloneNibbles(prefix), Child: ref}, nil
}

// Delete removes key from the trie, restoring the collapse invariant.
// Deleting an absent key is a silent no-op.
func (t *Trie) Delete(key []byte) error {
	root, err := t.store.load(t.root)
	if err != nil {
		return err
	}
	newRoot, removed, err := t.remove(root, common.BytesToNibbles(key))
	if err != nil {
		return err
	}
	if !removed {
		return nil
	}
	ref, err := t.store.store(newRoot)
	if err != nil {
		return err
	}
	t.root = ref
	return nil
}

func (t *Trie) remove(node Node, path []common.Nibble) (Node, bool, error) {
	switch n := node.(type) {
	case nil:
		return nil, false, nil

	case *LeafNode:
		if nibblesEqual(n.Path, path) {
			return nil, true, nil
		}
		return n, false, nil

	case *ExtensionNode:
		if !common.IsPrefixOf(n.Path, path) {
			return n, false, nil
		}
		child, err := t.store.load(n.Child)
		if err != nil {
			return nil, false, err
		}
		newChild, removed, err := t.remove(child, path[len(n.Path):])
		if err != nil || !removed {
			return n, removed, err
		}
		merged, err := t.mergePrefix(n.Path, newChild)
		return merged, true, err

	case *BranchNode:
		nb := *n
		if len(path) == 0 {
			if nb.Value == nil {
				return n, false, nil
			}
			nb.Value = nil
		} else {
			idx := path[0]
			child, err := t.store.load(n.Children[idx])
			if err != nil {
				return nil, false, err
			}
			newChild, removed, err := t.remove(child, path[1:])
			if err != nil || !removed {
				return n, removed, err
			}
			var ref Reference
			if newChild != nil {
				ref, err = t.store.store(newChild)
				if err != nil {
					return nil, false, err
				}
			}
			nb.Children[idx] = ref
		}
		collapsed, err := t.collapseBranch(&nb)
		return collapsed, true, err

	default:
		return nil, false, fmt.Errorf("unknown node type %T", node)
	}
}

// collapseBranch restores the invariant that a branch with at most
// one remaining child and no value is replaced by a leaf/extension.
func (t *Trie) collapseBranch(n *BranchNode) (Node, error) {
	count, only := n.countChildren()
	switch {
	case count == 0 && n.Value == nil:
		return nil, nil
	case count == 0:
		return &LeafNode{Path: nil, Value: n.Value}, nil
	case count == 1 && n.Value == nil:
		child, err := t.store.load(n.Children[only])
		if err != nil {
			return nil, err
		}
		return t.prependNibble(common.Nibble(only), child)
	default:
		return n, nil
	}
}

// prependNibble folds nibble into child's path, coalescing adjacent
// extensions rather than chaining them.
func (t *Trie) prependNibble(nibble common.Nibble, child Node) (Node, error) {
	switch c := child.(type) {
	case *LeafNode:
		return &LeafNode{Path: prepend(nibble, c.Path), Value: c.Value}, nil
	case *ExtensionNode:
		return &ExtensionNode{Path: prepend(nibble, c.Path), Child: c.Child}, nil
	case *BranchNode:
		ref, err := t.store.store(c)
		if err != nil {
			return nil, err
		}
		return &ExtensionNode{Path: []common.Nibble{nibble}, Child: ref}, nil
	default:
		return nil, fmt.Errorf("unknown node type %T", child)
	}
}

// mergePrefix coalesces an extension's prefix with its (already
// collapsed) child, folding adjacent extensions into one.
func (t *Trie) mergePrefix(prefix []common.Nibble, child Node) (Node, error) {
	switch c := child.(type) {
	case nil:
		return nil, nil
	case *LeafNode:
		return &LeafNode{Path: append(cloneNibbles(prefix), c.Path...), Value: c.Value}, nil
	case *ExtensionNode:
		return &ExtensionNode{Path: append(cloneNibbles(prefix), c.Path...), Child: c.Child}, nil
	case *BranchNode:
		ref, err := t.store.store(c)
		if err != nil {
			return nil, err
		}
		return &ExtensionNode{Path: cloneNibbles(prefix), Child: ref}, nil
	default:
		return nil, fmt.Errorf("unknown node type %T", child)
	}
}

func nibblesEqual(a, b []common.Nibble) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func cloneNibbles(n []common.Nibble) []common.Nibble {
	out := make([]common.Nibble, len(n))
	copy(out, n)
	return out
}

func prepend(nibble common.Nibble, rest []common.Nibble) []common.Nibble {
	out := make([]common.Nibble, 0, len(rest)+1)
	out = append(out, nibble)
	out = append(out, rest...)
	return out
}
