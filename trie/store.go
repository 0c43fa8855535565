package trie

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/arc/v2"

	"github.com/mana-ethereum/mana-sub004/common"
	"github.com/mana-ethereum/mana-sub004/ethdb"
	"github.com/mana-ethereum/mana-sub004/rlp"
)

// defaultCacheCapacity bounds the number of decoded nodes kept in the
// ARC cache in front of the backing store, mirroring the fixed-size
// globalCache classic go-ethereum's trie package keeps in front of its
// database.
const defaultCacheCapacity = 8 * 1024

// Store resolves node references against a persistent key/value
// database, keeping recently decoded nodes in an ARC cache so that a
// hot working set (e.g. the upper levels of the trie) avoids repeated
// RLP decoding.
type Store struct {
	db     ethdb.KeyValueStore
	cache  *lru.ARCCache[common.Hash, Node]
	logger common.Logger
}

// NewStore wraps db with the default-sized node cache and a no-op
// logger. Use SetLogger to wire a real one.
func NewStore(db ethdb.KeyValueStore) (*Store, error) {
	cache, err := lru.NewARC[common.Hash, Node](defaultCacheCapacity)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, cache: cache, logger: common.NopLogger{}}, nil
}

// SetLogger replaces the store's logger; passing nil restores the
// no-op default.
func (s *Store) SetLogger(l common.Logger) {
	if l == nil {
		l = common.NopLogger{}
	}
	s.logger = l
}

// store computes ref = store(node): inline when its RLP encoding is
// shorter than 32 bytes, otherwise keyed by its Keccak-256 hash in
// the backing store.
func (s *Store) store(node Node) (Reference, error) {
	if node == nil {
		return Reference{}, nil
	}
	data := rlp.Encode(node.encode())
	if len(data) < 32 {
		return Reference{Inline: data}, nil
	}
	h := common.Keccak256(data)
	has, err := s.db.Has(h[:])
	if err != nil {
		return Reference{}, err
	}
	if !has {
		if s.logger.IsTrace() {
			s.logger.Trace("trie: persisting node", "hash", h, "size", len(data))
		}
		if err := s.db.Put(h[:], data); err != nil {
			return Reference{}, err
		}
	}
	s.cache.Add(h, node)
	return Reference{Hash: h}, nil
}

// load resolves ref = load(ref): decodes an inline reference directly,
// or fetches its RLP by hash from the backing store. A missing hash
// is fatal, since it signals a corrupted or incomplete state trie.
func (s *Store) load(ref Reference) (Node, error) {
	if ref.IsEmpty() {
		return nil, nil
	}
	if len(ref.Inline) > 0 {
		return decodeNodeBytes(ref.Inline)
	}
	if node, ok := s.cache.Get(ref.Hash); ok {
		return node, nil
	}
	if s.logger.IsTrace() {
		s.logger.Trace("trie: cache miss, loading node", "hash", ref.Hash)
	}
	data, err := s.db.Get(ref.Hash[:])
	if err != nil {
		return nil, fmt.Errorf("missing trie node %s: %w", ref.Hash, err)
	}
	node, err := decodeNodeBytes(data)
	if err != nil {
		return nil, err
	}
	s.cache.Add(ref.Hash, node)
	return node, nil
}

func decodeNodeBytes(data []byte) (Node, error) {
	item, err := rlp.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("malformed node encoding: %w", err)
	}
	return decodeNode(item)
}

func decodeNode(item rlp.Item) (Node, error) {
	list, ok := item.(rlp.List)
	if !ok {
		return nil, fmt.Errorf("expected list encoding for trie node, got %T", item)
	}
	switch len(list.Items) {
	case 2:
		pathStr, ok := list.Items[0].(rlp.String)
		if !ok {
			return nil, fmt.Errorf("expected string path in 2-item node")
		}
		nibbles, terminator := DecodeHexPrefix(pathStr.Str)
		if terminator {
			valStr, ok := list.Items[1].(rlp.String)
			if !ok {
				return nil, fmt.Errorf("expected string value in leaf node")
			}
			return &LeafNode{Path: nibbles, Value: valStr.Str}, nil
		}
		ref, err := decodeReference(list.Items[1])
		if err != nil {
			return nil, err
		}
		return &ExtensionNode{Path: nibbles, Child: ref}, nil
	case 17:
		var branch BranchNode
		for i := 0; i < 16; i++ {
			ref, err := decodeReference(list.Items[i])
			if err != nil {
				return nil, err
			}
			branch.Children[i] = ref
		}
		valStr, ok := list.Items[16].(rlp.String)
		if !ok {
			return nil, fmt.Errorf("expected string value slot in branch node")
		}
		if len(valStr.Str) > 0 {
			branch.Value = valStr.Str
		}
		return &branch, nil
	default:
		return nil, fmt.Errorf("unexpected node arity %d", len(list.Items))
	}
}

func decodeReference(item rlp.Item) (Reference, error) {
	switch v := item.(type) {
	case rlp.String:
		if len(v.Str) == 0 {
			return Reference{}, nil
		}
		if len(v.Str) == 32 {
			return Reference{Hash: common.BytesToHash(v.Str)}, nil
		}
		return Reference{}, fmt.Errorf("invalid reference string length %d", len(v.Str))
	case rlp.List:
		return Reference{Inline: rlp.Encode(v)}, nil
	default:
		return Reference{}, fmt.Errorf("unsupported reference item type %T", item)
	}
}
