package cachingtrie

import "github.com/mana-ethereum/mana-sub004/ethdb"

// overlayStore layers a mutable in-memory overlay over an immutable
// base KeyValueStore: reads check the overlay first, writes only ever
// touch the overlay. Since trie nodes and raw-put values are both
// content-addressed (keyed by their own Keccak-256 hash), writing the
// same key twice is always a no-op, so overlayStore never needs to
// track deletions.
type overlayStore struct {
	base    ethdb.KeyValueStore
	overlay *ethdb.MemoryDatabase
}

func newOverlayStore(base ethdb.KeyValueStore, overlay *ethdb.MemoryDatabase) *overlayStore {
	return &overlayStore{base: base, overlay: overlay}
}

func (s *overlayStore) Has(key []byte) (bool, error) {
	ok, err := s.overlay.Has(key)
	if err != nil || ok {
		return ok, err
	}
	return s.base.Has(key)
}

func (s *overlayStore) Get(key []byte) ([]byte, error) {
	ok, err := s.overlay.Has(key)
	if err != nil {
		return nil, err
	}
	if ok {
		return s.overlay.Get(key)
	}
	return s.base.Get(key)
}

func (s *overlayStore) Put(key, value []byte) error {
	return s.overlay.Put(key, value)
}

func (s *overlayStore) Delete(key []byte) error {
	return s.overlay.Delete(key)
}

func (s *overlayStore) Close() error {
	return nil
}
