package ethdb

import "sync"

// MemoryDatabase is an in-memory KeyValueStore used by tests and by
// callers that do not need durability.
type MemoryDatabase struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryDatabase() *MemoryDatabase {
	return &MemoryDatabase{data: make(map[string][]byte)}
}

func (d *MemoryDatabase) Has(key []byte) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.data[string(key)]
	return ok, nil
}

func (d *MemoryDatabase) Get(key []byte) ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	v, ok := d.data[string(key)]
	if !ok {
		return nil, ErrNotFound
	}
	res := make([]byte, len(v))
	copy(res, v)
	return res, nil
}

func (d *MemoryDatabase) Put(key, value []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	d.data[string(key)] = v
	return nil
}

func (d *MemoryDatabase) Delete(key []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.data, string(key))
	return nil
}

func (d *MemoryDatabase) Close() error { return nil }

// ForEach invokes fn with a private copy of every key/value pair
// currently held, used by the caching trie to flush its overlay into
// a persistent base store on commit.
func (d *MemoryDatabase) ForEach(fn func(key, value []byte) error) error {
	d.mu.RLock()
	pairs := make([]memoryBatchOp, 0, len(d.data))
	for k, v := range d.data {
		pairs = append(pairs, memoryBatchOp{key: []byte(k), value: v})
	}
	d.mu.RUnlock()

	for _, p := range pairs {
		if err := fn(p.key, p.value); err != nil {
			return err
		}
	}
	return nil
}

func (d *MemoryDatabase) NewBatch() Batch {
	return &memoryBatch{db: d}
}

type memoryBatchOp struct {
	key    []byte
	value  []byte
	delete bool
}

type memoryBatch struct {
	db  *MemoryDatabase
	ops []memoryBatchOp
}

func (b *memoryBatch) Put(key, value []byte) error {
	b.ops = append(b.ops, memoryBatchOp{key: append([]byte(nil), key...), value: append([]byte(nil), value...)})
	return nil
}

func (b *memoryBatch) Delete(key []byte) error {
	b.ops = append(b.ops, memoryBatchOp{key: append([]byte(nil), key...), delete: true})
	return nil
}

func (b *memoryBatch) Write() error {
	for _, op := range b.ops {
		if op.delete {
			if err := b.db.Delete(op.key); err != nil {
				return err
			}
			continue
		}
		if err := b.db.Put(op.key, op.value); err != nil {
			return err
		}
	}
	return nil
}

func (b *memoryBatch) Reset() {
	b.ops = b.ops[:0]
}
