package ethdb

import (
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// LevelDBDatabase persists trie nodes and account code to disk via
// goleveldb, the same engine the teacher's trie implementation and
// classic go-ethereum use as their default backing store.
type LevelDBDatabase struct {
	db *leveldb.DB
}

// OpenLevelDB opens (creating if absent) a goleveldb database at path.
func OpenLevelDB(path string) (*LevelDBDatabase, error) {
	db, err := leveldb.OpenFile(path, &opt.Options{})
	if err != nil {
		return nil, err
	}
	return &LevelDBDatabase{db: db}, nil
}

func (d *LevelDBDatabase) Has(key []byte) (bool, error) {
	return d.db.Has(key, nil)
}

func (d *LevelDBDatabase) Get(key []byte) ([]byte, error) {
	v, err := d.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, ErrNotFound
	}
	return v, err
}

func (d *LevelDBDatabase) Put(key, value []byte) error {
	return d.db.Put(key, value, nil)
}

func (d *LevelDBDatabase) Delete(key []byte) error {
	return d.db.Delete(key, nil)
}

func (d *LevelDBDatabase) Close() error {
	return d.db.Close()
}

func (d *LevelDBDatabase) NewBatch() Batch {
	return &levelDBBatch{db: d.db, batch: new(leveldb.Batch)}
}

type levelDBBatch struct {
	db    *leveldb.DB
	batch *leveldb.Batch
}

func (b *levelDBBatch) Put(key, value []byte) error {
	b.batch.Put(key, value)
	return nil
}

func (b *levelDBBatch) Delete(key []byte) error {
	b.batch.Delete(key)
	return nil
}

func (b *levelDBBatch) Write() error {
	return b.db.Write(b.batch, nil)
}

func (b *levelDBBatch) Reset() {
	b.batch.Reset()
}
