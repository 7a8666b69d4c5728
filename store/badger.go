package store

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/rushteam/youchoose/core"
)

// BadgerStore 是 BadgerDB 实现的 KeyValueStore，适合单机持久化发布。
//
// key 布局：
//   - kv:{key}
//   - h:{key}\x00{field}
//   - z:{key}\x00{member} -> float64 分数（大端 IEEE 754）
type BadgerStore struct {
	db *badger.DB
}

const (
	kvPrefix   = "kv:"
	hashPrefix = "h:"
	zsetPrefix = "z:"
	sep        = "\x00"
)

// NewBadgerStore 打开 path 下的 BadgerDB；path 为空时使用内存模式。
func NewBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil
	// 隐向量发布数据量远小于默认的 1GB value log
	opts.ValueLogFileSize = 64 << 20

	db, err := badger.Open(opts)
	if err != nil {
		return nil, core.Errorf(core.ModuleStore, core.ErrorCodeUnavailable, "store: open badger %q: %w", path, err)
	}
	return &BadgerStore{db: db}, nil
}

// NewBadgerStoreFromDB 包装一个已打开的 BadgerDB。
func NewBadgerStoreFromDB(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

func (b *BadgerStore) Name() string { return TypeBadger }

func (b *BadgerStore) get(key []byte) ([]byte, error) {
	var out []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, core.ErrStoreNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: badger get: %w", err)
	}
	return out, nil
}

func (b *BadgerStore) Get(ctx context.Context, key string) ([]byte, error) {
	return b.get([]byte(kvPrefix + key))
}

func (b *BadgerStore) Set(ctx context.Context, key string, value []byte, ttl ...int) error {
	return b.BatchSet(ctx, map[string][]byte{key: value}, ttl...)
}

// Delete 同时删除同名的 kv、hash、zset。
func (b *BadgerStore) Delete(ctx context.Context, key string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(kvPrefix + key)); err != nil {
			return err
		}
		for _, prefix := range []string{hashPrefix, zsetPrefix} {
			keys, err := collectKeys(txn, []byte(prefix+key+sep))
			if err != nil {
				return err
			}
			for _, k := range keys {
				if err := txn.Delete(k); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func collectKeys(txn *badger.Txn, prefix []byte) ([][]byte, error) {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	var keys [][]byte
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	return keys, nil
}

// scan 遍历 prefix 下的全部条目，fn 收到去掉前缀的 key。
func (b *BadgerStore) scan(prefix []byte, fn func(suffix string, value []byte) error) error {
	return b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			v, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if err := fn(string(item.Key()[len(prefix):]), v); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *BadgerStore) BatchGet(ctx context.Context, keys []string) (map[string][]byte, error) {
	result := make(map[string][]byte, len(keys))
	err := b.db.View(func(txn *badger.Txn) error {
		for _, k := range keys {
			item, err := txn.Get([]byte(kvPrefix + k))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			v, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			result[k] = v
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store: badger batch get: %w", err)
	}
	return result, nil
}

// BatchSet 使用 WriteBatch 写入，不受单个事务大小限制。
func (b *BadgerStore) BatchSet(ctx context.Context, kvs map[string][]byte, ttl ...int) error {
	wb := b.db.NewWriteBatch()
	defer wb.Cancel()

	sec := ttlSeconds(ttl)
	for k, v := range kvs {
		e := badger.NewEntry([]byte(kvPrefix+k), v)
		if sec > 0 {
			e = e.WithTTL(time.Duration(sec) * time.Second)
		}
		if err := wb.SetEntry(e); err != nil {
			return fmt.Errorf("store: badger batch set: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("store: badger flush: %w", err)
	}
	return nil
}

func (b *BadgerStore) Close() error {
	return b.db.Close()
}

var _ core.KeyValueStore = (*BadgerStore)(nil)

func (b *BadgerStore) ZAdd(ctx context.Context, key string, score float64, member string) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], math.Float64bits(score))
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(zsetPrefix+key+sep+member), buf[:])
	})
}

// ZRange 的排名规则与 MemoryStore 相同。
func (b *BadgerStore) ZRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	zset := make(map[string]float64)
	err := b.scan([]byte(zsetPrefix+key+sep), func(member string, v []byte) error {
		zset[member] = decodeScore(v)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store: badger zrange %s: %w", key, err)
	}
	return rankMembers(zset, start, stop), nil
}

func (b *BadgerStore) ZScore(ctx context.Context, key string, member string) (float64, error) {
	v, err := b.get([]byte(zsetPrefix + key + sep + member))
	if err != nil {
		return 0, err
	}
	return decodeScore(v), nil
}

func decodeScore(v []byte) float64 {
	if len(v) != 8 {
		return 0
	}
	return math.Float64frombits(binary.BigEndian.Uint64(v))
}

func (b *BadgerStore) HGet(ctx context.Context, key, field string) ([]byte, error) {
	return b.get([]byte(hashPrefix + key + sep + field))
}

func (b *BadgerStore) HSet(ctx context.Context, key, field string, value []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(hashPrefix+key+sep+field), value)
	})
}

func (b *BadgerStore) HGetAll(ctx context.Context, key string) (map[string][]byte, error) {
	result := make(map[string][]byte)
	err := b.scan([]byte(hashPrefix+key+sep), func(field string, v []byte) error {
		result[field] = v
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store: badger hgetall %s: %w", key, err)
	}
	return result, nil
}
