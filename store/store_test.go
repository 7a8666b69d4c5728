package store

import (
	"context"
	"slices"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/rushteam/youchoose/core"
)

// testKeyValueStore 是所有 KeyValueStore 实现共用的行为测试。
func testKeyValueStore(t *testing.T, s core.KeyValueStore) {
	ctx := context.Background()

	t.Run("get set delete", func(t *testing.T) {
		if _, err := s.Get(ctx, "missing"); !core.IsStoreNotFound(err) {
			t.Fatalf("Get(missing) error = %v, want not found", err)
		}
		if err := s.Set(ctx, "u:1", []byte("a")); err != nil {
			t.Fatal(err)
		}
		got, err := s.Get(ctx, "u:1")
		if err != nil || string(got) != "a" {
			t.Fatalf("Get() = %q, %v", got, err)
		}
		if err := s.Delete(ctx, "u:1"); err != nil {
			t.Fatal(err)
		}
		if _, err := s.Get(ctx, "u:1"); !core.IsStoreNotFound(err) {
			t.Errorf("Get(deleted) error = %v, want not found", err)
		}
	})

	t.Run("batch", func(t *testing.T) {
		kvs := map[string][]byte{"b:1": []byte("x"), "b:2": []byte("y")}
		if err := s.BatchSet(ctx, kvs); err != nil {
			t.Fatal(err)
		}
		got, err := s.BatchGet(ctx, []string{"b:1", "b:2", "b:3"})
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 2 || string(got["b:1"]) != "x" || string(got["b:2"]) != "y" {
			t.Errorf("BatchGet() = %v", got)
		}
	})

	t.Run("zset", func(t *testing.T) {
		for member, score := range map[string]float64{"i1": 0.5, "i2": 0.9, "i3": 0.1, "i0": 0.5} {
			if err := s.ZAdd(ctx, "top:u1", score, member); err != nil {
				t.Fatal(err)
			}
		}
		got, err := s.ZRange(ctx, "top:u1", 0, -1)
		if err != nil {
			t.Fatal(err)
		}
		if want := []string{"i2", "i0", "i1", "i3"}; !slices.Equal(got, want) {
			t.Errorf("ZRange(0, -1) = %v, want %v", got, want)
		}
		if got, _ := s.ZRange(ctx, "top:u1", 1, 2); !slices.Equal(got, []string{"i0", "i1"}) {
			t.Errorf("ZRange(1, 2) = %v", got)
		}
		if got, _ := s.ZRange(ctx, "top:none", 0, -1); len(got) != 0 {
			t.Errorf("ZRange(missing) = %v", got)
		}
		score, err := s.ZScore(ctx, "top:u1", "i2")
		if err != nil || score != 0.9 {
			t.Errorf("ZScore() = %v, %v", score, err)
		}
		if _, err := s.ZScore(ctx, "top:u1", "nope"); !core.IsStoreNotFound(err) {
			t.Errorf("ZScore(missing) error = %v", err)
		}
	})

	t.Run("hash", func(t *testing.T) {
		if err := s.HSet(ctx, "meta", "method", []byte("nn")); err != nil {
			t.Fatal(err)
		}
		if err := s.HSet(ctx, "meta", "factors", []byte("20")); err != nil {
			t.Fatal(err)
		}
		// 同名普通 key 不影响 hash
		if err := s.Set(ctx, "meta", []byte("plain")); err != nil {
			t.Fatal(err)
		}
		v, err := s.HGet(ctx, "meta", "method")
		if err != nil || string(v) != "nn" {
			t.Errorf("HGet() = %q, %v", v, err)
		}
		if _, err := s.HGet(ctx, "meta", "missing"); !core.IsStoreNotFound(err) {
			t.Errorf("HGet(missing) error = %v", err)
		}
		all, err := s.HGetAll(ctx, "meta")
		if err != nil || len(all) != 2 || string(all["factors"]) != "20" {
			t.Errorf("HGetAll() = %v, %v", all, err)
		}
	})
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	testKeyValueStore(t, s)
}

func TestBadgerStore(t *testing.T) {
	s, err := NewBadgerStore("")
	if err != nil {
		t.Fatalf("NewBadgerStore() error = %v", err)
	}
	defer s.Close()
	testKeyValueStore(t, s)
}

func TestBadgerStore_Persistent(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	s, err := NewBadgerStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewBadgerStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	if v, err := reopened.Get(ctx, "k"); err != nil || string(v) != "v" {
		t.Errorf("Get() after reopen = %q, %v", v, err)
	}
}

func TestMemoryStore_TTL(t *testing.T) {
	s := newMemoryStore(10 * time.Millisecond)
	defer s.Close()
	ctx := context.Background()

	if err := s.Set(ctx, "short", []byte("x"), 1); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, "forever", []byte("y")); err != nil {
		t.Fatal(err)
	}
	// 直接把过期时间拨到过去，等待清理协程删除
	s.mu.Lock()
	e := s.data["short"]
	e.expire = time.Now().Add(-time.Second)
	s.data["short"] = e
	s.mu.Unlock()

	if _, err := s.Get(ctx, "short"); !core.IsStoreNotFound(err) {
		t.Errorf("Get(expired) error = %v, want not found", err)
	}
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		s.mu.RLock()
		_, ok := s.data["short"]
		s.mu.RUnlock()
		if !ok {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	s.mu.RLock()
	_, stillThere := s.data["short"]
	s.mu.RUnlock()
	if stillThere {
		t.Error("expired key was not swept")
	}
	if _, err := s.Get(ctx, "forever"); err != nil {
		t.Errorf("Get(forever) error = %v", err)
	}
}

func TestMemoryStore_CloseStopsSweeper(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	s := newMemoryStore(time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	s, err := New(ctx, Config{Type: TypeMemory})
	if err != nil || s.Name() != TypeMemory {
		t.Fatalf("New(memory) = %v, %v", s, err)
	}
	_ = s.Close()

	b, err := New(ctx, Config{Type: TypeBadger})
	if err != nil || b.Name() != TypeBadger {
		t.Fatalf("New(badger) = %v, %v", b, err)
	}
	_ = b.Close()

	if _, err := New(ctx, Config{Type: "etcd"}); !core.IsInvalidConfig(err) {
		t.Errorf("New(etcd) error = %v, want INVALID_CONFIG", err)
	}

	tctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if _, err := New(tctx, Config{Type: TypeRedis, Addr: "127.0.0.1:1"}); !core.IsUnavailable(err) {
		t.Errorf("New(redis unreachable) error = %v, want UNAVAILABLE", err)
	}
}
