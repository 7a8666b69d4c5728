// Package store 提供 core.Store / core.KeyValueStore 的实现，
// 用于发布训练好的隐向量和用户已交互列表，供在线召回读取。
//
// 注意：此包只包含实现，接口定义在 core 包。
//
// 示例：
//
//	s, err := store.New(ctx, store.Config{Type: store.TypeBadger, Path: "/var/lib/youchoose"})
//	var kv core.KeyValueStore = s
package store

import (
	"context"

	"github.com/rushteam/youchoose/core"
)

// 支持的存储类型
const (
	TypeMemory = "memory"
	TypeRedis  = "redis"
	TypeBadger = "badger"
)

// Config 是存储后端配置。
//   - memory：无额外参数
//   - redis：Addr / DB / Password
//   - badger：Path（为空时使用内存模式）
type Config struct {
	Type     string `koanf:"type" yaml:"type"`
	Addr     string `koanf:"addr" yaml:"addr"`
	DB       int    `koanf:"db" yaml:"db"`
	Password string `koanf:"password" yaml:"password"`
	Path     string `koanf:"path" yaml:"path"`
}

// New 按类型创建存储；不支持的类型返回 INVALID_CONFIG。
func New(ctx context.Context, cfg Config) (core.KeyValueStore, error) {
	switch cfg.Type {
	case TypeMemory:
		return NewMemoryStore(), nil
	case TypeRedis:
		return NewRedisStore(ctx, cfg.Addr, cfg.DB, cfg.Password)
	case TypeBadger:
		return NewBadgerStore(cfg.Path)
	default:
		return nil, core.InvalidConfig(core.ModuleStore, "store: unsupported type %q (supported: %s, %s, %s)",
			cfg.Type, TypeMemory, TypeRedis, TypeBadger)
	}
}

// ttlSeconds 解析可变 ttl 参数（秒），<= 0 表示不过期。
func ttlSeconds(ttl []int) int {
	if len(ttl) > 0 && ttl[0] > 0 {
		return ttl[0]
	}
	return 0
}
