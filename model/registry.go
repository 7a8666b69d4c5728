package model

import (
	"sort"
	"strings"
	"sync"

	"github.com/rushteam/youchoose/core"
)

// Builder 根据 Options 构建一种方法的模型。
type Builder func(Options) (Recommender, error)

var (
	builders   = make(map[string]Builder)
	buildersMu sync.RWMutex
)

func init() {
	Register(MethodNN, func(o Options) (Recommender, error) { return NewMatrixFactorization(o) })
	Register(MethodALS, func(o Options) (Recommender, error) { return NewALS(o) })
}

// Register 注册一种训练方法；同名方法会被覆盖。
func Register(method string, b Builder) {
	if method == "" || b == nil {
		return
	}
	buildersMu.Lock()
	defer buildersMu.Unlock()
	builders[method] = b
}

// SupportedMethods 返回已注册的方法名（排序）。
func SupportedMethods() []string {
	buildersMu.RLock()
	defer buildersMu.RUnlock()
	methods := make([]string, 0, len(builders))
	for m := range builders {
		methods = append(methods, m)
	}
	sort.Strings(methods)
	return methods
}

// New 按方法名创建模型；未注册的方法返回 INVALID_CONFIG。
func New(method string, opts Options) (Recommender, error) {
	buildersMu.RLock()
	b, ok := builders[method]
	buildersMu.RUnlock()
	if !ok {
		return nil, core.InvalidConfig(core.ModuleModel, "model: unsupported method %q (supported: %s)", method, strings.Join(SupportedMethods(), ", "))
	}
	return b(opts)
}
