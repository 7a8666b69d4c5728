// Package filter 提供在线推荐链路中的候选过滤。
package filter

import (
	"context"

	"github.com/rushteam/youchoose/core"
)

// Filter 判断一个 Item 是否应该被过滤掉。
// 返回 true 表示应该过滤（移除），false 表示保留。
type Filter interface {
	Name() string

	ShouldFilter(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error)
}

// Preparer 是需要按请求加载数据的过滤器（如读取用户已交互列表）。
// FilterNode 在每次 Process 开始时调用 Prepare，并用返回的 Filter 过滤本次请求。
type Preparer interface {
	Prepare(ctx context.Context, rctx *core.RecommendContext) (Filter, error)
}
