package filter

import (
	"context"

	"github.com/rushteam/youchoose/core"
	"github.com/rushteam/youchoose/pkg/dsl"
)

// ExprFilter 用 CEL 表达式过滤物品：表达式为 true 的物品保留，为 false 的被移除。
//
// 可用变量：item.id / item.score / item.meta / item.labels、label.<key>、rctx.user_id / rctx.scene / rctx.params。
//
//	&filter.ExprFilter{Expr: `item.score >= 0.2`}
type ExprFilter struct {
	Expr string

	compiled *dsl.ItemFilter
}

// NewExprFilter 编译表达式，表达式错误在构建时返回。
func NewExprFilter(expr string) (*ExprFilter, error) {
	f, err := dsl.CompileItemFilter(expr)
	if err != nil {
		return nil, err
	}
	return &ExprFilter{Expr: expr, compiled: f}, nil
}

func (f *ExprFilter) Name() string { return "filter.expr" }

func (f *ExprFilter) ShouldFilter(_ context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error) {
	if f.Expr == "" || item == nil {
		return false, nil
	}
	compiled := f.compiled
	if compiled == nil {
		// 直接构造的 ExprFilter 每次编译，需要复用时使用 NewExprFilter
		var err error
		if compiled, err = dsl.CompileItemFilter(f.Expr); err != nil {
			return false, err
		}
	}
	keep, err := compiled.Match(item, rctx)
	if err != nil {
		return false, err
	}
	return !keep, nil
}
