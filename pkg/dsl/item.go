package dsl

import (
	"github.com/google/cel-go/cel"

	"github.com/rushteam/youchoose/core"
)

// ItemFilter 是编译好的候选物品过滤表达式。
//
// 表达式语法（CEL 标准语法）：
//   - 数值：item.score > 0.7
//   - 标签：label.recall_source == "mf"
//   - 存在性：has(label.category)
//   - 上下文：rctx.scene == "home" && item.id != rctx.params.pinned
type ItemFilter struct {
	expr string
	prg  cel.Program
}

// CompileItemFilter 编译物品过滤表达式；空表达式保留全部物品。
func CompileItemFilter(expr string) (*ItemFilter, error) {
	env, err := getItemEnv()
	prg, err := compile(env, err, expr)
	if err != nil {
		return nil, err
	}
	return &ItemFilter{expr: expr, prg: prg}, nil
}

// Match 判断物品是否保留。
func (f *ItemFilter) Match(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	if f.prg == nil {
		return true, nil
	}
	return evalBool(f.prg, f.expr, buildItemInput(item, rctx))
}

// buildItemInput 构建 CEL 表达式的输入数据
func buildItemInput(item *core.Item, rctx *core.RecommendContext) map[string]any {
	labels := make(map[string]any, len(item.Labels))
	labelValues := make(map[string]any, len(item.Labels))
	for k, v := range item.Labels {
		labels[k] = map[string]any{"value": v.Value, "source": v.Source}
		labelValues[k] = v.Value
	}

	meta := make(map[string]any, len(item.Meta))
	for k, v := range item.Meta {
		meta[k] = v
	}
	itemMap := map[string]any{
		"id":     item.ID,
		"score":  item.Score,
		"meta":   meta,
		"labels": labels,
	}

	rctxMap := map[string]any{}
	if rctx != nil {
		params := make(map[string]any, len(rctx.Params))
		for k, v := range rctx.Params {
			params[k] = v
		}
		rctxMap = map[string]any{
			"user_id": rctx.UserID,
			"scene":   rctx.Scene,
			"params":  params,
		}
	}

	return map[string]any{
		"item":  itemMap,
		"label": labelValues,
		"rctx":  rctxMap,
	}
}
