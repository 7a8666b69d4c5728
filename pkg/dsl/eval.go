// Package dsl 提供基于 CEL (Common Expression Language) 的过滤表达式。
//
// 两类表达式：
//   - 行过滤（RowFilter）：训练前筛选交互记录，变量 row
//   - 物品过滤（ItemFilter）：推荐时筛选候选物品，变量 item / label / rctx
//
// 表达式编译一次后可在多个 goroutine 中重复求值。
package dsl

import (
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/youchoose/core"
)

var (
	rowEnv     *cel.Env
	rowEnvErr  error
	rowEnvOnce sync.Once

	itemEnv     *cel.Env
	itemEnvErr  error
	itemEnvOnce sync.Once
)

func getRowEnv() (*cel.Env, error) {
	rowEnvOnce.Do(func() {
		rowEnv, rowEnvErr = cel.NewEnv(
			cel.Variable("row", cel.MapType(cel.StringType, cel.DynType)),
			cel.CrossTypeNumericComparisons(true),
		)
	})
	return rowEnv, rowEnvErr
}

func getItemEnv() (*cel.Env, error) {
	itemEnvOnce.Do(func() {
		itemEnv, itemEnvErr = cel.NewEnv(
			cel.Variable("item", cel.DynType),
			cel.Variable("label", cel.DynType),
			cel.Variable("rctx", cel.DynType),
			cel.CrossTypeNumericComparisons(true),
		)
	})
	return itemEnv, itemEnvErr
}

// compile 编译表达式；空表达式返回 nil 程序，表示全部保留。
func compile(env *cel.Env, envErr error, expr string) (cel.Program, error) {
	if envErr != nil {
		return nil, core.Errorf(core.ModuleDSL, core.ErrorCodeInternalError, "dsl: init env: %w", envErr)
	}
	if expr == "" {
		return nil, nil
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, core.Errorf(core.ModuleDSL, core.ErrorCodeInvalidInput, "dsl: compile %q: %w", expr, issues.Err())
	}
	if t := ast.OutputType(); !t.IsExactType(cel.BoolType) && !t.IsExactType(cel.DynType) {
		return nil, core.Errorf(core.ModuleDSL, core.ErrorCodeInvalidInput, "dsl: expression %q must return bool, got %s", expr, t)
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, core.Errorf(core.ModuleDSL, core.ErrorCodeInvalidInput, "dsl: program %q: %w", expr, err)
	}
	return prg, nil
}

func evalBool(prg cel.Program, expr string, input map[string]any) (bool, error) {
	if prg == nil {
		return true, nil
	}
	out, _, err := prg.Eval(input)
	if err != nil {
		// 访问不存在的 key 会报错，存在性检查应写成 has(label.key)
		return false, core.Errorf(core.ModuleDSL, core.ErrorCodeInvalidInput, "dsl: eval %q: %w", expr, err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, core.Errorf(core.ModuleDSL, core.ErrorCodeInvalidInput, "dsl: expression %q must return bool, got %T", expr, out.Value())
	}
	return result, nil
}
