package model

import (
	"math"

	"github.com/rushteam/youchoose/core"
)

// 支持的优化器
const (
	OptimizerSGD  = "sgd"
	OptimizerAdam = "adam"
)

const (
	adamBeta1   = 0.9
	adamBeta2   = 0.999
	adamEpsilon = 1e-8
)

// param 是一张按行更新的参数表，优化器状态按行惰性分配。
type param struct {
	rows   [][]float64
	first  [][]float64
	second [][]float64
	steps  []int
}

func newParam(rows [][]float64) *param {
	return &param{rows: rows}
}

func (p *param) firstMoment(row int) []float64 {
	if p.first == nil {
		p.first = make([][]float64, len(p.rows))
	}
	if p.first[row] == nil {
		p.first[row] = make([]float64, len(p.rows[row]))
	}
	return p.first[row]
}

func (p *param) secondMoment(row int) []float64 {
	if p.second == nil {
		p.second = make([][]float64, len(p.rows))
	}
	if p.second[row] == nil {
		p.second[row] = make([]float64, len(p.rows[row]))
	}
	return p.second[row]
}

func (p *param) step(row int) int {
	if p.steps == nil {
		p.steps = make([]int, len(p.rows))
	}
	p.steps[row]++
	return p.steps[row]
}

// optimizer 对一行参数应用一次梯度更新。只有批次中出现过的行会被更新。
type optimizer interface {
	update(p *param, row int, grad []float64)
}

func newOptimizer(o Options) (optimizer, error) {
	if o.LearningRate <= 0 {
		return nil, core.InvalidConfig(core.ModuleModel, "model: learning rate must be > 0, got %v", o.LearningRate)
	}
	if o.L2 < 0 {
		return nil, core.InvalidConfig(core.ModuleModel, "model: l2 must be >= 0, got %v", o.L2)
	}
	switch o.Optimizer {
	case OptimizerSGD:
		if o.Momentum < 0 {
			return nil, core.InvalidConfig(core.ModuleModel, "model: momentum must be >= 0, got %v", o.Momentum)
		}
		return &sgd{lr: o.LearningRate, momentum: o.Momentum, l2: o.L2}, nil
	case OptimizerAdam:
		return &adam{lr: o.LearningRate, l2: o.L2}, nil
	default:
		return nil, core.InvalidConfig(core.ModuleModel, "model: unsupported optimizer %q (supported: %s, %s)", o.Optimizer, OptimizerSGD, OptimizerAdam)
	}
}

// sgd 带动量与 L2 权重衰减：d = g + λw；v = μv + d；w -= lr·v
type sgd struct {
	lr       float64
	momentum float64
	l2       float64
}

func (o *sgd) update(p *param, row int, grad []float64) {
	w := p.rows[row]
	var buf []float64
	if o.momentum != 0 {
		buf = p.firstMoment(row)
	}
	for k := range w {
		d := grad[k] + o.l2*w[k]
		if buf != nil {
			buf[k] = o.momentum*buf[k] + d
			d = buf[k]
		}
		w[k] -= o.lr * d
	}
}

// adam 的步数按行计数，未被采样到的行不推进偏差修正。
type adam struct {
	lr float64
	l2 float64
}

func (o *adam) update(p *param, row int, grad []float64) {
	w := p.rows[row]
	m := p.firstMoment(row)
	v := p.secondMoment(row)
	t := float64(p.step(row))
	c1 := 1 - math.Pow(adamBeta1, t)
	c2 := 1 - math.Pow(adamBeta2, t)
	for k := range w {
		d := grad[k] + o.l2*w[k]
		m[k] = adamBeta1*m[k] + (1-adamBeta1)*d
		v[k] = adamBeta2*v[k] + (1-adamBeta2)*d*d
		w[k] -= o.lr * (m[k] / c1) / (math.Sqrt(v[k]/c2) + adamEpsilon)
	}
}
