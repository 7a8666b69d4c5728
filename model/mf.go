package model

import (
	"context"
	"io"
	"math/rand"

	"github.com/rs/zerolog"

	"github.com/rushteam/youchoose/core"
	"github.com/rushteam/youchoose/dataset"
)

// MethodNN 是矩阵分解方法名。
const MethodNN = "nn"

// MatrixFactorization 把用户和物品映射到同一隐空间：
//
//	logit(u, i) = b_u + b_i + <p_u, q_i>
//	P(交互) = sigmoid(logit)
//
// 损失为 BCEWithLogits（按批次平均），负样本（权重 0）与正样本一起参与训练。
// 隐向量初始化为 N(0, (1/dim)²)，偏置初始化为 0。
//
// MatrixFactorization 不是并发安全的：Train 与其他方法不能同时调用；
// 多个 Evaluate / Predict 之间可以并发。
type MatrixFactorization struct {
	latent
	opts Options
	opt  optimizer
	log  zerolog.Logger

	pUsers, pItems, pUserBias, pItemBias *param
}

// NewMatrixFactorization 创建矩阵分解模型。
func NewMatrixFactorization(opts Options) (*MatrixFactorization, error) {
	opts = opts.withDefaults()
	if err := validateShape(opts); err != nil {
		return nil, err
	}
	opt, err := newOptimizer(opts)
	if err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(opts.Seed))
	m := &MatrixFactorization{
		latent: newLatent(opts.NumUsers, opts.NumItems, opts.NumFactors, rng, 1/float64(opts.NumFactors)),
		opts:   opts,
		opt:    opt,
		log:    opts.logger().With().Str("model", MethodNN).Logger(),
	}
	m.bindParams()
	return m, nil
}

func validateShape(o Options) error {
	if o.NumUsers < 0 || o.NumItems < 0 {
		return core.InvalidConfig(core.ModuleModel, "model: negative cardinality (users=%d, items=%d)", o.NumUsers, o.NumItems)
	}
	if o.NumFactors < 1 {
		return core.InvalidConfig(core.ModuleModel, "model: num factors must be >= 1, got %d", o.NumFactors)
	}
	return nil
}

func (m *MatrixFactorization) bindParams() {
	m.pUsers = newParam(m.users)
	m.pItems = newParam(m.items)
	m.pUserBias = newParam(m.userBias)
	m.pItemBias = newParam(m.itemBias)
}

func (m *MatrixFactorization) Name() string { return MethodNN }

// Train 训练一轮。每个批次先用当前参数计算全部梯度，再只更新该批次涉及的行。
func (m *MatrixFactorization) Train(ctx context.Context, loader *dataset.Loader) (Stats, error) {
	var total Stats
	g := newGradients()
	err := loader.Each(ctx, func(b *dataset.Batch) error {
		s, err := m.forward(b, g)
		if err != nil {
			return err
		}
		m.apply(g)
		total.add(s)
		return nil
	})
	if err != nil {
		return total, err
	}
	m.log.Debug().Int("batches", total.Batches).Float64("loss", total.Loss).Float64("accuracy", total.Accuracy()).Msg("epoch trained")
	return total, nil
}

// Evaluate 计算损失与准确率，不更新参数。
func (m *MatrixFactorization) Evaluate(ctx context.Context, loader *dataset.Loader) (Stats, error) {
	var total Stats
	err := loader.Each(ctx, func(b *dataset.Batch) error {
		s, err := m.forward(b, nil)
		if err != nil {
			return err
		}
		total.add(s)
		return nil
	})
	return total, err
}

// forward 计算一个批次的平均损失与预测正确数；g 非 nil 时同时累积梯度。
func (m *MatrixFactorization) forward(b *dataset.Batch, g *gradients) (Stats, error) {
	n := b.Len()
	if n == 0 {
		return Stats{}, nil
	}
	if g != nil {
		g.reset()
	}
	var loss float64
	correct := 0
	for j := 0; j < n; j++ {
		u, i, y := b.Users[j], b.Items[j], b.Weights[j]
		if !m.inRange(u, i) {
			return Stats{}, core.Errorf(core.ModuleModel, core.ErrorCodeInvalidInput,
				"model: example (%d, %d) out of range (users=%d, items=%d)", u, i, len(m.users), len(m.items))
		}
		z := m.logit(u, i)
		loss += bceWithLogits(z, y)
		if predictedClass(z) == targetClass(y) {
			correct++
		}
		if g == nil {
			continue
		}
		dz := (sigmoid(z) - y) / float64(n)
		pu, qi := m.users[u], m.items[i]
		gu, gi := g.row(g.users, u, m.dim), g.row(g.items, i, m.dim)
		for k := range pu {
			gu[k] += dz * qi[k]
			gi[k] += dz * pu[k]
		}
		g.userBias[u] += dz
		g.itemBias[i] += dz
	}
	return Stats{Loss: loss / float64(n), Batches: 1, Correct: correct, Total: n}, nil
}

func (m *MatrixFactorization) apply(g *gradients) {
	for u, grad := range g.users {
		m.opt.update(m.pUsers, u, grad)
	}
	for i, grad := range g.items {
		m.opt.update(m.pItems, i, grad)
	}
	one := make([]float64, 1)
	for u, grad := range g.userBias {
		one[0] = grad
		m.opt.update(m.pUserBias, u, one)
	}
	for i, grad := range g.itemBias {
		one[0] = grad
		m.opt.update(m.pItemBias, i, one)
	}
}

// Predict 返回正交互概率 sigmoid(logit)；下标越界返回 0。
func (m *MatrixFactorization) Predict(user, item int) float64 {
	if !m.inRange(user, item) {
		return 0
	}
	return sigmoid(m.logit(user, item))
}

// RecommendTop 的 Score 为正交互概率。
func (m *MatrixFactorization) RecommendTop(user, k int, exclude map[int]struct{}) []Scored {
	return m.top(user, k, exclude, sigmoid)
}

func (m *MatrixFactorization) Snapshot() *Snapshot { return m.snapshot(MethodNN) }

func (m *MatrixFactorization) Save(w io.Writer) error { return WriteSnapshot(w, m.Snapshot()) }

// Load 恢复参数并重置优化器状态。
func (m *MatrixFactorization) Load(r io.Reader) error {
	s, err := ReadSnapshot(r)
	if err != nil {
		return err
	}
	return m.restoreSnapshot(s)
}

// gradients 是一个批次内按行累积的稀疏梯度。
type gradients struct {
	users    map[int][]float64
	items    map[int][]float64
	userBias map[int]float64
	itemBias map[int]float64
}

func newGradients() *gradients {
	return &gradients{
		users:    make(map[int][]float64),
		items:    make(map[int][]float64),
		userBias: make(map[int]float64),
		itemBias: make(map[int]float64),
	}
}

func (g *gradients) reset() {
	clear(g.users)
	clear(g.items)
	clear(g.userBias)
	clear(g.itemBias)
}

func (g *gradients) row(m map[int][]float64, idx, dim int) []float64 {
	r, ok := m[idx]
	if !ok {
		r = make([]float64, dim)
		m[idx] = r
	}
	return r
}

var _ Recommender = (*MatrixFactorization)(nil)
