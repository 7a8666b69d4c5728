package model

import (
	"context"
	"io"
	"math"
	"math/rand"

	"github.com/rs/zerolog"

	"github.com/rushteam/youchoose/core"
	"github.com/rushteam/youchoose/dataset"
)

// MethodALS 是隐式反馈交替最小二乘方法名。
const MethodALS = "als"

// ALS 实现隐式反馈的交替最小二乘（Hu, Koren, Volinsky 2008）。
//
// 目标函数：
//
//	sum_{u,i} c_ui · (p_ui - x_u·y_i)² + λ(‖x_u‖² + ‖y_i‖²)
//
// 其中 p_ui = 1 表示 loader 中出现过正样本 (u, i)，置信度 c_ui = 1 + α·w_ui。
// 负样本（权重 0）只参与损失统计，不参与求解。ALS 不使用偏置项。
type ALS struct {
	latent
	opts Options
	log  zerolog.Logger
}

// NewALS 创建 ALS 模型，隐向量初始化为 N(0, 0.01²)。
func NewALS(opts Options) (*ALS, error) {
	opts = opts.withDefaults()
	if err := validateShape(opts); err != nil {
		return nil, err
	}
	if opts.Alpha < 0 || opts.Regularization < 0 {
		return nil, core.InvalidConfig(core.ModuleModel, "model: alpha and regularization must be >= 0 (alpha=%v, regularization=%v)", opts.Alpha, opts.Regularization)
	}
	rng := rand.New(rand.NewSource(opts.Seed))
	return &ALS{
		latent: newLatent(opts.NumUsers, opts.NumItems, opts.NumFactors, rng, 0.01),
		opts:   opts,
		log:    opts.logger().With().Str("model", MethodALS).Logger(),
	}, nil
}

func (a *ALS) Name() string { return MethodALS }

// Train 做一次交替求解：先固定物品解用户，再固定用户解物品。
// 返回的统计是用本轮更新前的参数计算的。
func (a *ALS) Train(ctx context.Context, loader *dataset.Loader) (Stats, error) {
	userItems := make(map[int]map[int]float64)
	var total Stats
	err := loader.Each(ctx, func(b *dataset.Batch) error {
		s, err := a.forward(b)
		if err != nil {
			return err
		}
		total.add(s)
		for j, w := range b.Weights {
			if w <= 0 {
				continue
			}
			u, i := b.Users[j], b.Items[j]
			if userItems[u] == nil {
				userItems[u] = make(map[int]float64)
			}
			// 重复交互取最大置信度
			if c := 1 + a.opts.Alpha*w; c > userItems[u][i] {
				userItems[u][i] = c
			}
		}
		return nil
	})
	if err != nil {
		return total, err
	}

	itemUsers := make(map[int]map[int]float64)
	for u, items := range userItems {
		for i, c := range items {
			if itemUsers[i] == nil {
				itemUsers[i] = make(map[int]float64)
			}
			itemUsers[i][u] = c
		}
	}

	if err := ctx.Err(); err != nil {
		return total, err
	}
	solveSide(a.users, a.items, userItems, a.opts.Regularization)
	if err := ctx.Err(); err != nil {
		return total, err
	}
	solveSide(a.items, a.users, itemUsers, a.opts.Regularization)

	a.log.Debug().Int("users", len(userItems)).Int("items", len(itemUsers)).Float64("loss", total.Loss).Msg("als sweep done")
	return total, nil
}

// Evaluate 报告平方误差 (x_u·y_i - p_ui)² 的批次均值，偏好 > 0.5 视为预测为正。
func (a *ALS) Evaluate(ctx context.Context, loader *dataset.Loader) (Stats, error) {
	var total Stats
	err := loader.Each(ctx, func(b *dataset.Batch) error {
		s, err := a.forward(b)
		if err != nil {
			return err
		}
		total.add(s)
		return nil
	})
	return total, err
}

func (a *ALS) forward(b *dataset.Batch) (Stats, error) {
	n := b.Len()
	if n == 0 {
		return Stats{}, nil
	}
	var loss float64
	correct := 0
	for j := 0; j < n; j++ {
		u, i, w := b.Users[j], b.Items[j], b.Weights[j]
		if !a.inRange(u, i) {
			return Stats{}, core.Errorf(core.ModuleModel, core.ErrorCodeInvalidInput,
				"model: example (%d, %d) out of range (users=%d, items=%d)", u, i, len(a.users), len(a.items))
		}
		pred := dot(a.users[u], a.items[i])
		target := targetClass(w)
		loss += (pred - target) * (pred - target)
		if predictedClass(pred-0.5) == target {
			correct++
		}
	}
	return Stats{Loss: loss / float64(n), Batches: 1, Correct: correct, Total: n}, nil
}

// solveSide 固定 fixed，逐行求解 target：
//
//	(FᵀF + Fᵀ(Cᵘ - I)F + λI) x_u = Fᵀ Cᵘ p_u
//
// 没有正样本的行解为零向量。
func solveSide(target, fixed [][]float64, observed map[int]map[int]float64, lambda float64) {
	if len(fixed) == 0 {
		return
	}
	dim := len(fixed[0])
	gram := make([][]float64, dim)
	for f := range gram {
		gram[f] = make([]float64, dim)
	}
	for _, y := range fixed {
		for f1 := 0; f1 < dim; f1++ {
			for f2 := f1; f2 < dim; f2++ {
				gram[f1][f2] += y[f1] * y[f2]
			}
		}
	}
	for f1 := 0; f1 < dim; f1++ {
		for f2 := 0; f2 < f1; f2++ {
			gram[f1][f2] = gram[f2][f1]
		}
	}

	A := make([][]float64, dim)
	for f := range A {
		A[f] = make([]float64, dim)
	}
	b := make([]float64, dim)
	for row := range target {
		for f := range A {
			copy(A[f], gram[f])
			A[f][f] += lambda
			b[f] = 0
		}
		for other, conf := range observed[row] {
			y := fixed[other]
			for f1 := 0; f1 < dim; f1++ {
				for f2 := f1; f2 < dim; f2++ {
					delta := (conf - 1) * y[f1] * y[f2]
					A[f1][f2] += delta
					if f1 != f2 {
						A[f2][f1] += delta
					}
				}
				b[f1] += conf * y[f1]
			}
		}
		target[row] = choleskySolve(A, b)
	}
}

// choleskySolve 用 Cholesky 分解 A = LLᵀ 求解 Ax = b；非正定时对角元取 1e-10。
func choleskySolve(A [][]float64, b []float64) []float64 {
	n := len(b)
	L := make([][]float64, n)
	for i := range L {
		L[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			sum := A[i][j]
			for k := 0; k < j; k++ {
				sum -= L[i][k] * L[j][k]
			}
			if i == j {
				if sum <= 0 {
					sum = 1e-10
				}
				L[i][j] = math.Sqrt(sum)
			} else if L[j][j] != 0 {
				L[i][j] = sum / L[j][j]
			}
		}
	}

	z := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := b[i]
		for j := 0; j < i; j++ {
			sum -= L[i][j] * z[j]
		}
		z[i] = sum / L[i][i]
	}
	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := z[i]
		for j := i + 1; j < n; j++ {
			sum -= L[j][i] * x[j]
		}
		x[i] = sum / L[i][i]
	}
	return x
}

// Predict 返回偏好分 x_u·y_i（未归一化）；下标越界返回 0。
func (a *ALS) Predict(user, item int) float64 {
	if !a.inRange(user, item) {
		return 0
	}
	return dot(a.users[user], a.items[item])
}

func (a *ALS) RecommendTop(user, k int, exclude map[int]struct{}) []Scored {
	return a.top(user, k, exclude, nil)
}

func (a *ALS) Snapshot() *Snapshot { return a.snapshot(MethodALS) }

func (a *ALS) Save(w io.Writer) error { return WriteSnapshot(w, a.Snapshot()) }

func (a *ALS) Load(r io.Reader) error {
	s, err := ReadSnapshot(r)
	if err != nil {
		return err
	}
	return a.restoreSnapshot(s)
}

var _ Recommender = (*ALS)(nil)
