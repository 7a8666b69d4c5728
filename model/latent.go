package model

import (
	"cmp"
	"math"
	"math/rand"
	"slices"

	"github.com/rushteam/youchoose/core"
)

// latent 是两种方法共用的隐因子参数。
// 偏置按宽度为 1 的行存储，方便与隐向量共用同一套优化器。
type latent struct {
	dim      int
	users    [][]float64
	items    [][]float64
	userBias [][]float64
	itemBias [][]float64
}

func newLatent(numUsers, numItems, dim int, rng *rand.Rand, std float64) latent {
	return latent{
		dim:      dim,
		users:    normalRows(numUsers, dim, rng, std),
		items:    normalRows(numItems, dim, rng, std),
		userBias: zeroRows(numUsers, 1),
		itemBias: zeroRows(numItems, 1),
	}
}

func normalRows(n, dim int, rng *rand.Rand, std float64) [][]float64 {
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = make([]float64, dim)
		for k := range rows[i] {
			rows[i][k] = rng.NormFloat64() * std
		}
	}
	return rows
}

func zeroRows(n, dim int) [][]float64 {
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = make([]float64, dim)
	}
	return rows
}

// logit = b_u + b_i + <p_u, q_i>
func (l *latent) logit(u, i int) float64 {
	return l.userBias[u][0] + l.itemBias[i][0] + dot(l.users[u], l.items[i])
}

func (l *latent) inRange(u, i int) bool {
	return u >= 0 && u < len(l.users) && i >= 0 && i < len(l.items)
}

// top 按 logit 降序返回前 k 个物品（同分按下标升序），Score 经 transform 变换。
func (l *latent) top(user, k int, exclude map[int]struct{}, transform func(float64) float64) []Scored {
	if k <= 0 || user < 0 || user >= len(l.users) {
		return nil
	}
	out := make([]Scored, 0, len(l.items))
	for i := range l.items {
		if _, skip := exclude[i]; skip {
			continue
		}
		out = append(out, Scored{Item: i, Score: l.logit(user, i)})
	}
	slices.SortFunc(out, func(a, b Scored) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Item, b.Item)
	})
	if len(out) > k {
		out = out[:k]
	}
	if transform != nil {
		for j := range out {
			out[j].Score = transform(out[j].Score)
		}
	}
	return out
}

func (l *latent) snapshot(method string) *Snapshot {
	s := &Snapshot{
		Method:      method,
		NumFactors:  l.dim,
		UserFactors: cloneRows(l.users),
		ItemFactors: cloneRows(l.items),
		UserBias:    make([]float64, len(l.userBias)),
		ItemBias:    make([]float64, len(l.itemBias)),
	}
	for u, b := range l.userBias {
		s.UserBias[u] = b[0]
	}
	for i, b := range l.itemBias {
		s.ItemBias[i] = b[0]
	}
	return s
}

func (l *latent) restore(method string, s *Snapshot) error {
	if s.Method != method {
		return core.InvalidConfig(core.ModuleModel, "model: snapshot method %q does not match %q", s.Method, method)
	}
	if err := s.Validate(); err != nil {
		return err
	}
	l.dim = s.NumFactors
	l.users = cloneRows(s.UserFactors)
	l.items = cloneRows(s.ItemFactors)
	l.userBias = zeroRows(len(s.UserBias), 1)
	l.itemBias = zeroRows(len(s.ItemBias), 1)
	for u, b := range s.UserBias {
		l.userBias[u][0] = b
	}
	for i, b := range s.ItemBias {
		l.itemBias[i][0] = b
	}
	return nil
}

func cloneRows(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		out[i] = slices.Clone(r)
	}
	return out
}

func dot(a, b []float64) float64 {
	var s float64
	for k := range a {
		s += a[k] * b[k]
	}
	return s
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// bceWithLogits 是数值稳定的 -[y·log σ(z) + (1-y)·log(1-σ(z))]。
func bceWithLogits(z, y float64) float64 {
	return math.Max(z, 0) - z*y + math.Log1p(math.Exp(-math.Abs(z)))
}

// predictedClass 在 σ(z) > 0.5 时为 1。
func predictedClass(z float64) float64 {
	if z > 0 {
		return 1
	}
	return 0
}

// targetClass 把交互权重二值化：正权重（含未重加权的购买次数）为 1。
func targetClass(w float64) float64 {
	if w > 0 {
		return 1
	}
	return 0
}
