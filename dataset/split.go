package dataset

import (
	"math"
	"math/rand"
	"slices"

	"github.com/rushteam/youchoose/core"
)

// fracTolerance 吸收 0.7+0.3 之类浮点求和误差。
const fracTolerance = 1e-9

// Splits 是交互表的一次 训练/验证/测试 划分。
// 三个子表互不相交，并集等于源表。
type Splits struct {
	Train      *core.Table
	Validation *core.Table
	Test       *core.Table
}

type splitOptions struct {
	seed int64
}

// SplitOption 是 Split 的可选配置。
type SplitOption func(*splitOptions)

// WithSplitSeed 覆盖默认的切分随机种子。
func WithSplitSeed(seed int64) SplitOption {
	return func(o *splitOptions) { o.seed = seed }
}

// ValidateFractions 校验切分比例：两者都在 [0,1] 且和不超过 1。
func ValidateFractions(trainFrac, testFrac float64) error {
	if math.IsNaN(trainFrac) || math.IsNaN(testFrac) ||
		trainFrac < 0 || trainFrac > 1 || testFrac < 0 || testFrac > 1 ||
		trainFrac+testFrac > 1+fracTolerance {
		return core.InvalidConfig(core.ModuleDataset,
			"dataset: train_frac (%v) and test_frac (%v) must both be in [0,1] and sum to at most 1",
			trainFrac, testFrac)
	}
	return nil
}

// Split 把交互表划分为训练、验证、测试三部分。
//
// 规则：
//   - 训练集：不放回均匀抽取 round(trainFrac × n) 行
//   - 测试集：从剩余行中抽取 int(testFrac × n) 行（按源表行数计算，截断取整）
//   - 验证集：其余所有行，保持源表顺序
//
// 两次抽样都使用同一个固定种子（默认 23），保证边界在多次运行间可复现。
func Split(t *core.Table, trainFrac, testFrac float64, opts ...SplitOption) (*Splits, error) {
	if err := ValidateFractions(trainFrac, testFrac); err != nil {
		return nil, err
	}
	o := splitOptions{seed: (&core.DefaultDatasetConfig{}).DefaultSplitSeed()}
	for _, opt := range opts {
		opt(&o)
	}

	n := t.Len()
	nTrain := int(math.Round(trainFrac * float64(n)))
	if nTrain > n {
		nTrain = n
	}
	trainPos := sampleWithoutReplacement(rangeInts(n), nTrain, o.seed)

	rest := difference(n, trainPos)
	nTest := int(testFrac * float64(n))
	if nTest > len(rest) {
		nTest = len(rest)
	}
	testPos := sampleWithoutReplacement(rest, nTest, o.seed)

	valPos := difference(n, append(slices.Clone(trainPos), testPos...))

	return &Splits{
		Train:      t.Subset(trainPos),
		Validation: t.Subset(valPos),
		Test:       t.Subset(testPos),
	}, nil
}

// sampleWithoutReplacement 从 pool 中不放回抽取 k 个元素，保留抽样顺序。
func sampleWithoutReplacement(pool []int, k int, seed int64) []int {
	if k <= 0 {
		return []int{}
	}
	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(len(pool))
	out := make([]int, k)
	for i := 0; i < k; i++ {
		out[i] = pool[perm[i]]
	}
	return out
}

// difference 返回 [0,n) 中不在 taken 里的位置，升序。
func difference(n int, taken []int) []int {
	used := make([]bool, n)
	for _, p := range taken {
		used[p] = true
	}
	out := make([]int, 0, n-len(taken))
	for p := 0; p < n; p++ {
		if !used[p] {
			out = append(out, p)
		}
	}
	return out
}

func rangeInts(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
