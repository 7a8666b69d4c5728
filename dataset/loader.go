package dataset

import (
	"context"
	"math/rand"

	"github.com/rushteam/youchoose/core"
)

// Batch 是一个批次的样本，三个切片等长、按位置对应。
// batchSize 行开启负采样时包含 batchSize × (1+numNegs) 条样本。
type Batch struct {
	Users   []int
	Items   []int
	Weights []float64
}

// Len 返回批次中的样本数。
func (b *Batch) Len() int { return len(b.Users) }

// Loader 以固定批大小遍历数据集，可选每轮打乱行顺序。
// Loader 不是并发安全的：同一时刻只应被一个训练/评估循环使用。
type Loader struct {
	ds        *InteractionsDataset
	batchSize int
	shuffle   bool
	rng       *rand.Rand
	order     []int
}

// LoaderOption 是 Loader 的可选配置。
type LoaderOption func(*Loader)

// WithShuffleSeed 设置打乱顺序使用的随机种子。
func WithShuffleSeed(seed int64) LoaderOption {
	return func(l *Loader) { l.rng = rand.New(rand.NewSource(seed)) }
}

// NewLoader 创建批量加载器；batchSize < 1 返回 INVALID_CONFIG。
func NewLoader(ds *InteractionsDataset, batchSize int, shuffle bool, opts ...LoaderOption) (*Loader, error) {
	if batchSize < 1 {
		return nil, core.InvalidConfig(core.ModuleDataset, "dataset: batch size must be >= 1, got %d", batchSize)
	}
	l := &Loader{
		ds:        ds,
		batchSize: batchSize,
		shuffle:   shuffle,
		order:     rangeInts(ds.Len()),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.rng == nil {
		l.rng = rand.New(rand.NewSource((&core.DefaultDatasetConfig{}).DefaultSplitSeed()))
	}
	return l, nil
}

// Dataset 返回底层数据集。
func (l *Loader) Dataset() *InteractionsDataset { return l.ds }

// BatchSize 返回批大小（按行计）。
func (l *Loader) BatchSize() int { return l.batchSize }

// Shuffle 返回是否每轮打乱。
func (l *Loader) Shuffle() bool { return l.shuffle }

// Len 返回行数。
func (l *Loader) Len() int { return l.ds.Len() }

// NumBatches 返回一轮的批次数 ceil(Len / batchSize)。
func (l *Loader) NumBatches() int {
	return (l.ds.Len() + l.batchSize - 1) / l.batchSize
}

// Each 遍历一轮（epoch）。shuffle 开启时每次调用都会重新打乱行顺序。
// fn 返回错误或 ctx 取消时提前结束。传给 fn 的 Batch 在下一次回调前有效。
func (l *Loader) Each(ctx context.Context, fn func(*Batch) error) error {
	if l.shuffle {
		l.rng.Shuffle(len(l.order), func(i, j int) {
			l.order[i], l.order[j] = l.order[j], l.order[i]
		})
	}

	per := 1 + l.ds.NumNegs()
	buf := make([]Example, 0, l.batchSize*per)
	batch := &Batch{
		Users:   make([]int, 0, l.batchSize*per),
		Items:   make([]int, 0, l.batchSize*per),
		Weights: make([]float64, 0, l.batchSize*per),
	}

	for start := 0; start < len(l.order); start += l.batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+l.batchSize, len(l.order))

		buf = buf[:0]
		for _, idx := range l.order[start:end] {
			var err error
			if buf, err = l.ds.appendRow(buf, idx); err != nil {
				return err
			}
		}

		batch.Users, batch.Items, batch.Weights = batch.Users[:0], batch.Items[:0], batch.Weights[:0]
		for _, ex := range buf {
			batch.Users = append(batch.Users, ex.User)
			batch.Items = append(batch.Items, ex.Item)
			batch.Weights = append(batch.Weights, ex.Weight)
		}
		if err := fn(batch); err != nil {
			return err
		}
	}
	return nil
}
