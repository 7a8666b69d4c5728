package dataset

import (
	"github.com/rushteam/youchoose/core"
)

// Loaders 是 RatingsDataloader 的输出：三个分区的加载器、两个标识索引及其基数。
type Loaders struct {
	Train      *Loader
	Validation *Loader
	Test       *Loader

	Users *Index[string]
	Items *Index[string]

	NumUsers int
	NumItems int
}

type ratingsOptions struct {
	batchSize    int
	numNegs      int
	shuffleTrain bool
	reweight     bool
	trainFrac    float64
	testFrac     float64
	splitSeed    int64
	sampleSeed   int64
}

// RatingsOption 是 RatingsDataloader 的可选配置。
type RatingsOption func(*ratingsOptions)

// WithBatchSize 设置三个加载器共用的批大小（默认 1）。
func WithBatchSize(n int) RatingsOption {
	return func(o *ratingsOptions) { o.batchSize = n }
}

// WithNegatives 设置每个正样本的负样本数（默认 0，不采样）。
func WithNegatives(n int) RatingsOption {
	return func(o *ratingsOptions) { o.numNegs = n }
}

// WithShuffleTrain 设置训练集是否每轮打乱（默认 true）；验证/测试集从不打乱。
func WithShuffleTrain(shuffle bool) RatingsOption {
	return func(o *ratingsOptions) { o.shuffleTrain = shuffle }
}

// WithReweight 为 true 时把所有交互权重二值化为 1.0（默认 true）。
func WithReweight(reweight bool) RatingsOption {
	return func(o *ratingsOptions) { o.reweight = reweight }
}

// WithFractions 设置训练/测试比例（默认 0.8 / 0.1，验证集为剩余部分）。
func WithFractions(trainFrac, testFrac float64) RatingsOption {
	return func(o *ratingsOptions) {
		o.trainFrac = trainFrac
		o.testFrac = testFrac
	}
}

// WithRatingsSplitSeed 设置切分种子（默认 23）。
func WithRatingsSplitSeed(seed int64) RatingsOption {
	return func(o *ratingsOptions) { o.splitSeed = seed }
}

// WithSampleSeed 设置负采样与打乱使用的基础种子；三个分区分别使用 seed、seed+1、seed+2。
func WithSampleSeed(seed int64) RatingsOption {
	return func(o *ratingsOptions) { o.sampleSeed = seed }
}

// RatingsDataloader 把一张交互表转换为 训练/验证/测试 三个加载器。
//
// 流程：
//  1. 校验切分比例（任何抽样之前）
//  2. 按固定种子切分
//  3. 在全量表上建立用户/物品索引（三个分区共享同一套下标）
//  4. 在全量表上构建交互集合，负采样时排除用户在任一分区中交互过的物品
//  5. 按 reweight 生成权重映射
func RatingsDataloader(t *core.Table, opts ...RatingsOption) (*Loaders, error) {
	defaults := &core.DefaultDatasetConfig{}
	o := ratingsOptions{
		batchSize:    defaults.DefaultBatchSize(),
		numNegs:      defaults.DefaultNumNegs(),
		shuffleTrain: defaults.DefaultShuffleTrain(),
		reweight:     defaults.DefaultReweight(),
		trainFrac:    defaults.DefaultTrainFrac(),
		testFrac:     defaults.DefaultTestFrac(),
		splitSeed:    defaults.DefaultSplitSeed(),
		sampleSeed:   defaults.DefaultSplitSeed(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	if err := ValidateFractions(o.trainFrac, o.testFrac); err != nil {
		return nil, err
	}
	if o.numNegs < 0 {
		return nil, core.InvalidConfig(core.ModuleDataset, "dataset: the number of negative samples must be >= 0, got %d", o.numNegs)
	}
	if o.batchSize < 1 {
		return nil, core.InvalidConfig(core.ModuleDataset, "dataset: batch size must be >= 1, got %d", o.batchSize)
	}

	splits, err := Split(t, o.trainFrac, o.testFrac, WithSplitSeed(o.splitSeed))
	if err != nil {
		return nil, err
	}

	users := NewIDIndex(t.UserIDs())
	items := NewIDIndex(t.ItemIDs())
	sets, err := BuildInteractionSets(t, users, items)
	if err != nil {
		return nil, err
	}

	weights := make(map[float64]float64)
	for _, w := range t.Weights() {
		if o.reweight {
			weights[w] = 1.0
		} else {
			weights[w] = w
		}
	}

	out := &Loaders{
		Users:    users,
		Items:    items,
		NumUsers: users.Len(),
		NumItems: items.Len(),
	}
	parts := []struct {
		table   *core.Table
		shuffle bool
		dst     **Loader
	}{
		{splits.Train, o.shuffleTrain, &out.Train},
		{splits.Validation, false, &out.Validation},
		{splits.Test, false, &out.Test},
	}
	for i, p := range parts {
		seed := o.sampleSeed + int64(i)
		ds, err := NewInteractionsDataset(p.table, users, items,
			WithNumNegs(o.numNegs),
			WithReweighting(weights),
			WithInteractionSets(sets),
			WithSeed(seed),
		)
		if err != nil {
			return nil, err
		}
		loader, err := NewLoader(ds, o.batchSize, p.shuffle, WithShuffleSeed(seed))
		if err != nil {
			return nil, err
		}
		*p.dst = loader
	}
	return out, nil
}
