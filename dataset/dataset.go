package dataset

import (
	"math/rand"

	"github.com/rushteam/youchoose/core"
)

// Example 是一条训练样本：(用户下标, 物品下标, 权重)。负样本权重为 0。
type Example struct {
	User   int
	Item   int
	Weight float64
}

// InteractionsDataset 包装一张（已切分的）交互表和标识索引，
// 按行返回正样本，并在开启负采样时附带 numNegs 个负样本。
type InteractionsDataset struct {
	table   *core.Table
	users   *Index[string]
	items   *Index[string]
	sets    InteractionSets
	weights map[float64]float64
	numNegs int
	sampler *NegativeSampler

	// 每行预先转换好的下标，避免每次 Get 都查 map
	rowUsers []int
	rowItems []int
}

type datasetOptions struct {
	numNegs   int
	reweight  map[float64]float64
	sets      InteractionSets
	seed      int64
	seedIsSet bool
}

// DatasetOption 是 InteractionsDataset 的可选配置。
type DatasetOption func(*datasetOptions)

// WithNumNegs 设置每个正样本的负样本数（必须 >= 0）。
func WithNumNegs(n int) DatasetOption {
	return func(o *datasetOptions) { o.numNegs = n }
}

// WithReweighting 设置权重重映射表；不在表中的权重值保持不变。
func WithReweighting(m map[float64]float64) DatasetOption {
	return func(o *datasetOptions) { o.reweight = m }
}

// WithInteractionSets 指定负采样排除用的交互集合。
// 默认从本数据集自身的表构建；RatingsDataloader 传入全量表的集合。
func WithInteractionSets(sets InteractionSets) DatasetOption {
	return func(o *datasetOptions) { o.sets = sets }
}

// WithSeed 设置负采样随机种子。
func WithSeed(seed int64) DatasetOption {
	return func(o *datasetOptions) {
		o.seed = seed
		o.seedIsSet = true
	}
}

// NewInteractionsDataset 创建交互数据集。
// numNegs < 0 返回 INVALID_CONFIG；表中标识不在索引中返回 NOT_FOUND。
func NewInteractionsDataset(t *core.Table, users, items *Index[string], opts ...DatasetOption) (*InteractionsDataset, error) {
	o := datasetOptions{numNegs: (&core.DefaultDatasetConfig{}).DefaultNumNegs()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.numNegs < 0 {
		return nil, core.InvalidConfig(core.ModuleDataset, "dataset: the number of negative samples must be >= 0, got %d", o.numNegs)
	}

	rowUsers, err := users.Indices(t.UserIDs())
	if err != nil {
		return nil, err
	}
	rowItems, err := items.Indices(t.ItemIDs())
	if err != nil {
		return nil, err
	}

	sets := o.sets
	if sets == nil {
		if sets, err = BuildInteractionSets(t, users, items); err != nil {
			return nil, err
		}
	}

	seed := (&core.DefaultDatasetConfig{}).DefaultSplitSeed()
	if o.seedIsSet {
		seed = o.seed
	}

	ds := &InteractionsDataset{
		table:    t,
		users:    users,
		items:    items,
		sets:     sets,
		weights:  o.reweight,
		numNegs:  o.numNegs,
		rowUsers: rowUsers,
		rowItems: rowItems,
	}
	if ds.numNegs > 0 {
		ds.sampler = NewNegativeSampler(items.Len(), sets, rand.New(rand.NewSource(seed)))
	}
	return ds, nil
}

// Len 返回正样本行数。
func (d *InteractionsDataset) Len() int { return d.table.Len() }

// NumUsers 返回用户数（索引的基数，而非本表中出现的用户数）。
func (d *InteractionsDataset) NumUsers() int { return d.users.Len() }

// NumItems 返回物品数。
func (d *InteractionsDataset) NumItems() int { return d.items.Len() }

// NumNegs 返回每行的负样本数。
func (d *InteractionsDataset) NumNegs() int { return d.numNegs }

// Table 返回底层交互表。
func (d *InteractionsDataset) Table() *core.Table { return d.table }

// InteractionSets 返回负采样使用的交互集合。
func (d *InteractionsDataset) InteractionSets() InteractionSets { return d.sets }

// Get 返回第 idx 行的正样本，后接 numNegs 个负样本（权重 0）。
func (d *InteractionsDataset) Get(idx int) ([]Example, error) {
	if idx < 0 || idx >= d.Len() {
		return nil, core.Errorf(core.ModuleDataset, core.ErrorCodeInvalidInput, "dataset: index %d out of range [0,%d)", idx, d.Len())
	}
	return d.appendRow(make([]Example, 0, 1+d.numNegs), idx)
}

func (d *InteractionsDataset) appendRow(dst []Example, idx int) ([]Example, error) {
	u := d.rowUsers[idx]
	dst = append(dst, Example{
		User:   u,
		Item:   d.rowItems[idx],
		Weight: d.weight(d.table.Rows[idx].Weight),
	})
	if d.sampler == nil {
		return dst, nil
	}
	negs, err := d.sampler.Sample(u, d.numNegs)
	if err != nil {
		return nil, err
	}
	for _, it := range negs {
		dst = append(dst, Example{User: u, Item: it, Weight: 0})
	}
	return dst, nil
}

func (d *InteractionsDataset) weight(w float64) float64 {
	if nw, ok := d.weights[w]; ok {
		return nw
	}
	return w
}
