package dataset

import (
	"math/rand"

	"github.com/rushteam/youchoose/core"
)

// NegativeSampler 为用户抽取其未交互过的物品作为负样本。
//
// 语义：对每个正样本行独立抽取 n 个负样本，在用户未交互物品集合上
// 均匀、有放回抽样，同一批次内同一用户允许出现重复负样本。
type NegativeSampler struct {
	numItems int
	sets     InteractionSets
	rng      *rand.Rand
	cache    map[int][]int
}

// NewNegativeSampler 创建负采样器；rng 为 nil 时使用默认种子。
func NewNegativeSampler(numItems int, sets InteractionSets, rng *rand.Rand) *NegativeSampler {
	if rng == nil {
		rng = rand.New(rand.NewSource((&core.DefaultDatasetConfig{}).DefaultSplitSeed()))
	}
	return &NegativeSampler{
		numItems: numItems,
		sets:     sets,
		rng:      rng,
		cache:    make(map[int][]int),
	}
}

// Sample 为 user 抽取 n 个负样本物品下标。
//   - n == 0：返回 nil
//   - n < 0：INVALID_CONFIG
//   - 用户已交互全部物品：EMPTY_NEGATIVE_SET
func (s *NegativeSampler) Sample(user, n int) ([]int, error) {
	if n < 0 {
		return nil, core.InvalidConfig(core.ModuleDataset, "dataset: number of negative samples must be >= 0, got %d", n)
	}
	if n == 0 {
		return nil, nil
	}
	seen := s.sets[user]
	if s.Candidates(user) == 0 {
		return nil, core.Errorf(core.ModuleDataset, core.ErrorCodeEmptyNegativeSet,
			"dataset: user %d has interacted with all %d items, no negatives to sample", user, s.numItems)
	}

	out := make([]int, n)
	// 已交互物品不超过一半时直接拒绝采样，期望尝试次数 < 2，无需枚举候选集
	if 2*len(seen) <= s.numItems {
		for i := range out {
			for {
				j := s.rng.Intn(s.numItems)
				if _, ok := seen[j]; !ok {
					out[i] = j
					break
				}
			}
		}
		return out, nil
	}

	candidates := s.candidates(user)
	for i := range out {
		out[i] = candidates[s.rng.Intn(len(candidates))]
	}
	return out, nil
}

// Candidates 返回用户可被采样的物品数。
func (s *NegativeSampler) Candidates(user int) int {
	return s.numItems - len(s.sets[user])
}

// candidates 枚举并缓存用户的未交互物品（仅在已交互物品较多时使用）。
func (s *NegativeSampler) candidates(user int) []int {
	if c, ok := s.cache[user]; ok {
		return c
	}
	seen := s.sets[user]
	c := make([]int, 0, s.numItems-len(seen))
	for i := 0; i < s.numItems; i++ {
		if _, ok := seen[i]; !ok {
			c = append(c, i)
		}
	}
	s.cache[user] = c
	return c
}
