package core

// DatasetConfig 是数据集构建相关的配置接口，用于提供默认值。
type DatasetConfig interface {
	// DefaultTrainFrac 返回默认的训练集比例
	DefaultTrainFrac() float64

	// DefaultTestFrac 返回默认的测试集比例（验证集 = 剩余部分）
	DefaultTestFrac() float64

	// DefaultBatchSize 返回默认的批大小
	DefaultBatchSize() int

	// DefaultNumNegs 返回默认的每个正样本对应的负样本数
	DefaultNumNegs() int

	// DefaultSplitSeed 返回切分使用的固定随机种子
	DefaultSplitSeed() int64

	// DefaultShuffleTrain 返回训练集加载器是否每轮打乱
	DefaultShuffleTrain() bool

	// DefaultReweight 返回是否把所有交互权重映射为 1.0（二值化目标）
	DefaultReweight() bool
}

// DefaultDatasetConfig 是默认的数据集配置实现。
type DefaultDatasetConfig struct{}

func (c *DefaultDatasetConfig) DefaultTrainFrac() float64 {
	return 0.80
}

func (c *DefaultDatasetConfig) DefaultTestFrac() float64 {
	return 0.10
}

func (c *DefaultDatasetConfig) DefaultBatchSize() int {
	return 1
}

func (c *DefaultDatasetConfig) DefaultNumNegs() int {
	return 0
}

// DefaultSplitSeed 固定为 23：同一版本下训练/测试边界在多次运行间可复现。
func (c *DefaultDatasetConfig) DefaultSplitSeed() int64 {
	return 23
}

func (c *DefaultDatasetConfig) DefaultShuffleTrain() bool {
	return true
}

// DefaultReweight 为 true：BCE 目标需要落在 [0,1]，购买次数等原始权重默认二值化。
func (c *DefaultDatasetConfig) DefaultReweight() bool {
	return true
}
