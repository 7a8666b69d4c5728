// Package model 提供基于隐因子的协同过滤推荐模型。
//
// 内置两种方法：
//   - nn：矩阵分解 + BCEWithLogits，SGD / Adam 稀疏更新
//   - als：隐式反馈交替最小二乘（Hu, Koren, Volinsky 2008）
//
// 模型通过 Register / New 按方法名创建，与 dataset.Loader 配合训练。
package model

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"github.com/rushteam/youchoose/dataset"
)

// Recommender 是可训练、可评估、可持久化的推荐模型。
// 用户与物品均以 dataset.Index 分配的下标表示。
type Recommender interface {
	Name() string

	// Train 在 loader 上训练一轮（epoch），返回该轮的损失与准确率
	Train(ctx context.Context, loader *dataset.Loader) (Stats, error)

	// Evaluate 只做前向计算，不更新参数
	Evaluate(ctx context.Context, loader *dataset.Loader) (Stats, error)

	// Predict 返回用户对物品的偏好分（nn 为正交互概率）
	Predict(user, item int) float64

	// RecommendTop 返回分数最高的 k 个物品，跳过 exclude 中的物品
	RecommendTop(user, k int, exclude map[int]struct{}) []Scored

	// Snapshot 导出当前参数
	Snapshot() *Snapshot

	Save(w io.Writer) error
	Load(r io.Reader) error
}

// Options 是构建模型的参数，未设置的字段使用 DefaultOptions 的值。
type Options struct {
	NumUsers   int
	NumItems   int
	NumFactors int

	// nn
	Optimizer    string
	LearningRate float64
	L2           float64
	Momentum     float64

	// als
	Alpha          float64
	Regularization float64

	Seed   int64
	Logger *zerolog.Logger
}

// DefaultOptions 返回默认参数：20 维隐向量，SGD 学习率 0.001。
func DefaultOptions() Options {
	return Options{
		NumFactors:     20,
		Optimizer:      OptimizerSGD,
		LearningRate:   0.001,
		Alpha:          40.0,
		Regularization: 0.01,
		Seed:           23,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.NumFactors == 0 {
		o.NumFactors = d.NumFactors
	}
	if o.Optimizer == "" {
		o.Optimizer = d.Optimizer
	}
	if o.LearningRate == 0 {
		o.LearningRate = d.LearningRate
	}
	if o.Alpha == 0 {
		o.Alpha = d.Alpha
	}
	if o.Regularization == 0 {
		o.Regularization = d.Regularization
	}
	if o.Seed == 0 {
		o.Seed = d.Seed
	}
	return o
}

func (o Options) logger() zerolog.Logger {
	if o.Logger == nil {
		return zerolog.Nop()
	}
	return *o.Logger
}

// Stats 是一轮训练或评估的统计。
type Stats struct {
	Loss    float64 // 各批次平均损失之和
	Batches int
	Correct int
	Total   int
}

// Accuracy 返回 100 × Correct / Total；空统计返回 0。
func (s Stats) Accuracy() float64 {
	if s.Total == 0 {
		return 0
	}
	return 100 * float64(s.Correct) / float64(s.Total)
}

// MeanLoss 返回每批次的平均损失。
func (s Stats) MeanLoss() float64 {
	if s.Batches == 0 {
		return 0
	}
	return s.Loss / float64(s.Batches)
}

func (s *Stats) add(o Stats) {
	s.Loss += o.Loss
	s.Batches += o.Batches
	s.Correct += o.Correct
	s.Total += o.Total
}

// Scored 是一个带分数的物品下标。
type Scored struct {
	Item  int
	Score float64
}
