package model

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 分区标签
const (
	PartitionTrain      = "train"
	PartitionValidation = "validation"
	PartitionTest       = "test"
)

// Metrics 是训练过程的 Prometheus 指标，注册在调用方提供的 Registerer 上。
type Metrics struct {
	// EpochsTotal 统计已完成的训练轮数
	EpochsTotal *prometheus.CounterVec

	// EpochDuration 记录每轮训练耗时
	EpochDuration *prometheus.HistogramVec

	// Loss 记录各分区最近一次的平均批次损失
	Loss *prometheus.GaugeVec

	// Accuracy 记录各分区最近一次的准确率（百分比）
	Accuracy *prometheus.GaugeVec

	// Examples 记录各分区最近一次评估的样本数
	Examples *prometheus.GaugeVec
}

// NewMetrics 在 reg 上注册训练指标；reg 为 nil 时使用一个新的私有 Registry。
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	return &Metrics{
		EpochsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "youchoose_train_epochs_total",
			Help: "Total number of completed training epochs",
		}, []string{"method"}),
		EpochDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "youchoose_train_epoch_duration_seconds",
			Help:    "Duration of one training epoch in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
		}, []string{"method"}),
		Loss: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "youchoose_loss",
			Help: "Mean batch loss of the latest pass over a partition",
		}, []string{"method", "partition"}),
		Accuracy: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "youchoose_accuracy_percent",
			Help: "Accuracy of the latest pass over a partition",
		}, []string{"method", "partition"}),
		Examples: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "youchoose_examples",
			Help: "Number of examples in the latest pass over a partition",
		}, []string{"method", "partition"}),
	}
}

// RecordEpoch 记录一轮训练。
func (m *Metrics) RecordEpoch(method string, d time.Duration, s Stats) {
	if m == nil {
		return
	}
	m.EpochsTotal.WithLabelValues(method).Inc()
	m.EpochDuration.WithLabelValues(method).Observe(d.Seconds())
	m.RecordStats(method, PartitionTrain, s)
}

// RecordStats 记录一个分区的损失与准确率。
func (m *Metrics) RecordStats(method, partition string, s Stats) {
	if m == nil {
		return
	}
	m.Loss.WithLabelValues(method, partition).Set(s.MeanLoss())
	m.Accuracy.WithLabelValues(method, partition).Set(s.Accuracy())
	m.Examples.WithLabelValues(method, partition).Set(float64(s.Total))
}
