// Package config 是训练/发布任务的配置：默认值 → YAML 文件 → YOUCHOOSE_ 环境变量，
// 加载后按 validate 标签和跨字段规则校验。
package config

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/rushteam/youchoose/core"
	"github.com/rushteam/youchoose/dataset"
	"github.com/rushteam/youchoose/ingestion"
	"github.com/rushteam/youchoose/model"
	"github.com/rushteam/youchoose/pkg/logging"
	"github.com/rushteam/youchoose/store"
)

// EnvPrefix 是环境变量前缀：YOUCHOOSE_MODEL_NUM_FACTORS → model.num_factors。
const EnvPrefix = "YOUCHOOSE_"

// Config 是一次任务的完整配置。
type Config struct {
	Data     DataConfig         `koanf:"data" yaml:"data"`
	Database ingestion.DBConfig `koanf:"database" yaml:"database"`
	Model    ModelConfig        `koanf:"model" yaml:"model"`
	Store    store.Config       `koanf:"store" yaml:"store"`
	Publish  PublishConfig      `koanf:"publish" yaml:"publish"`
	Logging  logging.Config     `koanf:"logging" yaml:"logging"`
}

// DataConfig 描述交互数据的来源与数据集参数。
// Path（CSV 文件）与 Query（SQL，需 database 配置）二选一。
type DataConfig struct {
	Path   string `koanf:"path" yaml:"path" validate:"required_without=Query"`
	Query  string `koanf:"query" yaml:"query"`
	Filter string `koanf:"filter" yaml:"filter"` // CEL 行过滤表达式，如 row.weight > 0

	UserColumn   string `koanf:"user_column" yaml:"user_column" validate:"required"`
	ItemColumn   string `koanf:"item_column" yaml:"item_column" validate:"required"`
	WeightColumn string `koanf:"weight_column" yaml:"weight_column" validate:"required"`

	TrainFrac float64 `koanf:"train_frac" yaml:"train_frac" validate:"gte=0,lte=1"`
	TestFrac  float64 `koanf:"test_frac" yaml:"test_frac" validate:"gte=0,lte=1"`
	BatchSize int     `koanf:"batch_size" yaml:"batch_size" validate:"gte=1"`
	NumNegs   int     `koanf:"num_negs" yaml:"num_negs" validate:"gte=0"`
	Reweight  bool    `koanf:"reweight" yaml:"reweight"`
	Shuffle   bool    `koanf:"shuffle" yaml:"shuffle"`
	Seed      int64   `koanf:"seed" yaml:"seed"`
}

// Columns 返回列名配置。
func (d DataConfig) Columns() ingestion.Columns {
	return ingestion.Columns{User: d.UserColumn, Item: d.ItemColumn, Weight: d.WeightColumn}
}

// ModelConfig 是模型与训练参数。
type ModelConfig struct {
	Method         string  `koanf:"method" yaml:"method" validate:"required"`
	NumFactors     int     `koanf:"num_factors" yaml:"num_factors" validate:"gte=1"`
	Optimizer      string  `koanf:"optimizer" yaml:"optimizer" validate:"omitempty,oneof=sgd adam"`
	LearningRate   float64 `koanf:"learning_rate" yaml:"learning_rate" validate:"gt=0"`
	L2             float64 `koanf:"l2" yaml:"l2" validate:"gte=0"`
	Momentum       float64 `koanf:"momentum" yaml:"momentum" validate:"gte=0"`
	Alpha          float64 `koanf:"alpha" yaml:"alpha" validate:"gte=0"`
	Regularization float64 `koanf:"regularization" yaml:"regularization" validate:"gte=0"`
	Epochs         int     `koanf:"epochs" yaml:"epochs" validate:"gte=1"`
	Seed           int64   `koanf:"seed" yaml:"seed"`

	// Output 是模型快照路径，为空时不保存
	Output string `koanf:"output" yaml:"output"`

	// MetricsFile 是 prometheus 文本格式的训练指标输出路径，为空时不输出
	MetricsFile string `koanf:"metrics_file" yaml:"metrics_file"`
}

// Options 转换为 model.Options（用户/物品数由数据集决定）。
func (m ModelConfig) Options(numUsers, numItems int) model.Options {
	return model.Options{
		NumUsers:       numUsers,
		NumItems:       numItems,
		NumFactors:     m.NumFactors,
		Optimizer:      m.Optimizer,
		LearningRate:   m.LearningRate,
		L2:             m.L2,
		Momentum:       m.Momentum,
		Alpha:          m.Alpha,
		Regularization: m.Regularization,
		Seed:           m.Seed,
	}
}

// PublishConfig 控制训练后向存储发布向量。
type PublishConfig struct {
	Enabled   bool   `koanf:"enabled" yaml:"enabled"`
	KeyPrefix string `koanf:"key_prefix" yaml:"key_prefix" validate:"required"`
	TopN      int    `koanf:"top_n" yaml:"top_n" validate:"gte=0"` // 预计算每个用户的 TopN，0 表示不预计算
}

// Default 返回默认配置。
func Default() Config {
	ds := &core.DefaultDatasetConfig{}
	cols := ingestion.DefaultColumns()
	mo := model.DefaultOptions()
	return Config{
		Data: DataConfig{
			UserColumn:   cols.User,
			ItemColumn:   cols.Item,
			WeightColumn: cols.Weight,
			TrainFrac:    ds.DefaultTrainFrac(),
			TestFrac:     ds.DefaultTestFrac(),
			BatchSize:    ds.DefaultBatchSize(),
			NumNegs:      ds.DefaultNumNegs(),
			Reweight:     ds.DefaultReweight(),
			Shuffle:      ds.DefaultShuffleTrain(),
			Seed:         ds.DefaultSplitSeed(),
		},
		Database: ingestion.DBConfig{
			Type:    ingestion.DBTypePostgres,
			Host:    "localhost",
			Port:    5432,
			SSLMode: "disable",
		},
		Model: ModelConfig{
			Method:         model.MethodNN,
			NumFactors:     mo.NumFactors,
			Optimizer:      mo.Optimizer,
			LearningRate:   mo.LearningRate,
			Alpha:          mo.Alpha,
			Regularization: mo.Regularization,
			Epochs:         10,
			Seed:           mo.Seed,
		},
		Store: store.Config{
			Type: store.TypeMemory,
			Addr: "localhost:6379",
		},
		Publish: PublishConfig{
			KeyPrefix: "mf",
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load 按 默认值 → path 指向的 YAML（可为空）→ 环境变量 的顺序加载并校验配置。
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("config: load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, core.InvalidConfig(core.ModuleConfig, "config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envKey 把 YOUCHOOSE_MODEL_NUM_FACTORS 转换为 model.num_factors：
// 第一个下划线分隔段名，其余下划线保留在字段名中。
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, field, ok := strings.Cut(key, "_")
	if !ok {
		return key
	}
	return section + "." + field
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate 校验字段标签与跨字段规则，失败返回 INVALID_CONFIG。
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return core.InvalidConfig(core.ModuleConfig, "config: %w", err)
	}
	if err := dataset.ValidateFractions(c.Data.TrainFrac, c.Data.TestFrac); err != nil {
		return core.InvalidConfig(core.ModuleConfig, "config: data: %w", err)
	}
	if c.Data.Query != "" && c.Data.Path == "" {
		if _, _, err := c.Database.DriverDSN(); err != nil {
			return err
		}
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	if !slices.Contains(model.SupportedMethods(), c.Model.Method) {
		return core.InvalidConfig(core.ModuleConfig, "config: unknown model.method %q, supported: %v",
			c.Model.Method, model.SupportedMethods())
	}
	return nil
}

// WriteYAML 把配置写为 YAML 文件（密码字段原样写出）。
func (c *Config) WriteYAML(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: encode yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
