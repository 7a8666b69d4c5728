// Package logging 负责 zerolog 的初始化。
//
// 库代码只接收 *zerolog.Logger（为 nil 时不输出）；只有命令行入口调用 Init 设置全局 logger。
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rushteam/youchoose/core"
)

const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Config 是日志配置。
type Config struct {
	// Level：trace / debug / info / warn / error / disabled，默认 info
	Level string `koanf:"level" yaml:"level" validate:"omitempty,oneof=trace debug info warn warning error disabled"`

	// Format：json 或 console，默认 console
	Format string `koanf:"format" yaml:"format" validate:"omitempty,oneof=json console"`

	Caller bool `koanf:"caller" yaml:"caller"`

	// Output 默认 os.Stderr
	Output io.Writer `koanf:"-" yaml:"-"`
}

// DefaultConfig 返回 info 级别的 console 输出。
func DefaultConfig() Config {
	return Config{Level: "info", Format: FormatConsole}
}

// ParseLevel 解析日志级别，未知级别返回 INVALID_CONFIG。
func ParseLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel, nil
	case "debug":
		return zerolog.DebugLevel, nil
	case "", "info":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	case "disabled":
		return zerolog.Disabled, nil
	}
	return zerolog.NoLevel, core.InvalidConfig(core.ModuleConfig, "logging: unknown level %q", level)
}

// New 按配置创建 logger，不修改全局状态。
func New(cfg Config) (zerolog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), err
	}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	switch cfg.Format {
	case "", FormatConsole:
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}
	case FormatJSON:
	default:
		return zerolog.Nop(), core.InvalidConfig(core.ModuleConfig, "logging: unknown format %q", cfg.Format)
	}

	c := zerolog.New(out).Level(level).With().Timestamp()
	if cfg.Caller {
		c = c.Caller()
	}
	return c.Logger(), nil
}

// Init 创建 logger 并设置为全局 logger（log.Logger）。
func Init(cfg Config) (zerolog.Logger, error) {
	logger, err := New(cfg)
	if err != nil {
		return logger, err
	}
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = logger
	return logger, nil
}
