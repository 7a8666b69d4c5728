package core

import (
	"errors"
	"fmt"
)

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX），可穿透 fmt.Errorf("%w") 包装
//
// 使用场景：
//   - 配置错误：INVALID_CONFIG（切分比例、负采样数、数据库/存储/模型类型）
//   - 数据错误：INVALID_INPUT、NOT_FOUND、EMPTY_NEGATIVE_SET
//   - Store 错误：NOT_FOUND, NOT_SUPPORTED
type DomainError struct {
	Code    string // 错误代码（如 "INVALID_CONFIG", "NOT_FOUND"）
	Message string // 错误消息
	Module  string // 模块名称（如 "dataset", "model", "store"）
	Err     error  // 底层错误（可选，仅用于 errors.Is/As；Message 已包含其文本）
}

func (e *DomainError) Error() string {
	return e.Message
}

func (e *DomainError) Unwrap() error { return e.Err }

// IsDomainError 检查错误链中是否存在 DomainError
func IsDomainError(err error) bool {
	return GetDomainError(err) != nil
}

// GetDomainError 获取错误链中的 DomainError，如果不存在则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// Errorf 按格式创建领域错误；若参数中含 %w，则保留底层错误。
func Errorf(module, code, format string, args ...any) *DomainError {
	wrapped := fmt.Errorf(format, args...)
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: wrapped.Error(),
		Err:     errors.Unwrap(wrapped),
	}
}

// InvalidConfig 创建 INVALID_CONFIG 错误
func InvalidConfig(module, format string, args ...any) *DomainError {
	return Errorf(module, ErrorCodeInvalidConfig, format, args...)
}

// 错误代码常量
const (
	// 通用错误代码
	ErrorCodeNotFound      = "NOT_FOUND"      // 资源不存在
	ErrorCodeNotSupported  = "NOT_SUPPORTED"  // 操作不支持
	ErrorCodeUnavailable   = "UNAVAILABLE"    // 服务不可用
	ErrorCodeInvalidInput  = "INVALID_INPUT"  // 输入无效
	ErrorCodeInvalidConfig = "INVALID_CONFIG" // 配置无效（在任何计算之前报告）
	ErrorCodeInternalError = "INTERNAL_ERROR" // 内部错误

	// ErrorCodeEmptyNegativeSet 用户没有可采样的负样本（已交互过全部物品）
	ErrorCodeEmptyNegativeSet = "EMPTY_NEGATIVE_SET"
)

// 模块名称常量
const (
	ModuleStore     = "store"     // 存储模块
	ModuleDataset   = "dataset"   // 数据集模块：索引、切分、负采样、加载
	ModuleModel     = "model"     // 模型模块
	ModuleIngestion = "ingestion" // 数据接入模块
	ModuleConfig    = "config"    // 配置模块
	ModuleDSL       = "dsl"       // 表达式模块
)

// 通用错误检查函数

func hasCode(err error, code string) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool { return hasCode(err, ErrorCodeNotFound) }

// IsNotSupported 检查错误是否为 NOT_SUPPORTED
func IsNotSupported(err error) bool { return hasCode(err, ErrorCodeNotSupported) }

// IsUnavailable 检查错误是否为 UNAVAILABLE
func IsUnavailable(err error) bool { return hasCode(err, ErrorCodeUnavailable) }

// IsInvalidInput 检查错误是否为 INVALID_INPUT
func IsInvalidInput(err error) bool { return hasCode(err, ErrorCodeInvalidInput) }

// IsInvalidConfig 检查错误是否为 INVALID_CONFIG
func IsInvalidConfig(err error) bool { return hasCode(err, ErrorCodeInvalidConfig) }

// IsEmptyNegativeSet 检查错误是否为 EMPTY_NEGATIVE_SET
func IsEmptyNegativeSet(err error) bool { return hasCode(err, ErrorCodeEmptyNegativeSet) }
