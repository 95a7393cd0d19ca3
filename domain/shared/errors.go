/*
Package shared - 领域层共享错误定义

设计原则:
1. 领域层定义哨兵错误(sentinel errors)，用于 errors.Is() 类型安全判断
2. DomainError 在创建时捕获堆栈，但延迟格式化（按需打印）
3. 领域错误不包含 HTTP 状态码等传输层概念
*/
package shared

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// ============================================================================
// 哨兵错误 (Sentinel Errors)
// ============================================================================

var (
	// ErrNotFound 资源未找到
	ErrNotFound = errors.New("not found")

	// ErrConflict 资源冲突（如同一实体的重复操作）
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput 无效输入（参数校验失败）
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized 未授权
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden 禁止访问（已授权但无权限）
	ErrForbidden = errors.New("forbidden")

	// ErrUnavailable 上游不可达或超时，可重试
	ErrUnavailable = errors.New("unavailable")

	// ErrRejected 上游明确拒绝了请求（非 2xx）
	ErrRejected = errors.New("rejected")
)

// DomainError 领域错误 - 携带业务上下文和堆栈的结构化错误
type DomainError struct {
	// Err 底层哨兵错误，用于 errors.Is() 判断
	Err error

	// Entity 发生错误的实体名称（如 "order", "report"）
	Entity string

	// Message 人类可读的错误描述
	Message string

	// Field 可选：发生错误的字段名（用于校验错误）
	Field string

	// Cause 可选：被包装的底层错误
	Cause error

	stack []uintptr
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap exposes both the sentinel and the cause to errors.Is/As.
func (e *DomainError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

// Stack 按需格式化堆栈（只在打印日志时调用）
func (e *DomainError) Stack() []string {
	return FormatStack(e.stack)
}

// CaptureStack 捕获当前调用栈
// skip: 跳过的帧数（通常为 3：Callers, CaptureStack, NewXxxError）
func CaptureStack(skip int) []uintptr {
	var pcs [32]uintptr
	n := runtime.Callers(skip, pcs[:])
	return pcs[:n]
}

// FormatStack 格式化堆栈帧为字符串切片，过滤 runtime 内部帧，最多 10 帧
func FormatStack(stack []uintptr) []string {
	if len(stack) == 0 {
		return nil
	}

	frames := runtime.CallersFrames(stack)
	var result []string
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			result = append(result, fmt.Sprintf("%s:%d %s", frame.File, frame.Line, frame.Function))
		}
		if !more || len(result) >= 10 {
			break
		}
	}
	return result
}

func newDomainError(sentinel error, entity, field, message string, cause error) *DomainError {
	return &DomainError{
		Err:     sentinel,
		Entity:  entity,
		Field:   field,
		Message: message,
		Cause:   cause,
		stack:   CaptureStack(4),
	}
}

// NewNotFoundError 创建"未找到"领域错误
func NewNotFoundError(entity, id string) error {
	return newDomainError(ErrNotFound, entity, "", entity+" not found: "+id, nil)
}

// NewConflictError 创建"冲突"领域错误
func NewConflictError(entity, message string) error {
	return newDomainError(ErrConflict, entity, "", message, nil)
}

// NewValidationError 创建"校验失败"领域错误
func NewValidationError(entity, field, reason string) error {
	return newDomainError(ErrInvalidInput, entity, field, reason, nil)
}

// NewForbiddenError 创建"禁止访问"领域错误
func NewForbiddenError(entity, reason string) error {
	return newDomainError(ErrForbidden, entity, "", reason, nil)
}

// NewUnauthorizedError 创建"未授权"领域错误
func NewUnauthorizedError(reason string) error {
	return newDomainError(ErrUnauthorized, "session", "", reason, nil)
}

// NewUnavailableError wraps a transport failure or timeout.
func NewUnavailableError(entity string, cause error) error {
	return newDomainError(ErrUnavailable, entity, "", entity+" service unavailable", cause)
}

// NewRejectedError carries the upstream's own message when it sent one.
func NewRejectedError(entity, message string) error {
	return newDomainError(ErrRejected, entity, "", message, nil)
}

// Stacker 可提供堆栈的错误接口
type Stacker interface {
	Stack() []string
}
