package errors

import (
	"errors"
	"fmt"
	"net/http"

	"duoadmin/domain/shared"
)

// ErrorCode 错误码
type ErrorCode string

const (
	// 通用错误码
	CodeInternal       ErrorCode = "INTERNAL_ERROR"
	CodeBadRequest     ErrorCode = "BAD_REQUEST"
	CodeUnauthorized   ErrorCode = "UNAUTHORIZED"
	CodeForbidden      ErrorCode = "FORBIDDEN"
	CodeNotFound       ErrorCode = "NOT_FOUND"
	CodeConflict       ErrorCode = "CONFLICT"
	CodeTooManyRequest ErrorCode = "TOO_MANY_REQUESTS"
	CodeValidation     ErrorCode = "VALIDATION_ERROR"

	// 业务错误码
	CodeActionInFlight      ErrorCode = "ACTION_IN_FLIGHT"
	CodeUpstreamUnavailable ErrorCode = "UPSTREAM_UNAVAILABLE"
	CodeUpstreamRejected    ErrorCode = "UPSTREAM_REJECTED"
)

// AppError 应用错误
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatusCode 返回对应的HTTP状态码
func (e *AppError) HTTPStatusCode() int {
	switch e.Code {
	case CodeBadRequest, CodeValidation:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeActionInFlight:
		return http.StatusConflict
	case CodeTooManyRequest:
		return http.StatusTooManyRequests
	case CodeUpstreamRejected:
		return http.StatusBadGateway
	case CodeUpstreamUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// New 创建新错误
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装错误
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// 常用错误构造函数

func BadRequest(message string) *AppError {
	return New(CodeBadRequest, message)
}

func NotFound(message string) *AppError {
	return New(CodeNotFound, message)
}

func Internal(message string) *AppError {
	return New(CodeInternal, message)
}

func Unauthorized(message string) *AppError {
	return New(CodeUnauthorized, message)
}

func Forbidden(message string) *AppError {
	return New(CodeForbidden, message)
}

func TooManyRequests(message string) *AppError {
	return New(CodeTooManyRequest, message)
}

// Is 检查是否为特定错误码
func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// FromDomainError 将领域错误映射为应用错误
// 领域错误的 Message 直接作为用户可见消息；未识别的错误一律按内部错误处理
func FromDomainError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	msg := err.Error()
	var de *shared.DomainError
	if errors.As(err, &de) && de.Message != "" {
		msg = de.Message
	}

	switch {
	case errors.Is(err, shared.ErrInvalidInput):
		return Wrap(err, CodeValidation, msg)
	case errors.Is(err, shared.ErrNotFound):
		return Wrap(err, CodeNotFound, msg)
	case errors.Is(err, shared.ErrConflict):
		// 同一实体上已有操作在执行
		if de != nil && de.Entity == "action" {
			return Wrap(err, CodeActionInFlight, msg)
		}
		return Wrap(err, CodeConflict, msg)
	case errors.Is(err, shared.ErrUnauthorized):
		return Wrap(err, CodeUnauthorized, msg)
	case errors.Is(err, shared.ErrForbidden):
		return Wrap(err, CodeForbidden, msg)
	case errors.Is(err, shared.ErrUnavailable):
		return Wrap(err, CodeUpstreamUnavailable, msg)
	case errors.Is(err, shared.ErrRejected):
		return Wrap(err, CodeUpstreamRejected, msg)
	}
	return Wrap(err, CodeInternal, msg)
}
