package response

import (
	stdErrors "errors"
	"net/http"
	"runtime"

	"duoadmin/domain/shared"
	"duoadmin/pkg/errors"
	"duoadmin/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var httpStatusMap = map[errors.ErrorCode]int{
	errors.CodeInternal:       http.StatusInternalServerError,
	errors.CodeBadRequest:     http.StatusBadRequest,
	errors.CodeUnauthorized:   http.StatusUnauthorized,
	errors.CodeNotFound:       http.StatusNotFound,
	errors.CodeConflict:       http.StatusConflict,
	errors.CodeForbidden:      http.StatusForbidden,
	errors.CodeValidation:     http.StatusBadRequest,
	errors.CodeTooManyRequest: http.StatusTooManyRequests,

	errors.CodeActionInFlight:      http.StatusConflict,
	errors.CodeUpstreamUnavailable: http.StatusServiceUnavailable,
	errors.CodeUpstreamRejected:    http.StatusBadGateway,
}

func mapErrorCodeToHTTPStatus(code errors.ErrorCode) int {
	if status, ok := httpStatusMap[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// GetRequestID 从 gin context 获取请求 ID
func GetRequestID(c *gin.Context) string {
	if requestID, exists := c.Get(RequestIDKey); exists {
		if id, ok := requestID.(string); ok {
			return id
		}
	}
	return ""
}

func captureStack(skip int) []string {
	var pcs [16]uintptr
	n := runtime.Callers(skip, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	stack := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		frame, more := frames.Next()
		if frame.Function != "" {
			stack = append(stack, frame.Function)
		}
		if !more {
			break
		}
	}
	return stack
}

// HandleError 处理参数绑定等框架层错误。
func HandleError(c *gin.Context, err error, message string, code int) {
	requestID := GetRequestID(c)

	logger.Warn(message,
		zap.String("request_id", requestID),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
		zap.Int("status", code),
		zap.Error(err))

	c.JSON(code, &Response{
		Success:   false,
		Error:     string(errors.CodeBadRequest),
		Message:   message,
		Code:      code,
		RequestID: requestID,
	})
}

// HandleAppError 按应用错误码自动映射 HTTP 状态码。
func HandleAppError(c *gin.Context, err error) {
	handleAppError(c, err, nil)
}

// HandleActionError 与 HandleAppError 相同，但 data 中带回操作结果，
// 部分成功时前端需要知道哪些步骤已经生效。
func HandleActionError(c *gin.Context, err error, result interface{}) {
	handleAppError(c, err, result)
}

func handleAppError(c *gin.Context, err error, data interface{}) {
	requestID := GetRequestID(c)
	appErr := errors.FromDomainError(err)
	httpStatus := mapErrorCodeToHTTPStatus(appErr.Code)

	fields := []zap.Field{
		zap.String("request_id", requestID),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
		zap.String("error_code", string(appErr.Code)),
		zap.Int("http_status", httpStatus),
	}
	if appErr.Err != nil {
		fields = append(fields, zap.Error(appErr.Err))
	}

	// 只有 5xx 需要堆栈；4xx 是正常的业务拒绝
	if httpStatus >= http.StatusInternalServerError {
		fields = append(fields, zap.Strings("stack", extractStack(err)))
		logger.Error(appErr.Message, fields...)
	} else {
		logger.Warn(appErr.Message, fields...)
	}

	userMessage := appErr.Message
	if appErr.Code == errors.CodeInternal {
		userMessage = "internal server error"
	}

	c.JSON(httpStatus, &Response{
		Success:   false,
		Data:      data,
		Error:     string(appErr.Code),
		Message:   userMessage,
		Code:      httpStatus,
		RequestID: requestID,
	})
}

func extractStack(err error) []string {
	var stacker shared.Stacker
	if stdErrors.As(err, &stacker) {
		if stack := stacker.Stack(); len(stack) > 0 {
			return stack
		}
	}
	return captureStack(5)
}
