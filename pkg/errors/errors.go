package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode 表示错误码类型
type ErrorCode int

// 定义应用程序的错误码
const (
	// 通用错误
	ErrUnknown ErrorCode = iota + 1000
	ErrInvalidParameter
	ErrNotImplemented

	// 设备相关错误
	ErrDeviceNotFound
	ErrNoSelectedDevice

	// 协议相关错误
	ErrFrameMalformed   // 长度不足、结束标识错误、CRC16不匹配
	ErrChecksumInvalid  // 解密后CRC8不匹配
	ErrPayloadTruncated // 定长字段越界，通常意味着固件版本不匹配

	// 存储相关错误
	ErrRepositoryFailure

	// Redis缓存相关错误
	ErrRedisConnectionFailed
	ErrRedisOperationFailed
)

var codeNames = map[ErrorCode]string{
	ErrUnknown:               "unknown",
	ErrInvalidParameter:      "invalid_parameter",
	ErrNotImplemented:        "not_implemented",
	ErrDeviceNotFound:        "device_not_found",
	ErrNoSelectedDevice:      "no_selected_device",
	ErrFrameMalformed:        "frame_malformed",
	ErrChecksumInvalid:       "checksum_invalid",
	ErrPayloadTruncated:      "payload_truncated",
	ErrRepositoryFailure:     "repository_failure",
	ErrRedisConnectionFailed: "redis_connection_failed",
	ErrRedisOperationFailed:  "redis_operation_failed",
}

// String 返回错误码名称，用于日志与指标
func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("code_%d", int(c))
}

// AppError 应用程序自定义错误类型
type AppError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error 实现error接口
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 支持Go 1.13+的错误包装
func (e *AppError) Unwrap() error {
	return e.Cause
}

// New 创建一个新的AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Newf 使用格式化消息创建AppError
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap 包装一个已有的错误
func Wrap(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// CodeOf 返回错误链中第一个AppError的错误码，不存在时返回ErrUnknown
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrUnknown
}

// IsErrCode 检查错误链中是否存在指定错误码
func IsErrCode(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}
	var appErr *AppError
	for e := err; stderrors.As(e, &appErr); e = appErr.Cause {
		if appErr.Code == code {
			return true
		}
	}
	return false
}

// As 同标准库 errors.As
func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}

// HTTPStatus 将错误映射为HTTP状态码
// 帧格式与校验错误属于客户端错误，载荷越界与存储失败属于服务端错误
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case ErrFrameMalformed, ErrChecksumInvalid, ErrInvalidParameter, ErrNoSelectedDevice:
		return http.StatusBadRequest
	case ErrDeviceNotFound:
		return http.StatusNotFound
	case ErrNotImplemented:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
