// Package apperr 定义带错误码的业务错误类型及其到 HTTP 状态码的映射
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind 错误类别
type Kind string

const (
	// KindValidation 输入不合法
	KindValidation Kind = "validation"
	// KindNotFound 资源不存在
	KindNotFound Kind = "not_found"
	// KindConflict 资源冲突（重复 SKU、重复用户名、重复支付等）
	KindConflict Kind = "conflict"
	// KindUnauthorized 未认证或令牌无效
	KindUnauthorized Kind = "unauthorized"
	// KindForbidden 已认证但权限不足
	KindForbidden Kind = "forbidden"
	// KindPaymentRejected 支付被拒绝（现金不足等）
	KindPaymentRejected Kind = "payment_rejected"
	// KindInternal 内部错误
	KindInternal Kind = "internal"
)

// Error 业务错误
type Error struct {
	Kind    Kind
	Code    string
	Message string
	// Err 底层错误，可为 nil
	Err error
}

// Error 实现 error 接口
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap 返回底层错误
func (e *Error) Unwrap() error {
	return e.Err
}

// New 创建业务错误
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Newf 创建带格式化消息的业务错误
func Newf(kind Kind, code, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap 包装底层错误为内部错误
func Wrap(err error, message string) *Error {
	return &Error{Kind: KindInternal, Code: "internal", Message: message, Err: err}
}

// KindOf 获取错误类别；非业务错误视为 internal
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// CodeOf 获取错误码；非业务错误返回 "internal"
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return "internal"
}

// HTTPStatus 错误类别到 HTTP 状态码的映射
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindPaymentRejected:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// IsKind 判断错误是否属于给定类别
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
