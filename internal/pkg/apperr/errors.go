// Package apperr 定义了引擎对外暴露的三类错误：
// 输入校验错误、业务规则拒绝、以及预览与提交之间的状态冲突。
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrValidation 输入形状不合法，属于调用方的编程错误，不应重试。
	ErrValidation = errors.New("validation error")
	// ErrRejected 业务规则拒绝，是预期内的结果，调用方据此向用户展示提示。
	ErrRejected = errors.New("business rule rejection")
	// ErrConflict 外部可变状态（库存、券用量、用户版本）在预览后发生变化。
	ErrConflict = errors.New("stale state conflict")
)

// Validation 构造一个可被 errors.Is(err, ErrValidation) 识别的错误。
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Rejection 是带有机器可读原因码的业务拒绝。
// 领域层把常用的拒绝声明为包级变量，通过 errors.Is 做精确比较。
type Rejection struct {
	Code    string
	Message string
}

func Reject(code, message string) *Rejection {
	return &Rejection{Code: code, Message: message}
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("%s: %s", r.Code, r.Message)
}

func (r *Rejection) Is(target error) bool {
	return target == ErrRejected
}

// Conflict 表示需要调用方重新解析价格并重新确认的陈旧状态。
type Conflict struct {
	Code    string
	Message string
}

func NewConflict(code, message string) *Conflict {
	return &Conflict{Code: code, Message: message}
}

func (c *Conflict) Error() string {
	return fmt.Sprintf("%s: %s", c.Code, c.Message)
}

func (c *Conflict) Is(target error) bool {
	return target == ErrConflict
}

// CodeOf 返回错误对应的原因码，未知错误返回 INTERNAL。
func CodeOf(err error) string {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej.Code
	}
	var conflict *Conflict
	if errors.As(err, &conflict) {
		return conflict.Code
	}
	if errors.Is(err, ErrValidation) {
		return "VALIDATION"
	}
	return "INTERNAL"
}

// HTTPStatus 把错误分类映射为 HTTP 状态码。
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrRejected):
		if CodeOf(err) == "NOT_FOUND" {
			return http.StatusNotFound
		}
		// 客户端请求有效，但服务器拒绝执行
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
