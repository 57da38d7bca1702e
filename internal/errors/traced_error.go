package errors

import (
	"runtime/debug"
	"time"
)

// ErrorContext 错误发生时的请求上下文
type ErrorContext struct {
	Path      string
	Method    string
	ClientIP  string
	Timestamp time.Time
}

// TracedError 带请求上下文和堆栈的错误，供错误监控统计使用
type TracedError struct {
	*AppError
	Stack   string
	Context ErrorContext
}

// NewTracedError 包装任意错误为带追踪信息的错误
// 非 AppError 一律归入内部错误码
func NewTracedError(err error, ctx ErrorContext) *TracedError {
	appErr, ok := err.(*AppError)
	if !ok {
		appErr = &AppError{
			Code:    ErrInternal,
			Message: err.Error(),
			Err:     err,
		}
	}
	if ctx.Timestamp.IsZero() {
		ctx.Timestamp = time.Now()
	}

	return &TracedError{
		AppError: appErr,
		Stack:    string(debug.Stack()),
		Context:  ctx,
	}
}
