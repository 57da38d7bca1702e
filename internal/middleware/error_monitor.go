package middleware

import (
	"time"

	"github.com/logeshtheni/sevenxt/internal/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorMonitor 汇总请求处理中上报的错误，统计交给 ErrorAnalytics
type ErrorMonitor struct {
	analytics *errors.ErrorAnalytics
}

func NewErrorMonitor() *ErrorMonitor {
	return &ErrorMonitor{
		analytics: errors.NewErrorAnalytics(),
	}
}

// RecordError 记录一次带请求上下文的错误
func (m *ErrorMonitor) RecordError(err error, ctx errors.ErrorContext) {
	m.analytics.Record(errors.NewTracedError(err, ctx))
}

// CountByCode 查询某错误码的累计次数
func (m *ErrorMonitor) CountByCode(code errors.ErrorCode) int {
	return m.analytics.CountByCode(code)
}

// GetStats 导出统计快照，供管理端错误面板使用
func (m *ErrorMonitor) GetStats() map[string]interface{} {
	return m.analytics.GetStats()
}

func ErrorMonitorMiddleware(monitor *ErrorMonitor) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		ctx := errors.ErrorContext{
			Path:      c.Request.URL.Path,
			Method:    c.Request.Method,
			ClientIP:  c.ClientIP(),
			Timestamp: time.Now(),
		}
		for _, e := range c.Errors {
			monitor.RecordError(e.Err, ctx)
			// 记录错误日志
			if appErr, ok := e.Err.(*errors.AppError); ok {
				zap.L().Error("请求处理错误",
					zap.Int("error_code", int(appErr.Code)),
					zap.String("error_message", appErr.Message),
					zap.Error(appErr.Err),
					zap.String("path", ctx.Path),
					zap.String("method", ctx.Method))
			}
		}
	}
}
