package errors

import (
	"sync"
	"time"
)

// 错误模式分类，用于在监控里快速看出故障集中在哪一类依赖
const (
	PatternCarrierGateway = "carrier_gateway"
	PatternDatabase       = "database"
	PatternAuth           = "auth"
	PatternValidation     = "validation"
	PatternNotFound       = "not_found"
)

// ErrorAnalytics 错误统计
// 按错误码、请求路径和故障模式累计，供管理端错误面板查询
type ErrorAnalytics struct {
	mu            sync.RWMutex
	totalErrors   int
	errorsByCode  map[ErrorCode]int
	errorsByPath  map[string]int
	errorPatterns map[string]int
	lastErrorTime time.Time
}

func NewErrorAnalytics() *ErrorAnalytics {
	return &ErrorAnalytics{
		errorsByCode:  make(map[ErrorCode]int),
		errorsByPath:  make(map[string]int),
		errorPatterns: make(map[string]int),
	}
}

// Record 记录一次错误
func (a *ErrorAnalytics) Record(err *TracedError) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.totalErrors++
	a.errorsByCode[err.Code]++
	if err.Context.Path != "" {
		a.errorsByPath[err.Context.Path]++
	}
	a.lastErrorTime = err.Context.Timestamp

	if pattern := identifyPattern(err.Code); pattern != "" {
		a.errorPatterns[pattern]++
	}
}

// identifyPattern 按错误码归类故障模式
func identifyPattern(code ErrorCode) string {
	switch code {
	case ErrCarrierGateway:
		return PatternCarrierGateway
	case ErrDatabase:
		return PatternDatabase
	case ErrUnauthorized, ErrForbidden, ErrInvalidToken, ErrTokenExpired, ErrInvalidSignature:
		return PatternAuth
	case ErrBadRequest, ErrValidation:
		return PatternValidation
	case ErrOrderNotFound, ErrExchangeNotFound, ErrRefundNotFound, ErrShipmentNotFound, ErrResourceNotFound:
		return PatternNotFound
	}
	return ""
}

// CountByCode 查询某错误码的累计次数
func (a *ErrorAnalytics) CountByCode(code ErrorCode) int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.errorsByCode[code]
}

// GetStats 导出统计快照
func (a *ErrorAnalytics) GetStats() map[string]interface{} {
	a.mu.RLock()
	defer a.mu.RUnlock()

	byCode := make(map[ErrorCode]int, len(a.errorsByCode))
	for code, count := range a.errorsByCode {
		byCode[code] = count
	}
	byPath := make(map[string]int, len(a.errorsByPath))
	for path, count := range a.errorsByPath {
		byPath[path] = count
	}
	patterns := make(map[string]int, len(a.errorPatterns))
	for pattern, count := range a.errorPatterns {
		patterns[pattern] = count
	}

	return map[string]interface{}{
		"total_errors":   a.totalErrors,
		"errors_by_code": byCode,
		"errors_by_path": byPath,
		"error_patterns": patterns,
		"last_error":     a.lastErrorTime,
	}
}
