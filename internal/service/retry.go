package service

import (
	"context"
	"errors"
	"log"
	"time"
)

// ==================== RetryPolicy 指数退避重试 ====================

// RetryPolicy 可复用的重试策略，注入到各平台抓取器
// 延迟 = BaseDelay * 2^(attempt-1)，共 MaxAttempts 次
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultRetryPolicy 抓取场景的默认策略：3 次，基础延迟 1s
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second}
}

// permanentError 标记不可重试的错误
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent 包装一个不应重试的错误（如 4xx 响应）
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Do 执行 op；失败按指数退避重试，重试耗尽返回最后一次错误
// Permanent 包装的错误立即返回；ctx 取消时停止等待
func (p *RetryPolicy) Do(ctx context.Context, op func() error) error {
	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		err := op()
		if err == nil {
			return nil
		}
		lastErr = err

		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}

		if attempt < p.MaxAttempts {
			delay := p.BaseDelay * time.Duration(1<<(attempt-1))
			log.Printf("[Retry] 第 %d 次失败，%v 后重试: %v", attempt, delay, err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return lastErr
}
