package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// ==================== TriggerRateLimiter 手动触发限流器 ====================

// TriggerType 手动触发类型
type TriggerType string

const (
	TriggerTypePrice   TriggerType = "price"
	TriggerTypeCatalog TriggerType = "catalog"
)

// DefaultIntervals 默认冷却间隔
var DefaultIntervals = map[TriggerType]time.Duration{
	TriggerTypePrice:   10 * time.Minute,
	TriggerTypeCatalog: 30 * time.Minute,
}

// TriggerRateLimiter 手动触发任务的限流器
// 防止频繁触发全量抓取压垮上游平台
type TriggerRateLimiter struct {
	locks sync.Map // TriggerType -> *lockEntry
}

// lockEntry 锁条目
type lockEntry struct {
	lastTime time.Time
	mu       sync.Mutex
}

// NewTriggerRateLimiter 创建限流器
func NewTriggerRateLimiter() *TriggerRateLimiter {
	return &TriggerRateLimiter{}
}

// CheckResult 检查结果
type CheckResult struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Check 检查是否允许触发，允许时同时记录本次触发
func (r *TriggerRateLimiter) Check(triggerType TriggerType, interval time.Duration) CheckResult {
	actual, _ := r.locks.LoadOrStore(triggerType, &lockEntry{})
	entry := actual.(*lockEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(entry.lastTime)
	if elapsed < interval {
		return CheckResult{Allowed: false, RetryAfter: interval - elapsed}
	}

	entry.lastTime = now
	return CheckResult{Allowed: true}
}

// Reset 重置某类触发的冷却
func (r *TriggerRateLimiter) Reset(triggerType TriggerType) {
	r.locks.Delete(triggerType)
}

// ==================== 限流中间件 ====================

// TriggerRateLimit 手动触发限流中间件
// interval 为 0 时使用该类型的默认冷却
func TriggerRateLimit(limiter *TriggerRateLimiter, triggerType TriggerType, interval time.Duration) gin.HandlerFunc {
	if interval == 0 {
		if d, ok := DefaultIntervals[triggerType]; ok {
			interval = d
		} else {
			interval = 10 * time.Minute
		}
	}

	return func(c *gin.Context) {
		result := limiter.Check(triggerType, interval)
		if !result.Allowed {
			retryAfter := int(result.RetryAfter.Seconds())
			c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":    "RATE_LIMITED",
					"message": formatRetryMessage(result.RetryAfter),
					"details": fmt.Sprintf("retry_after=%ds", retryAfter),
				},
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// formatRetryMessage 格式化重试提示信息
func formatRetryMessage(d time.Duration) string {
	seconds := int(d.Seconds())
	if seconds < 60 {
		return fmt.Sprintf("触发冷却中，请 %d 秒后重试", seconds)
	}

	minutes := seconds / 60
	remainingSeconds := seconds % 60
	if remainingSeconds == 0 {
		return fmt.Sprintf("触发冷却中，请 %d 分钟后重试", minutes)
	}
	return fmt.Sprintf("触发冷却中，请 %d 分 %d 秒后重试", minutes, remainingSeconds)
}
