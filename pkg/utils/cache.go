package utils

import (
	"sync"
	"time"
)

// ==================== TTLCache 带过期时间的内存缓存 ====================

// TTLCache 固定 TTL 的内存缓存
// 实例由使用方持有并显式注入，不依赖进程级全局状态
// 过期采用惰性删除；除 TTL 到期外只有 Clear 一种失效手段
type TTLCache struct {
	entries sync.Map // key -> cacheItem
	ttl     time.Duration
}

// cacheItem 内部结构，值 + 过期时间
type cacheItem struct {
	value      any
	expiration int64 // UnixNano
}

// NewTTLCache 创建缓存，ttl 为条目存活时间
func NewTTLCache(ttl time.Duration) *TTLCache {
	return &TTLCache{ttl: ttl}
}

// Set 写入缓存
func (c *TTLCache) Set(key string, value any) {
	c.entries.Store(key, cacheItem{
		value:      value,
		expiration: time.Now().Add(c.ttl).UnixNano(),
	})
}

// Get 读取缓存并验证是否过期
func (c *TTLCache) Get(key string) (any, bool) {
	val, ok := c.entries.Load(key)
	if !ok {
		return nil, false
	}

	item := val.(cacheItem)
	if time.Now().UnixNano() > item.expiration {
		c.entries.Delete(key) // 惰性删除
		return nil, false
	}
	return item.value, true
}

// Delete 删除单个键
func (c *TTLCache) Delete(key string) {
	c.entries.Delete(key)
}

// Clear 清空全部缓存（测试用）
func (c *TTLCache) Clear() {
	c.entries.Range(func(key, _ any) bool {
		c.entries.Delete(key)
		return true
	})
}
