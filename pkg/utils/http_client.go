package utils

import (
	"time"

	"github.com/go-resty/resty/v2"
)

// browserUA 对电商站点发请求统一使用浏览器 UA，避免被简单规则拦截
const browserUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// NewHTTPClient 创建统一配置的 Resty 客户端
// 它是全系统抓取请求的基础入口；超时由调用方按场景指定
func NewHTTPClient(timeout time.Duration) *resty.Client {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", browserUA).
		SetHeader("Accept-Language", "ja,en-US;q=0.7,en;q=0.3")
}
