package service

import (
	"context"
	"fmt"
	"sync"

	"price_compare_v1_202609/internal/model"
)

// ==================== 统一抓取结果 ====================

// PriceResult 平台价格抓取的统一结果
// 抓取器从不返回 error：所有失败路径都收敛为
// price=nil / availability=not_found / ErrorMessage 非空
type PriceResult struct {
	Platform     model.Platform
	Price        *float64
	Availability model.PriceAvailability
	ProductURL   string
	ImageURL     string // 顺带拿到的商品图（Amazon/楽天会填）
	ErrorMessage string
}

// errorResult 构造失败结果
func errorResult(platform model.Platform, msg string) PriceResult {
	return PriceResult{
		Platform:     platform,
		Availability: model.AvailabilityNotFound,
		ErrorMessage: msg,
	}
}

// notFoundResult 构造"平台无此商品"结果
func notFoundResult(platform model.Platform) PriceResult {
	return errorResult(platform, fmt.Sprintf("Product not found on %s", platform))
}

// ==================== 抓取器接口与注册表 ====================

// PriceFetcher 平台价格抓取能力
type PriceFetcher interface {
	Platform() model.Platform
	// FetchPrice 按"商品名 + 型号"搜索并返回价格，永不返回 error
	FetchPrice(ctx context.Context, productName, modelNumber string) PriceResult
}

// PriceFetcherRegistry 平台 -> 抓取器 注册表
// 新增平台只需 Register，不再改动分发逻辑
type PriceFetcherRegistry struct {
	fetchers map[model.Platform]PriceFetcher
	order    []model.Platform
}

// NewPriceFetcherRegistry 创建空注册表
func NewPriceFetcherRegistry() *PriceFetcherRegistry {
	return &PriceFetcherRegistry{
		fetchers: make(map[model.Platform]PriceFetcher),
	}
}

// Register 注册抓取器；重复注册同一平台覆盖旧实现
func (r *PriceFetcherRegistry) Register(f PriceFetcher) {
	platform := f.Platform()
	if _, exists := r.fetchers[platform]; !exists {
		r.order = append(r.order, platform)
	}
	r.fetchers[platform] = f
}

// Get 取某平台的抓取器
func (r *PriceFetcherRegistry) Get(platform model.Platform) (PriceFetcher, bool) {
	f, ok := r.fetchers[platform]
	return f, ok
}

// Platforms 返回注册顺序的平台列表
func (r *PriceFetcherRegistry) Platforms() []model.Platform {
	return append([]model.Platform(nil), r.order...)
}

// ==================== 并发扇出 ====================

// FetchAll 并发抓取全部已注册平台的价格
// 单个平台失败甚至 panic 都不影响其他平台——对应结果
// 降级为 not_found + 错误信息
func (r *PriceFetcherRegistry) FetchAll(ctx context.Context, productName, modelNumber string) map[model.Platform]PriceResult {
	results := make(map[model.Platform]PriceResult, len(r.order))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, platform := range r.order {
		fetcher := r.fetchers[platform]
		wg.Add(1)
		go func(platform model.Platform, fetcher PriceFetcher) {
			defer wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					mu.Lock()
					results[platform] = errorResult(platform, fmt.Sprintf("fetcher panic: %v", rec))
					mu.Unlock()
				}
			}()

			result := fetcher.FetchPrice(ctx, productName, modelNumber)
			mu.Lock()
			results[platform] = result
			mu.Unlock()
		}(platform, fetcher)
	}

	wg.Wait()
	return results
}
