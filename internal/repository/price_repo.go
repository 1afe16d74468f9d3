package repository

import (
	"context"

	"price_compare_v1_202609/internal/model"
)

// ==================== 接口定义 ====================

// PriceRepository 价格仓储接口
type PriceRepository interface {
	// Save 整条覆盖保存（每轮聚合对每个 (商品, 平台) 写一条）
	Save(ctx context.Context, price *model.Price) error
	// FindByProduct 取商品在所有平台的价格（SK 前缀查询）
	FindByProduct(ctx context.Context, productID string) ([]model.Price, error)
	// FindByProductAndPlatform 点查，未命中返回 (nil, nil)
	FindByProductAndPlatform(ctx context.Context, productID string, platform model.Platform) (*model.Price, error)
	// FindByPlatform 平台维度查询，GSI1SK 升序即按更新时间从旧到新
	FindByPlatform(ctx context.Context, platform model.Platform, limit int, cursor string) ([]model.Price, string, error)
	// FindStale 取某平台在指定时间点之前更新的价格（运维排查用）
	FindStale(ctx context.Context, platform model.Platform, before string) ([]model.Price, error)
}

// ==================== 仓储实现 ====================

type priceRepo struct {
	store ItemStore
}

// NewPriceRepository 创建价格仓储
func NewPriceRepository(store ItemStore) PriceRepository {
	return &priceRepo{store: store}
}

func (r *priceRepo) Save(ctx context.Context, price *model.Price) error {
	item, err := model.PriceToItem(price)
	if err != nil {
		return err
	}
	return r.store.PutItem(ctx, item)
}

func (r *priceRepo) FindByProduct(ctx context.Context, productID string) ([]model.Price, error) {
	items, err := r.store.QueryPrefix(ctx, model.ProductPK(productID), model.PriceSKPrefix)
	if err != nil {
		return nil, err
	}
	return itemsToPrices(items)
}

func (r *priceRepo) FindByProductAndPlatform(ctx context.Context, productID string, platform model.Platform) (*model.Price, error) {
	item, err := r.store.GetItem(ctx, model.ProductPK(productID), model.PriceSK(platform))
	if err != nil || item == nil {
		return nil, err
	}
	return model.ItemToPrice(item)
}

func (r *priceRepo) FindByPlatform(ctx context.Context, platform model.Platform, limit int, cursor string) ([]model.Price, string, error) {
	items, next, err := r.store.QueryIndex(ctx, model.PlatformKey(platform), limit, cursor)
	if err != nil {
		return nil, "", err
	}
	prices, err := itemsToPrices(items)
	return prices, next, err
}

// FindStale 沿平台索引翻页，直到 lastUpdated 越过边界
// GSI1SK 为 "UPDATED#"+RFC3339，字典序即时间序
func (r *priceRepo) FindStale(ctx context.Context, platform model.Platform, before string) ([]model.Price, error) {
	boundary := model.UpdatedKey(before)
	var stale []model.Price
	cursor := ""
	for {
		items, next, err := r.store.QueryIndex(ctx, model.PlatformKey(platform), defaultPageSize, cursor)
		if err != nil {
			return nil, err
		}
		for i := range items {
			if items[i].GSI1SK >= boundary {
				return stale, nil
			}
			p, err := model.ItemToPrice(&items[i])
			if err != nil {
				return nil, err
			}
			stale = append(stale, *p)
		}
		if next == "" {
			return stale, nil
		}
		cursor = next
	}
}

func itemsToPrices(items []model.TableItem) ([]model.Price, error) {
	prices := make([]model.Price, 0, len(items))
	for i := range items {
		p, err := model.ItemToPrice(&items[i])
		if err != nil {
			return nil, err
		}
		prices = append(prices, *p)
	}
	return prices, nil
}
