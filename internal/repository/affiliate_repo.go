package repository

import (
	"context"

	"price_compare_v1_202609/internal/model"
)

// ==================== 接口定义 ====================

// AffiliateConfigRepository 联盟配置仓储接口
type AffiliateConfigRepository interface {
	Save(ctx context.Context, config *model.AffiliateConfig) error
	// FindByPlatform 点查，未命中返回 (nil, nil)
	FindByPlatform(ctx context.Context, platform model.Platform) (*model.AffiliateConfig, error)
	FindAll(ctx context.Context) ([]model.AffiliateConfig, error)
	FindActive(ctx context.Context) ([]model.AffiliateConfig, error)
}

// ==================== 仓储实现 ====================

type affiliateConfigRepo struct {
	store ItemStore
}

// NewAffiliateConfigRepository 创建联盟配置仓储
func NewAffiliateConfigRepository(store ItemStore) AffiliateConfigRepository {
	return &affiliateConfigRepo{store: store}
}

func (r *affiliateConfigRepo) Save(ctx context.Context, config *model.AffiliateConfig) error {
	item, err := model.AffiliateConfigToItem(config)
	if err != nil {
		return err
	}
	return r.store.PutItem(ctx, item)
}

func (r *affiliateConfigRepo) FindByPlatform(ctx context.Context, platform model.Platform) (*model.AffiliateConfig, error) {
	item, err := r.store.GetItem(ctx, model.ConfigPK, model.AffiliateSK(platform))
	if err != nil || item == nil {
		return nil, err
	}
	return model.ItemToAffiliateConfig(item)
}

func (r *affiliateConfigRepo) FindAll(ctx context.Context) ([]model.AffiliateConfig, error) {
	items, err := r.store.QueryPrefix(ctx, model.ConfigPK, model.AffiliateSKPrefix)
	if err != nil {
		return nil, err
	}
	configs := make([]model.AffiliateConfig, 0, len(items))
	for i := range items {
		c, err := model.ItemToAffiliateConfig(&items[i])
		if err != nil {
			return nil, err
		}
		configs = append(configs, *c)
	}
	return configs, nil
}

func (r *affiliateConfigRepo) FindActive(ctx context.Context) ([]model.AffiliateConfig, error) {
	all, err := r.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	active := make([]model.AffiliateConfig, 0, len(all))
	for _, c := range all {
		if c.IsActive {
			active = append(active, c)
		}
	}
	return active, nil
}
