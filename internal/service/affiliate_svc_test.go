package service

import (
	"context"
	"testing"

	"price_compare_v1_202609/internal/model"
)

func TestGenerateAffiliateURL(t *testing.T) {
	tests := []struct {
		name     string
		platform model.Platform
		url      string
		cfg      *model.AffiliateConfig
		want     string
	}{
		{
			name:     "amazon 附加 tag",
			platform: model.PlatformAmazon,
			url:      "https://www.amazon.co.jp/dp/B0B5XYZ123",
			cfg:      &model.AffiliateConfig{Platform: model.PlatformAmazon, TrackingTag: "mytag-22", IsActive: true},
			want:     "https://www.amazon.co.jp/dp/B0B5XYZ123?tag=mytag-22",
		},
		{
			name:     "rakuten 跳转包装",
			platform: model.PlatformRakuten,
			url:      "https://item.rakuten.co.jp/shop/sc6/",
			cfg:      &model.AffiliateConfig{Platform: model.PlatformRakuten, AffiliateID: "abc123", IsActive: true},
			want:     "https://hb.afl.rakuten.co.jp/hgc/abc123/?pc=https%3A%2F%2Fitem.rakuten.co.jp%2Fshop%2Fsc6%2F",
		},
		{
			name:     "yodobashi 附加 affiliate_id",
			platform: model.PlatformYodobashi,
			url:      "https://www.yodobashi.com/product/100000001007287425/",
			cfg:      &model.AffiliateConfig{Platform: model.PlatformYodobashi, AffiliateID: "yid42", IsActive: true},
			want:     "https://www.yodobashi.com/product/100000001007287425/?affiliate_id=yid42",
		},
		{
			name:     "mercari 附加 afid",
			platform: model.PlatformMercari,
			url:      "https://jp.mercari.com/item/m555",
			cfg:      &model.AffiliateConfig{Platform: model.PlatformMercari, AffiliateID: "mid7", IsActive: true},
			want:     "https://jp.mercari.com/item/m555?afid=mid7",
		},
		{
			name:     "无配置返回原链接",
			platform: model.PlatformAmazon,
			url:      "https://www.amazon.co.jp/dp/B0B5XYZ123",
			cfg:      nil,
			want:     "https://www.amazon.co.jp/dp/B0B5XYZ123",
		},
		{
			name:     "配置缺 ID 返回原链接",
			platform: model.PlatformRakuten,
			url:      "https://item.rakuten.co.jp/shop/sc6/",
			cfg:      &model.AffiliateConfig{Platform: model.PlatformRakuten, IsActive: true},
			want:     "https://item.rakuten.co.jp/shop/sc6/",
		},
		{
			name:     "解析失败返回原链接",
			platform: model.PlatformAmazon,
			url:      "://not-a-url",
			cfg:      &model.AffiliateConfig{Platform: model.PlatformAmazon, TrackingTag: "mytag-22", IsActive: true},
			want:     "://not-a-url",
		},
		{
			name:     "空链接",
			platform: model.PlatformAmazon,
			url:      "",
			cfg:      &model.AffiliateConfig{Platform: model.PlatformAmazon, TrackingTag: "mytag-22", IsActive: true},
			want:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GenerateAffiliateURL(tt.platform, tt.url, tt.cfg); got != tt.want {
				t.Errorf("GenerateAffiliateURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

// fakeAffiliateRepo 统计回源次数的假仓储
type fakeAffiliateRepo struct {
	configs map[model.Platform]*model.AffiliateConfig
	calls   int
}

func (r *fakeAffiliateRepo) Save(ctx context.Context, config *model.AffiliateConfig) error {
	r.configs[config.Platform] = config
	return nil
}

func (r *fakeAffiliateRepo) FindByPlatform(ctx context.Context, platform model.Platform) (*model.AffiliateConfig, error) {
	r.calls++
	return r.configs[platform], nil
}

func (r *fakeAffiliateRepo) FindAll(ctx context.Context) ([]model.AffiliateConfig, error) {
	var out []model.AffiliateConfig
	for _, cfg := range r.configs {
		out = append(out, *cfg)
	}
	return out, nil
}

func (r *fakeAffiliateRepo) FindActive(ctx context.Context) ([]model.AffiliateConfig, error) {
	var out []model.AffiliateConfig
	for _, cfg := range r.configs {
		if cfg.IsActive {
			out = append(out, *cfg)
		}
	}
	return out, nil
}

func TestAffiliateConfigService_GetConfigCached(t *testing.T) {
	repo := &fakeAffiliateRepo{configs: map[model.Platform]*model.AffiliateConfig{
		model.PlatformAmazon: {Platform: model.PlatformAmazon, TrackingTag: "mytag-22", IsActive: true},
	}}
	svc := NewAffiliateConfigService(repo)
	ctx := context.Background()

	// 第一次回源，之后命中缓存
	for i := 0; i < 3; i++ {
		cfg := svc.GetConfig(ctx, model.PlatformAmazon)
		if cfg == nil || cfg.TrackingTag != "mytag-22" {
			t.Fatalf("GetConfig() = %+v", cfg)
		}
	}
	if repo.calls != 1 {
		t.Errorf("回源次数 = %d, want 1", repo.calls)
	}
}

func TestAffiliateConfigService_InactiveConfig(t *testing.T) {
	repo := &fakeAffiliateRepo{configs: map[model.Platform]*model.AffiliateConfig{
		model.PlatformRakuten: {Platform: model.PlatformRakuten, AffiliateID: "abc", IsActive: false},
	}}
	svc := NewAffiliateConfigService(repo)

	if cfg := svc.GetConfig(context.Background(), model.PlatformRakuten); cfg != nil {
		t.Errorf("未启用的配置应返回 nil, got %+v", cfg)
	}
}

func TestAffiliateConfigService_MissingCachedNegative(t *testing.T) {
	repo := &fakeAffiliateRepo{configs: map[model.Platform]*model.AffiliateConfig{}}
	svc := NewAffiliateConfigService(repo)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if cfg := svc.GetConfig(ctx, model.PlatformMercari); cfg != nil {
			t.Fatalf("GetConfig() = %+v, want nil", cfg)
		}
	}
	// 负结果也缓存
	if repo.calls != 1 {
		t.Errorf("回源次数 = %d, want 1", repo.calls)
	}
}

func TestAffiliateConfigService_ClearCache(t *testing.T) {
	repo := &fakeAffiliateRepo{configs: map[model.Platform]*model.AffiliateConfig{
		model.PlatformAmazon: {Platform: model.PlatformAmazon, TrackingTag: "old-22", IsActive: true},
	}}
	svc := NewAffiliateConfigService(repo)
	ctx := context.Background()

	svc.GetConfig(ctx, model.PlatformAmazon)
	repo.configs[model.PlatformAmazon] = &model.AffiliateConfig{Platform: model.PlatformAmazon, TrackingTag: "new-22", IsActive: true}
	svc.ClearCache()

	cfg := svc.GetConfig(ctx, model.PlatformAmazon)
	if cfg == nil || cfg.TrackingTag != "new-22" {
		t.Errorf("ClearCache 后应读到新配置, got %+v", cfg)
	}
	if repo.calls != 2 {
		t.Errorf("回源次数 = %d, want 2", repo.calls)
	}
}

func TestAffiliateConfigService_DecorateURL(t *testing.T) {
	repo := &fakeAffiliateRepo{configs: map[model.Platform]*model.AffiliateConfig{
		model.PlatformAmazon: {Platform: model.PlatformAmazon, TrackingTag: "mytag-22", IsActive: true},
	}}
	svc := NewAffiliateConfigService(repo)
	ctx := context.Background()

	got := svc.DecorateURL(ctx, model.PlatformAmazon, "https://www.amazon.co.jp/dp/B0B5XYZ123")
	if got != "https://www.amazon.co.jp/dp/B0B5XYZ123?tag=mytag-22" {
		t.Errorf("DecorateURL() = %q", got)
	}

	// 无配置平台原样返回
	got = svc.DecorateURL(ctx, model.PlatformYodobashi, "https://www.yodobashi.com/product/1/")
	if got != "https://www.yodobashi.com/product/1/" {
		t.Errorf("DecorateURL() = %q", got)
	}
}
