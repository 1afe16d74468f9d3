package service

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"time"

	"price_compare_v1_202609/internal/model"
	"price_compare_v1_202609/internal/repository"
	"price_compare_v1_202609/pkg/utils"
)

// ==================== 联盟链接生成 ====================

// GenerateAffiliateURL 为商品链接附加联盟参数
// 任何失败（配置缺失、URL 解析失败、平台未知）都返回原链接，
// 调用方无需处理错误
func GenerateAffiliateURL(platform model.Platform, productURL string, cfg *model.AffiliateConfig) string {
	if productURL == "" || cfg == nil {
		return productURL
	}

	switch platform {
	case model.PlatformAmazon:
		return amazonAffiliateURL(productURL, cfg)
	case model.PlatformRakuten:
		return rakutenAffiliateURL(productURL, cfg)
	case model.PlatformYodobashi:
		return yodobashiAffiliateURL(productURL, cfg)
	case model.PlatformMercari:
		return mercariAffiliateURL(productURL, cfg)
	default:
		return productURL
	}
}

// amazonAffiliateURL 附加 Associates tag 参数
func amazonAffiliateURL(productURL string, cfg *model.AffiliateConfig) string {
	tag := cfg.TrackingTag
	if tag == "" {
		tag = cfg.AffiliateID
	}
	if tag == "" {
		return productURL
	}
	return appendQueryParam(productURL, "tag", tag)
}

// rakutenAffiliateURL 包装成 hb.afl.rakuten.co.jp 跳转链接
func rakutenAffiliateURL(productURL string, cfg *model.AffiliateConfig) string {
	if cfg.AffiliateID == "" {
		return productURL
	}
	return fmt.Sprintf("https://hb.afl.rakuten.co.jp/hgc/%s/?pc=%s",
		cfg.AffiliateID, url.QueryEscape(productURL))
}

// yodobashiAffiliateURL 附加 affiliate_id 参数
func yodobashiAffiliateURL(productURL string, cfg *model.AffiliateConfig) string {
	if cfg.AffiliateID == "" {
		return productURL
	}
	return appendQueryParam(productURL, "affiliate_id", cfg.AffiliateID)
}

// mercariAffiliateURL 附加 afid 参数
func mercariAffiliateURL(productURL string, cfg *model.AffiliateConfig) string {
	if cfg.AffiliateID == "" {
		return productURL
	}
	return appendQueryParam(productURL, "afid", cfg.AffiliateID)
}

// appendQueryParam 解析失败时返回原链接
func appendQueryParam(rawURL, key, value string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}

// ==================== 配置缓存服务 ====================

const affiliateConfigCacheTTL = 5 * time.Minute

// AffiliateConfigService 带 TTL 缓存的联盟配置读取
type AffiliateConfigService struct {
	repo  repository.AffiliateConfigRepository
	cache *utils.TTLCache
}

// NewAffiliateConfigService 创建联盟配置服务
func NewAffiliateConfigService(repo repository.AffiliateConfigRepository) *AffiliateConfigService {
	return &AffiliateConfigService{
		repo:  repo,
		cache: utils.NewTTLCache(affiliateConfigCacheTTL),
	}
}

// GetConfig 读取某平台的联盟配置，未启用或不存在返回 nil
// 缓存未命中时回源仓储，负结果同样缓存
func (s *AffiliateConfigService) GetConfig(ctx context.Context, platform model.Platform) *model.AffiliateConfig {
	cacheKey := "affiliate:" + string(platform)
	if cached, ok := s.cache.Get(cacheKey); ok {
		cfg, _ := cached.(*model.AffiliateConfig)
		return cfg
	}

	cfg, err := s.repo.FindByPlatform(ctx, platform)
	if err != nil {
		log.Printf("[AffiliateConfigService] 读取配置失败 platform=%s: %v", platform, err)
		return nil
	}
	if cfg != nil && !cfg.IsActive {
		cfg = nil
	}
	s.cache.Set(cacheKey, cfg)
	return cfg
}

// DecorateURL 为商品链接附加当前平台的联盟参数
func (s *AffiliateConfigService) DecorateURL(ctx context.Context, platform model.Platform, productURL string) string {
	return GenerateAffiliateURL(platform, productURL, s.GetConfig(ctx, platform))
}

// ClearCache 清空缓存，配置变更后调用
func (s *AffiliateConfigService) ClearCache() {
	s.cache.Clear()
}
