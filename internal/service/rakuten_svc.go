package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-resty/resty/v2"

	"price_compare_v1_202609/internal/model"
)

// ==================== 楽天市場 API ====================

const defaultRakutenEndpoint = "https://app.rakuten.co.jp/services/api/IchibaItem/Search/20220601"

// RakutenConfig 楽天市場商品検索 API 配置
type RakutenConfig struct {
	ApplicationID string
	AffiliateID   string // 可选，传入后 API 直接返回联盟链接
	Endpoint      string
}

// RakutenItem formatVersion=2 的扁平商品结构
type RakutenItem struct {
	ItemName        string   `json:"itemName"`
	ItemPrice       float64  `json:"itemPrice"`
	ItemURL         string   `json:"itemUrl"`
	Availability    int      `json:"availability"`
	MediumImageURLs []string `json:"mediumImageUrls"`
	SmallImageURLs  []string `json:"smallImageUrls"`
}

type rakutenSearchResponse struct {
	Items []RakutenItem `json:"Items"`
	Count int           `json:"count"`
}

// RakutenService 通过楽天市場商品検索 API 查询价格
type RakutenService struct {
	config RakutenConfig
	client *resty.Client
	retry  *RetryPolicy
}

// NewRakutenService 创建楽天价格服务
func NewRakutenService(config RakutenConfig) *RakutenService {
	if config.Endpoint == "" {
		config.Endpoint = defaultRakutenEndpoint
	}
	client := resty.New().
		SetTimeout(10 * time.Second).
		SetHeader("Accept", "application/json")
	return &RakutenService{
		config: config,
		client: client,
		retry:  DefaultRetryPolicy(),
	}
}

// Platform 实现 PriceFetcher
func (s *RakutenService) Platform() model.Platform {
	return model.PlatformRakuten
}

// FetchPrice 按关键词搜索并返回最低价且匹配的商品
func (s *RakutenService) FetchPrice(ctx context.Context, productName, modelNumber string) PriceResult {
	if s.config.ApplicationID == "" {
		return errorResult(model.PlatformRakuten, "Rakuten application ID not configured")
	}

	query := fmt.Sprintf("%s %s", productName, modelNumber)

	var searchResp rakutenSearchResponse
	err := s.retry.Do(ctx, func() error {
		params := map[string]string{
			"applicationId": s.config.ApplicationID,
			"keyword":       query,
			"hits":          "5",
			"sort":          "-itemPrice",
			"formatVersion": "2",
			"imageFlag":     "1",
		}
		if s.config.AffiliateID != "" {
			params["affiliateId"] = s.config.AffiliateID
		}

		resp, err := s.client.R().
			SetContext(ctx).
			SetQueryParams(params).
			SetResult(&searchResp).
			Get(s.config.Endpoint)
		if err != nil {
			return fmt.Errorf("请求失败: %w", err)
		}
		if resp.StatusCode() >= 400 && resp.StatusCode() < 500 {
			return Permanent(fmt.Errorf("楽天 API 返回 %d: %s", resp.StatusCode(), resp.String()))
		}
		if resp.StatusCode() != 200 {
			return fmt.Errorf("楽天 API 返回 %d", resp.StatusCode())
		}
		return nil
	})
	if err != nil {
		log.Printf("[RakutenService] 搜索失败: %v", err)
		return errorResult(model.PlatformRakuten, err.Error())
	}

	if len(searchResp.Items) == 0 {
		return notFoundResult(model.PlatformRakuten)
	}

	// sort=-itemPrice 时首位通常是正品而非杂件，只校验首位
	item := searchResp.Items[0]
	if !MatchQuery(query, item.ItemName) {
		return notFoundResult(model.PlatformRakuten)
	}

	price := item.ItemPrice
	result := PriceResult{
		Platform:   model.PlatformRakuten,
		Price:      &price,
		ProductURL: item.ItemURL,
	}
	if item.Availability == 1 {
		result.Availability = model.AvailabilityInStock
	} else {
		result.Availability = model.AvailabilityOutOfStock
	}
	if len(item.MediumImageURLs) > 0 {
		result.ImageURL = item.MediumImageURLs[0]
	} else if len(item.SmallImageURLs) > 0 {
		result.ImageURL = item.SmallImageURLs[0]
	}
	return result
}
