package service

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"price_compare_v1_202609/internal/model"
	"price_compare_v1_202609/pkg/utils"
)

// ==================== メルカリ抓取 ====================

const (
	defaultMercariAPIEndpoint = "https://api.mercari.jp/v2/entities:search"
	defaultMercariWebBaseURL  = "https://jp.mercari.com"
)

var (
	mercariPriceRegex = regexp.MustCompile(`"price":\s*(\d+)`)
	mercariItemRegex  = regexp.MustCompile(`/item/(m\d+)`)
)

// MercariService 查询メルカリ在售商品价格
// 先走搜索 API，被拒后降级为网页抓取
type MercariService struct {
	APIEndpoint string
	WebBaseURL  string
	client      *resty.Client
	retry       *RetryPolicy
}

type mercariSearchResponse struct {
	Items []mercariItem `json:"items"`
}

type mercariItem struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Price  string `json:"price"`
	Status string `json:"status"`
}

// NewMercariService 创建メルカリ价格服务
func NewMercariService() *MercariService {
	return &MercariService{
		APIEndpoint: defaultMercariAPIEndpoint,
		WebBaseURL:  defaultMercariWebBaseURL,
		client:      utils.NewHTTPClient(15 * time.Second),
		retry:       DefaultRetryPolicy(),
	}
}

// Platform 实现 PriceFetcher
func (s *MercariService) Platform() model.Platform {
	return model.PlatformMercari
}

// FetchPrice 搜索在售商品并返回最佳匹配价格
func (s *MercariService) FetchPrice(ctx context.Context, productName, modelNumber string) PriceResult {
	query := fmt.Sprintf("%s %s", productName, modelNumber)

	result, apiErr := s.fetchViaAPI(ctx, query)
	if apiErr == nil {
		return result
	}
	log.Printf("[MercariService] API 查询失败，降级网页抓取: %v", apiErr)

	return s.fetchViaWeb(ctx, query)
}

// fetchViaAPI 通过搜索 API 查询
func (s *MercariService) fetchViaAPI(ctx context.Context, query string) (PriceResult, error) {
	var searchResp mercariSearchResponse
	err := s.retry.Do(ctx, func() error {
		resp, err := s.client.R().
			SetContext(ctx).
			SetHeader("X-Platform", "web").
			SetQueryParams(map[string]string{
				"keyword": query,
				"limit":   "10",
				"sort":    "created_time",
				"order":   "desc",
				"status":  "on_sale",
			}).
			SetResult(&searchResp).
			Get(s.APIEndpoint)
		if err != nil {
			return fmt.Errorf("请求失败: %w", err)
		}
		if resp.StatusCode() >= 400 && resp.StatusCode() < 500 {
			return Permanent(fmt.Errorf("メルカリ API 返回 %d", resp.StatusCode()))
		}
		if resp.StatusCode() != 200 {
			return fmt.Errorf("メルカリ API 返回 %d", resp.StatusCode())
		}
		return nil
	})
	if err != nil {
		return PriceResult{}, err
	}

	if len(searchResp.Items) == 0 {
		return notFoundResult(model.PlatformMercari), nil
	}

	names := make([]string, len(searchResp.Items))
	for i, item := range searchResp.Items {
		names[i] = item.Name
	}
	idx := BestMatchIndex(query, names)
	if idx < 0 {
		return notFoundResult(model.PlatformMercari), nil
	}
	item := searchResp.Items[idx]

	price, err := strconv.ParseFloat(item.Price, 64)
	if err != nil {
		return errorResult(model.PlatformMercari, fmt.Sprintf("价格解析失败: %v", err)), nil
	}

	result := PriceResult{
		Platform:   model.PlatformMercari,
		Price:      &price,
		ProductURL: fmt.Sprintf("%s/item/%s", s.WebBaseURL, item.ID),
	}
	switch item.Status {
	case "on_sale":
		result.Availability = model.AvailabilityInStock
	case "sold_out", "trading":
		result.Availability = model.AvailabilityOutOfStock
	default:
		// 未知状态当作未找到，不猜测库存
		result.Availability = model.AvailabilityNotFound
	}
	return result, nil
}

// fetchViaWeb 网页抓取降级路径
func (s *MercariService) fetchViaWeb(ctx context.Context, query string) PriceResult {
	searchURL := fmt.Sprintf("%s/search?keyword=%s&status=on_sale", s.WebBaseURL, url.QueryEscape(query))

	var html string
	err := s.retry.Do(ctx, func() error {
		resp, err := s.client.R().SetContext(ctx).Get(searchURL)
		if err != nil {
			return fmt.Errorf("请求失败: %w", err)
		}
		if resp.StatusCode() >= 400 && resp.StatusCode() < 500 {
			return Permanent(fmt.Errorf("メルカリ返回 %d", resp.StatusCode()))
		}
		if resp.StatusCode() != 200 {
			return fmt.Errorf("メルカリ返回 %d", resp.StatusCode())
		}
		html = resp.String()
		return nil
	})
	if err != nil {
		log.Printf("[MercariService] 网页抓取失败: %v", err)
		return errorResult(model.PlatformMercari, err.Error())
	}

	priceMatch := mercariPriceRegex.FindStringSubmatch(html)
	if priceMatch == nil {
		return notFoundResult(model.PlatformMercari)
	}
	price, parseErr := strconv.ParseFloat(priceMatch[1], 64)
	if parseErr != nil {
		return errorResult(model.PlatformMercari, fmt.Sprintf("价格解析失败: %v", parseErr))
	}

	result := PriceResult{
		Platform: model.PlatformMercari,
		Price:    &price,
		// 搜索页里出现即在售
		Availability: model.AvailabilityInStock,
		ProductURL:   searchURL,
	}
	if m := mercariItemRegex.FindStringSubmatch(html); m != nil {
		result.ProductURL = fmt.Sprintf("%s/item/%s", s.WebBaseURL, m[1])
	}
	return result
}
