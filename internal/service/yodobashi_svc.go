package service

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"price_compare_v1_202609/internal/model"
	"price_compare_v1_202609/pkg/utils"
)

// ==================== ヨドバシ.com 抓取 ====================

const defaultYodobashiBaseURL = "https://www.yodobashi.com"

var (
	yodobashiPriceRegex   = regexp.MustCompile(`¥\s*([\d,]+)`)
	yodobashiProductRegex = regexp.MustCompile(`href="(/product/\d+/?)"`)
)

// YodobashiService 抓取ヨドバシ.com 搜索结果页提取价格
// 无公开 API，走 HTML 解析
type YodobashiService struct {
	BaseURL string
	client  *resty.Client
	retry   *RetryPolicy
}

// NewYodobashiService 创建ヨドバシ价格服务
func NewYodobashiService() *YodobashiService {
	return &YodobashiService{
		BaseURL: defaultYodobashiBaseURL,
		client:  utils.NewHTTPClient(15 * time.Second),
		retry:   DefaultRetryPolicy(),
	}
}

// Platform 实现 PriceFetcher
func (s *YodobashiService) Platform() model.Platform {
	return model.PlatformYodobashi
}

// FetchPrice 搜索并从结果页提取首个价格与商品链接
func (s *YodobashiService) FetchPrice(ctx context.Context, productName, modelNumber string) PriceResult {
	query := fmt.Sprintf("%s %s", productName, modelNumber)
	searchURL := fmt.Sprintf("%s/?word=%s", s.BaseURL, url.QueryEscape(query))

	var html string
	err := s.retry.Do(ctx, func() error {
		resp, err := s.client.R().SetContext(ctx).Get(searchURL)
		if err != nil {
			return fmt.Errorf("请求失败: %w", err)
		}
		if resp.StatusCode() >= 400 && resp.StatusCode() < 500 {
			return Permanent(fmt.Errorf("ヨドバシ返回 %d", resp.StatusCode()))
		}
		if resp.StatusCode() != 200 {
			return fmt.Errorf("ヨドバシ返回 %d", resp.StatusCode())
		}
		html = resp.String()
		return nil
	})
	if err != nil {
		log.Printf("[YodobashiService] 搜索失败: %v", err)
		return errorResult(model.PlatformYodobashi, err.Error())
	}

	priceMatch := yodobashiPriceRegex.FindStringSubmatch(html)
	if priceMatch == nil {
		return notFoundResult(model.PlatformYodobashi)
	}
	raw := strings.ReplaceAll(priceMatch[1], ",", "")
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return errorResult(model.PlatformYodobashi, fmt.Sprintf("价格解析失败: %v", err))
	}

	// 有价格但没有商品链接说明不是商品结果页
	productMatch := yodobashiProductRegex.FindStringSubmatch(html)
	if productMatch == nil {
		return notFoundResult(model.PlatformYodobashi)
	}

	result := PriceResult{
		Platform:   model.PlatformYodobashi,
		Price:      &price,
		ProductURL: s.BaseURL + productMatch[1],
	}

	// 在庫あり・お取り寄せ 均视为可购买
	if strings.Contains(html, "在庫あり") || strings.Contains(html, "お取り寄せ") {
		result.Availability = model.AvailabilityInStock
	} else {
		result.Availability = model.AvailabilityOutOfStock
	}
	return result
}
