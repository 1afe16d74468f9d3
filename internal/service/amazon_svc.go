package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"

	"price_compare_v1_202609/internal/model"
)

// ==================== Amazon PA-API 配置 ====================

// AmazonConfig PA-API 5.0 凭证与区域配置
type AmazonConfig struct {
	AccessKey  string
	SecretKey  string
	PartnerTag string
	Region     string // ap-northeast-1
	Endpoint   string // https://webservices.amazon.co.jp/paapi5/searchitems
}

// Configured 凭证是否齐全
func (c AmazonConfig) Configured() bool {
	return c.AccessKey != "" && c.SecretKey != "" && c.PartnerTag != ""
}

// ==================== 请求/响应结构 ====================

type paapiSearchRequest struct {
	Keywords    string   `json:"Keywords"`
	SearchIndex string   `json:"SearchIndex"`
	ItemCount   int      `json:"ItemCount"`
	PartnerTag  string   `json:"PartnerTag"`
	PartnerType string   `json:"PartnerType"`
	Marketplace string   `json:"Marketplace"`
	Resources   []string `json:"Resources"`
}

type paapiSearchResponse struct {
	SearchResult struct {
		Items []paapiItem `json:"Items"`
	} `json:"SearchResult"`
	Errors []struct {
		Code    string `json:"Code"`
		Message string `json:"Message"`
	} `json:"Errors"`
}

type paapiItem struct {
	DetailPageURL string `json:"DetailPageURL"`
	ItemInfo      struct {
		Title struct {
			DisplayValue string `json:"DisplayValue"`
		} `json:"Title"`
	} `json:"ItemInfo"`
	Images struct {
		Primary struct {
			Large struct {
				URL string `json:"URL"`
			} `json:"Large"`
			Medium struct {
				URL string `json:"URL"`
			} `json:"Medium"`
		} `json:"Primary"`
	} `json:"Images"`
	Offers struct {
		Listings []struct {
			Price struct {
				Amount float64 `json:"Amount"`
			} `json:"Price"`
			Availability struct {
				Type string `json:"Type"`
			} `json:"Availability"`
		} `json:"Listings"`
	} `json:"Offers"`
}

// ==================== 服务实现 ====================

// AmazonService 通过 PA-API 5.0 SearchItems 查询 Amazon.co.jp 价格
type AmazonService struct {
	config AmazonConfig
	client *http.Client
	signer *v4.Signer
	retry  *RetryPolicy
}

// NewAmazonService 创建 Amazon 价格服务
func NewAmazonService(config AmazonConfig) *AmazonService {
	if config.Region == "" {
		config.Region = "ap-northeast-1"
	}
	if config.Endpoint == "" {
		config.Endpoint = "https://webservices.amazon.co.jp/paapi5/searchitems"
	}
	return &AmazonService{
		config: config,
		client: &http.Client{Timeout: 10 * time.Second},
		signer: v4.NewSigner(),
		retry:  DefaultRetryPolicy(),
	}
}

// Platform 实现 PriceFetcher
func (s *AmazonService) Platform() model.Platform {
	return model.PlatformAmazon
}

// FetchPrice 搜索商品并返回最佳匹配的价格
// 凭证未配置时直接降级，不做无谓重试
func (s *AmazonService) FetchPrice(ctx context.Context, productName, modelNumber string) PriceResult {
	if !s.config.Configured() {
		return errorResult(model.PlatformAmazon, "Amazon PA-API credentials not configured")
	}

	query := fmt.Sprintf("%s %s", productName, modelNumber)

	var resp paapiSearchResponse
	err := s.retry.Do(ctx, func() error {
		r, err := s.searchItems(ctx, query)
		if err != nil {
			return err
		}
		resp = *r
		return nil
	})
	if err != nil {
		log.Printf("[AmazonService] 搜索失败: %v", err)
		return errorResult(model.PlatformAmazon, err.Error())
	}

	items := resp.SearchResult.Items
	if len(items) == 0 {
		return notFoundResult(model.PlatformAmazon)
	}

	// 按标题做词袋匹配，取最佳命中
	titles := make([]string, len(items))
	for i, item := range items {
		titles[i] = item.ItemInfo.Title.DisplayValue
	}
	idx := BestMatchIndex(query, titles)
	if idx < 0 {
		return notFoundResult(model.PlatformAmazon)
	}
	item := items[idx]

	result := PriceResult{
		Platform:     model.PlatformAmazon,
		Availability: model.AvailabilityNotFound,
		ProductURL:   item.DetailPageURL,
	}
	if item.Images.Primary.Large.URL != "" {
		result.ImageURL = item.Images.Primary.Large.URL
	} else if item.Images.Primary.Medium.URL != "" {
		result.ImageURL = item.Images.Primary.Medium.URL
	}

	if len(item.Offers.Listings) == 0 {
		result.ErrorMessage = "No offers available"
		return result
	}
	listing := item.Offers.Listings[0]
	price := listing.Price.Amount
	result.Price = &price
	switch listing.Availability.Type {
	case "Now":
		result.Availability = model.AvailabilityInStock
	case "":
		result.Availability = model.AvailabilityNotFound
	default:
		result.Availability = model.AvailabilityOutOfStock
	}
	return result
}

// searchItems 发起一次签名后的 SearchItems 调用
func (s *AmazonService) searchItems(ctx context.Context, keywords string) (*paapiSearchResponse, error) {
	reqBody := paapiSearchRequest{
		Keywords:    keywords,
		SearchIndex: "All",
		ItemCount:   5,
		PartnerTag:  s.config.PartnerTag,
		PartnerType: "Associates",
		Marketplace: "www.amazon.co.jp",
		Resources: []string{
			"ItemInfo.Title",
			"Offers.Listings.Price",
			"Offers.Listings.Availability.Type",
			"Images.Primary.Large",
			"Images.Primary.Medium",
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("编码请求失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("构造请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("X-Amz-Target", "com.amazon.paapi5.v1.ProductAdvertisingAPIv1.SearchItems")
	req.Header.Set("Content-Encoding", "amz-1.0")

	hash := sha256.Sum256(payload)
	creds := aws.Credentials{AccessKeyID: s.config.AccessKey, SecretAccessKey: s.config.SecretKey}
	if err := s.signer.SignHTTP(ctx, creds, req, hex.EncodeToString(hash[:]),
		"ProductAdvertisingAPI", s.config.Region, time.Now()); err != nil {
		return nil, fmt.Errorf("签名失败: %w", err)
	}

	httpResp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求失败: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应失败: %w", err)
	}

	if httpResp.StatusCode >= 400 && httpResp.StatusCode < 500 {
		// 客户端错误重试无意义
		return nil, Permanent(fmt.Errorf("PA-API 返回 %d: %s", httpResp.StatusCode, string(body)))
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("PA-API 返回 %d", httpResp.StatusCode)
	}

	var resp paapiSearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("解析响应失败: %w", err)
	}
	if len(resp.Errors) > 0 {
		return nil, Permanent(fmt.Errorf("PA-API 错误 %s: %s", resp.Errors[0].Code, resp.Errors[0].Message))
	}
	return &resp, nil
}
