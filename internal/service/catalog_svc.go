package service

import (
	"context"
	"fmt"
	"html"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"price_compare_v1_202609/internal/model"
	"price_compare_v1_202609/pkg/utils"
)

// ==================== Salomon 官网目录 ====================

const defaultSalomonBaseURL = "https://salomon.jp"

var (
	productHandleRegex = regexp.MustCompile(`/products/([a-z0-9-]+)`)
	modelNumberRegex   = regexp.MustCompile(`^(L\d{8})`)
	htmlTagRegex       = regexp.MustCompile(`<[^>]*>`)
)

// CatalogProduct 官网目录中的一件商品
type CatalogProduct struct {
	Handle        string
	Name          string
	ModelNumber   string
	ImageURL      string
	OfficialURL   string
	Category      string
	Gender        string
	Description   string
	OfficialPrice *float64
	Colors        []string
	Sizes         []string
	Variants      []model.ProductVariant
	InStock       bool
}

// CatalogResult 一次目录抓取的结果
type CatalogResult struct {
	Products []CatalogProduct
	Failed   []string // 抓取失败的 handle
}

// CatalogSource 目录数据来源，便于测试替换
type CatalogSource interface {
	FetchCatalog(ctx context.Context) (*CatalogResult, error)
}

// shopifyProductResponse {handle}.json 的结构
type shopifyProductResponse struct {
	Product shopifyProduct `json:"product"`
}

type shopifyProduct struct {
	Title    string           `json:"title"`
	BodyHTML string           `json:"body_html"`
	Variants []shopifyVariant `json:"variants"`
	Options  []shopifyOption  `json:"options"`
	Images   []shopifyImage   `json:"images"`
}

type shopifyVariant struct {
	ID      int64  `json:"id"`
	SKU     string `json:"sku"`
	Price   string `json:"price"`
	Option1 string `json:"option1"` // 颜色
	Option2 string `json:"option2"` // 尺码
	Barcode string `json:"barcode"`
	// inventory_quantity 字段官网不回传，依赖 available
	Available bool `json:"available"`
}

type shopifyOption struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

type shopifyImage struct {
	Src string `json:"src"`
}

// CatalogCollection 待抓取的 collection 及其性别标签
type CatalogCollection struct {
	Handle string
	Gender string
}

// SalomonCatalogService 抓取 Salomon 日本官网（Shopify）的鞋款目录
// Collections 按声明顺序处理，重复 handle 归入先出现的 collection，
// 保证多次抓取结果一致
type SalomonCatalogService struct {
	BaseURL     string
	Collections []CatalogCollection
	FetchDelay  time.Duration
	client      *resty.Client
	retry       *RetryPolicy
}

// NewSalomonCatalogService 创建目录抓取服务
func NewSalomonCatalogService() *SalomonCatalogService {
	return &SalomonCatalogService{
		BaseURL: defaultSalomonBaseURL,
		Collections: []CatalogCollection{
			{Handle: "men-shoes-trail-running", Gender: "men"},
			{Handle: "women-shoes-trail-running", Gender: "women"},
		},
		FetchDelay: 500 * time.Millisecond,
		client:     utils.NewHTTPClient(30 * time.Second),
		retry:      &RetryPolicy{MaxAttempts: 3, BaseDelay: 2 * time.Second},
	}
}

// FetchCatalog 抓取全部 collection 的商品详情
// 单个商品失败只记入 Failed，不中断整体
func (s *SalomonCatalogService) FetchCatalog(ctx context.Context) (*CatalogResult, error) {
	result := &CatalogResult{}
	seen := make(map[string]bool)

	for _, collection := range s.Collections {
		handles, err := s.fetchCollectionHandles(ctx, collection.Handle)
		if err != nil {
			return nil, fmt.Errorf("抓取 collection %s 失败: %w", collection.Handle, err)
		}
		log.Printf("[SalomonCatalog] collection=%s 发现 %d 个商品", collection.Handle, len(handles))

		for _, handle := range handles {
			if seen[handle] {
				continue
			}
			seen[handle] = true

			product, err := s.fetchProduct(ctx, handle)
			if err != nil {
				log.Printf("[SalomonCatalog] 抓取商品 %s 失败: %v", handle, err)
				result.Failed = append(result.Failed, handle)
				continue
			}
			product.Gender = collection.Gender
			product.Category = "trail-running"
			result.Products = append(result.Products, *product)

			// 官网限速
			select {
			case <-time.After(s.FetchDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return result, nil
}

// fetchCollectionHandles 从 collection 页面 HTML 提取商品 handle
func (s *SalomonCatalogService) fetchCollectionHandles(ctx context.Context, collection string) ([]string, error) {
	pageURL := fmt.Sprintf("%s/collections/%s", s.BaseURL, collection)

	var html string
	err := s.retry.Do(ctx, func() error {
		resp, err := s.client.R().SetContext(ctx).Get(pageURL)
		if err != nil {
			return fmt.Errorf("请求失败: %w", err)
		}
		if resp.StatusCode() == 404 {
			return Permanent(fmt.Errorf("collection 不存在: %s", collection))
		}
		if resp.StatusCode() != 200 {
			return fmt.Errorf("官网返回 %d", resp.StatusCode())
		}
		html = resp.String()
		return nil
	})
	if err != nil {
		return nil, err
	}

	matches := productHandleRegex.FindAllStringSubmatch(html, -1)
	var handles []string
	seen := make(map[string]bool)
	for _, m := range matches {
		if !seen[m[1]] {
			seen[m[1]] = true
			handles = append(handles, m[1])
		}
	}
	return handles, nil
}

// fetchProduct 抓取 {handle}.json 并转换为目录商品
func (s *SalomonCatalogService) fetchProduct(ctx context.Context, handle string) (*CatalogProduct, error) {
	productURL := fmt.Sprintf("%s/products/%s.json", s.BaseURL, handle)

	var productResp shopifyProductResponse
	err := s.retry.Do(ctx, func() error {
		resp, err := s.client.R().
			SetContext(ctx).
			SetResult(&productResp).
			Get(productURL)
		if err != nil {
			return fmt.Errorf("请求失败: %w", err)
		}
		if resp.StatusCode() == 404 {
			return Permanent(fmt.Errorf("商品不存在: %s", handle))
		}
		if resp.StatusCode() != 200 {
			return fmt.Errorf("官网返回 %d", resp.StatusCode())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.toCatalogProduct(handle, &productResp.Product)
}

// toCatalogProduct 把 Shopify 商品结构转换为目录商品
func (s *SalomonCatalogService) toCatalogProduct(handle string, p *shopifyProduct) (*CatalogProduct, error) {
	if len(p.Variants) == 0 {
		return nil, fmt.Errorf("商品 %s 没有 variant", handle)
	}

	// 型号优先取有货 variant 的 SKU，都没货时取首个命中的 SKU
	var modelNumber string
	for _, v := range p.Variants {
		if !v.Available {
			continue
		}
		if m := modelNumberRegex.FindStringSubmatch(v.SKU); m != nil {
			modelNumber = m[1]
			break
		}
	}
	if modelNumber == "" {
		for _, v := range p.Variants {
			if m := modelNumberRegex.FindStringSubmatch(v.SKU); m != nil {
				modelNumber = m[1]
				break
			}
		}
	}
	if modelNumber == "" {
		// SKU 不含型号时退回 handle，保证同步仍有去重键
		modelNumber = handle
	}

	product := &CatalogProduct{
		Handle:      handle,
		Name:        p.Title,
		ModelNumber: modelNumber,
		OfficialURL: fmt.Sprintf("%s/products/%s", s.BaseURL, handle),
		Description: stripHTML(p.BodyHTML),
	}
	if len(p.Images) > 0 {
		product.ImageURL = p.Images[0].Src
	}

	colorSet := make(map[string]bool)
	sizeSet := make(map[string]bool)
	for _, v := range p.Variants {
		variant := model.ProductVariant{
			ID:        v.ID,
			SKU:       v.SKU,
			Color:     v.Option1,
			Size:      v.Option2,
			Available: v.Available,
			Barcode:   v.Barcode,
		}
		if price, err := strconv.ParseFloat(v.Price, 64); err == nil {
			variant.Price = price
			if product.OfficialPrice == nil {
				p := price
				product.OfficialPrice = &p
			}
		}
		if v.Available {
			product.InStock = true
		}
		if v.Option1 != "" && !colorSet[v.Option1] {
			colorSet[v.Option1] = true
			product.Colors = append(product.Colors, v.Option1)
		}
		if v.Option2 != "" && !sizeSet[v.Option2] {
			sizeSet[v.Option2] = true
			product.Sizes = append(product.Sizes, v.Option2)
		}
		product.Variants = append(product.Variants, variant)
	}
	return product, nil
}

// stripHTML 去掉标签、还原实体并合并空白
func stripHTML(raw string) string {
	text := htmlTagRegex.ReplaceAllString(raw, " ")
	text = html.UnescapeString(text)
	return strings.Join(strings.Fields(text), " ")
}
