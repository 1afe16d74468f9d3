package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"price_compare_v1_202609/internal/model"
	"price_compare_v1_202609/internal/repository"
)

// ==================== 目录同步 ====================

// SyncSummary 一次目录同步的汇总
type SyncSummary struct {
	Total    int              `json:"total"`
	New      int              `json:"new"`
	Updated  int              `json:"updated"`
	Failed   int              `json:"failed"`
	Results  []SyncItemResult `json:"results"`
	Duration string           `json:"duration"`
}

// SyncItemResult 单个商品的同步结果
type SyncItemResult struct {
	ModelNumber string `json:"modelNumber"`
	Name        string `json:"name"`
	Action      string `json:"action"` // created / updated / failed
	Error       string `json:"error,omitempty"`
}

// CatalogSyncService 把官网目录同步进商品库
type CatalogSyncService struct {
	productRepo repository.ProductRepository
	catalog     CatalogSource
	storage     StorageProvider // 可为 nil，镜像失败不影响同步
	brand       string
}

// NewCatalogSyncService 创建目录同步服务
func NewCatalogSyncService(productRepo repository.ProductRepository, catalog CatalogSource, storage StorageProvider) *CatalogSyncService {
	return &CatalogSyncService{
		productRepo: productRepo,
		catalog:     catalog,
		storage:     storage,
		brand:       "Salomon",
	}
}

// SyncOnce 抓取目录并按型号 upsert 商品
// 已存在商品保留 ImageURL（比价任务会采图）与 CreatedAt
func (s *CatalogSyncService) SyncOnce(ctx context.Context) (*SyncSummary, error) {
	start := time.Now()

	catalog, err := s.catalog.FetchCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("抓取目录失败: %w", err)
	}

	summary := &SyncSummary{Total: len(catalog.Products) + len(catalog.Failed)}
	for _, handle := range catalog.Failed {
		summary.Failed++
		summary.Results = append(summary.Results, SyncItemResult{
			Name:   handle,
			Action: "failed",
			Error:  "目录抓取失败",
		})
	}

	for _, cp := range catalog.Products {
		result := s.upsertProduct(ctx, &cp)
		switch result.Action {
		case "created":
			summary.New++
		case "updated":
			summary.Updated++
		default:
			summary.Failed++
		}
		summary.Results = append(summary.Results, result)
	}

	summary.Duration = time.Since(start).String()
	log.Printf("[CatalogSync] 完成: total=%d new=%d updated=%d failed=%d duration=%s",
		summary.Total, summary.New, summary.Updated, summary.Failed, summary.Duration)
	return summary, nil
}

// upsertProduct 按型号合并单个商品
func (s *CatalogSyncService) upsertProduct(ctx context.Context, cp *CatalogProduct) SyncItemResult {
	result := SyncItemResult{ModelNumber: cp.ModelNumber, Name: cp.Name}

	existing, err := s.productRepo.FindByModelNumber(ctx, cp.ModelNumber)
	if err != nil {
		result.Action = "failed"
		result.Error = err.Error()
		return result
	}

	now := time.Now().UTC().Format(time.RFC3339)
	inStock := cp.InStock

	var product *model.Product
	if existing != nil {
		product = existing
		product.Name = cp.Name
		product.OfficialURL = cp.OfficialURL
		product.Category = cp.Category
		product.Gender = cp.Gender
		product.Description = cp.Description
		product.OfficialPrice = cp.OfficialPrice
		product.Colors = cp.Colors
		product.Sizes = cp.Sizes
		product.Variants = cp.Variants
		product.InStock = &inStock
		product.UpdatedAt = now
		result.Action = "updated"

		// 已有图保留；缺图时补目录图
		if product.ImageURL == "" && cp.ImageURL != "" {
			product.ImageURL = s.mirrorImage(ctx, cp)
		}
	} else {
		product = &model.Product{
			ID:            uuid.New().String(),
			Name:          cp.Name,
			ModelNumber:   cp.ModelNumber,
			Brand:         s.brand,
			ImageURL:      cp.ImageURL,
			OfficialURL:   cp.OfficialURL,
			Category:      cp.Category,
			Gender:        cp.Gender,
			Description:   cp.Description,
			OfficialPrice: cp.OfficialPrice,
			Colors:        cp.Colors,
			Sizes:         cp.Sizes,
			Variants:      cp.Variants,
			InStock:       &inStock,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		result.Action = "created"

		if cp.ImageURL != "" {
			product.ImageURL = s.mirrorImage(ctx, cp)
		}
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		result.Action = "failed"
		result.Error = err.Error()
	}
	return result
}

// mirrorImage 镜像官网图，未配置存储或失败时降级为外链
func (s *CatalogSyncService) mirrorImage(ctx context.Context, cp *CatalogProduct) string {
	if s.storage == nil {
		return cp.ImageURL
	}
	mirrored, err := s.storage.UploadFromURL(ctx, cp.ImageURL, cp.ModelNumber+".jpg")
	if err != nil {
		log.Printf("[CatalogSync] 镜像图片失败 model=%s: %v", cp.ModelNumber, err)
		return cp.ImageURL
	}
	return mirrored
}
