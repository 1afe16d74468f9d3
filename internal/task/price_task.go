package task

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"price_compare_v1_202609/internal/model"
	"price_compare_v1_202609/internal/repository"
	"price_compare_v1_202609/internal/service"
)

// ==================== PriceUpdateTask 价格更新任务 ====================

// PlatformUpdateResult 单平台的更新结果
type PlatformUpdateResult struct {
	Success      bool     `json:"success"`
	Price        *float64 `json:"price,omitempty"`
	Availability string   `json:"availability"`
	Error        string   `json:"error,omitempty"`
}

// ProductUpdateResult 单商品的更新结果
type ProductUpdateResult struct {
	ProductID       string                                  `json:"productId"`
	ProductName     string                                  `json:"productName"`
	Success         bool                                    `json:"success"`
	PlatformResults map[model.Platform]PlatformUpdateResult `json:"platformResults"`
}

// UpdateSummary 一轮价格更新的汇总
type UpdateSummary struct {
	TriggerID          string                `json:"triggerId"`
	TotalProducts      int                   `json:"totalProducts"`
	SuccessfulProducts int                   `json:"successfulProducts"`
	FailedProducts     int                   `json:"failedProducts"`
	Results            []ProductUpdateResult `json:"results"`
	Duration           string                `json:"duration"`
}

// PriceUpdateTask 定时抓取各平台价格
// 策略：每 6 小时全量更新；商品间串行，商品内四平台并发
type PriceUpdateTask struct {
	productRepo repository.ProductRepository
	priceRepo   repository.PriceRepository
	registry    *service.PriceFetcherRegistry
	cron        *cron.Cron

	pageSize int
}

// NewPriceUpdateTask 创建价格更新任务
func NewPriceUpdateTask(
	productRepo repository.ProductRepository,
	priceRepo repository.PriceRepository,
	registry *service.PriceFetcherRegistry,
) *PriceUpdateTask {
	return &PriceUpdateTask{
		productRepo: productRepo,
		priceRepo:   priceRepo,
		registry:    registry,
		cron:        cron.New(cron.WithSeconds()),
		pageSize:    100,
	}
}

// Start 启动定时任务
func (t *PriceUpdateTask) Start() {
	// 每 6 小时整点执行
	_, _ = t.cron.AddFunc("0 0 */6 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Hour)
		defer cancel()
		if _, err := t.RunOnce(ctx, uuid.New().String()); err != nil {
			log.Printf("[PriceUpdateTask] 定时更新失败: %v", err)
		}
	})

	t.cron.Start()
	log.Println("[PriceUpdateTask] 已启动 (每6小时)")
}

// Stop 停止任务
func (t *PriceUpdateTask) Stop() {
	ctx := t.cron.Stop()
	<-ctx.Done()
	log.Println("[PriceUpdateTask] 已停止")
}

// RunOnce 执行一轮全量价格更新
// 单个商品失败不中断整轮
func (t *PriceUpdateTask) RunOnce(ctx context.Context, triggerID string) (*UpdateSummary, error) {
	start := time.Now()
	log.Printf("[PriceUpdateTask] 开始价格更新 trigger=%s", triggerID)

	summary := &UpdateSummary{TriggerID: triggerID}

	cursor := ""
	for {
		products, next, err := t.productRepo.FindAll(ctx, t.pageSize, cursor)
		if err != nil {
			return nil, err
		}

		for i := range products {
			select {
			case <-ctx.Done():
				log.Printf("[PriceUpdateTask] 任务超时停止 trigger=%s", triggerID)
				summary.Duration = time.Since(start).String()
				return summary, ctx.Err()
			default:
			}

			result := t.updateProduct(ctx, &products[i])
			summary.TotalProducts++
			if result.Success {
				summary.SuccessfulProducts++
			} else {
				summary.FailedProducts++
			}
			summary.Results = append(summary.Results, result)
		}

		if next == "" {
			break
		}
		cursor = next
	}

	summary.Duration = time.Since(start).String()
	log.Printf("[PriceUpdateTask] 完成 trigger=%s total=%d success=%d failed=%d duration=%s",
		triggerID, summary.TotalProducts, summary.SuccessfulProducts, summary.FailedProducts, summary.Duration)
	return summary, nil
}

// updateProduct 更新单个商品的全平台价格
func (t *PriceUpdateTask) updateProduct(ctx context.Context, product *model.Product) ProductUpdateResult {
	result := ProductUpdateResult{
		ProductID:       product.ID,
		ProductName:     product.Name,
		PlatformResults: make(map[model.Platform]PlatformUpdateResult),
	}

	fetched := t.registry.FetchAll(ctx, product.Name, product.ModelNumber)
	now := time.Now().UTC().Format(time.RFC3339)

	anySaved := false
	for platform, fr := range fetched {
		price := model.Price{
			ProductID:    product.ID,
			Platform:     platform,
			Price:        fr.Price,
			Availability: fr.Availability,
			ProductURL:   fr.ProductURL,
			LastUpdated:  now,
			LastChecked:  now,
			ErrorMessage: fr.ErrorMessage,
		}
		platformResult := PlatformUpdateResult{
			Price:        fr.Price,
			Availability: string(fr.Availability),
			Error:        fr.ErrorMessage,
		}

		if err := t.priceRepo.Save(ctx, &price); err != nil {
			log.Printf("[PriceUpdateTask] 保存价格失败 product=%s platform=%s: %v", product.ID, platform, err)
			platformResult.Error = err.Error()
		} else {
			platformResult.Success = fr.ErrorMessage == ""
			anySaved = true
		}
		result.PlatformResults[platform] = platformResult
	}

	// 商品缺图时顺带采用平台图 (Amazon 优先)
	t.adoptImage(ctx, product, fetched)

	result.Success = anySaved
	return result
}

// adoptImage 商品无图时采用抓取顺带返回的平台图片
func (t *PriceUpdateTask) adoptImage(ctx context.Context, product *model.Product, fetched map[model.Platform]service.PriceResult) {
	if product.ImageURL != "" {
		return
	}

	var imageURL string
	if r, ok := fetched[model.PlatformAmazon]; ok && r.ImageURL != "" {
		imageURL = r.ImageURL
	} else if r, ok := fetched[model.PlatformRakuten]; ok && r.ImageURL != "" {
		imageURL = r.ImageURL
	}
	if imageURL == "" {
		return
	}

	product.ImageURL = imageURL
	product.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	if err := t.productRepo.Save(ctx, product); err != nil {
		// 采图失败只记日志，价格已经落库
		log.Printf("[PriceUpdateTask] 采用平台图片失败 product=%s: %v", product.ID, err)
	}
}
