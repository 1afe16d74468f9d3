package task

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"price_compare_v1_202609/internal/service"
)

// ==================== CatalogSyncTask 目录同步任务 ====================

// CatalogSyncTask 每日同步官网商品目录
type CatalogSyncTask struct {
	syncService *service.CatalogSyncService
	cron        *cron.Cron
}

// NewCatalogSyncTask 创建目录同步任务
func NewCatalogSyncTask(syncService *service.CatalogSyncService) *CatalogSyncTask {
	return &CatalogSyncTask{
		syncService: syncService,
		cron:        cron.New(cron.WithSeconds()),
	}
}

// Start 启动定时任务
func (t *CatalogSyncTask) Start() {
	// 每日凌晨 3 点全量同步
	_, _ = t.cron.AddFunc("0 0 3 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 4*time.Hour)
		defer cancel()
		if _, err := t.syncService.SyncOnce(ctx); err != nil {
			log.Printf("[CatalogSyncTask] 每日同步失败: %v", err)
		}
	})

	t.cron.Start()
	log.Println("[CatalogSyncTask] 已启动 (每日3点)")
}

// Stop 停止任务
func (t *CatalogSyncTask) Stop() {
	ctx := t.cron.Stop()
	<-ctx.Done()
	log.Println("[CatalogSyncTask] 已停止")
}

// RunOnce 手动触发一次同步
func (t *CatalogSyncTask) RunOnce(ctx context.Context) (*service.SyncSummary, error) {
	return t.syncService.SyncOnce(ctx)
}
