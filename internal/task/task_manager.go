package task

import (
	"log"

	"price_compare_v1_202609/internal/repository"
	"price_compare_v1_202609/internal/service"
)

// ==================== TaskManager 定时任务管理器 ====================

// TaskManager 统一管理价格更新与目录同步的定时任务
type TaskManager struct {
	priceTask *PriceUpdateTask
	syncTask  *CatalogSyncTask
}

// TaskManagerDeps 任务管理器依赖
type TaskManagerDeps struct {
	ProductRepo repository.ProductRepository
	PriceRepo   repository.PriceRepository
	Registry    *service.PriceFetcherRegistry
	SyncService *service.CatalogSyncService
}

// TaskManagerConfig 任务管理器配置
type TaskManagerConfig struct {
	PriceEnabled bool
	SyncEnabled  bool
}

// DefaultConfig 默认配置
func DefaultConfig() *TaskManagerConfig {
	return &TaskManagerConfig{
		PriceEnabled: true,
		SyncEnabled:  true,
	}
}

// NewTaskManager 创建任务管理器
func NewTaskManager(deps *TaskManagerDeps, cfg *TaskManagerConfig) *TaskManager {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	tm := &TaskManager{}

	if cfg.PriceEnabled && deps.Registry != nil {
		tm.priceTask = NewPriceUpdateTask(deps.ProductRepo, deps.PriceRepo, deps.Registry)
	}
	if cfg.SyncEnabled && deps.SyncService != nil {
		tm.syncTask = NewCatalogSyncTask(deps.SyncService)
	}

	return tm
}

// StartAll 启动全部任务
func (tm *TaskManager) StartAll() {
	if tm.priceTask != nil {
		tm.priceTask.Start()
	}
	if tm.syncTask != nil {
		tm.syncTask.Start()
	}
	log.Println("[TaskManager] 定时任务已启动")
}

// StopAll 停止全部任务
func (tm *TaskManager) StopAll() {
	if tm.priceTask != nil {
		tm.priceTask.Stop()
	}
	if tm.syncTask != nil {
		tm.syncTask.Stop()
	}
	log.Println("[TaskManager] 定时任务已停止")
}

// PriceTask 价格更新任务（手动触发用）
func (tm *TaskManager) PriceTask() *PriceUpdateTask {
	return tm.priceTask
}

// SyncTask 目录同步任务（手动触发用）
func (tm *TaskManager) SyncTask() *CatalogSyncTask {
	return tm.syncTask
}
