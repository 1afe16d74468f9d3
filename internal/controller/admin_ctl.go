package controller

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"price_compare_v1_202609/internal/task"
)

// ==================== AdminController 管理接口 ====================

// AdminController 手动触发后台任务
type AdminController struct {
	taskManager *task.TaskManager
}

func NewAdminController(taskManager *task.TaskManager) *AdminController {
	return &AdminController{taskManager: taskManager}
}

// TriggerPriceUpdate
// @Summary 手动触发价格更新
// @Description 异步执行一轮全量价格抓取，立即返回 triggerId
// @Tags Admin (管理模块)
// @Produce json
// @Success 202 {object} map[string]interface{} "已受理"
// @Failure 503 {object} map[string]interface{} "任务未启用"
// @Router /admin/update-prices [post]
func (ctrl *AdminController) TriggerPriceUpdate(c *gin.Context) {
	priceTask := ctrl.taskManager.PriceTask()
	if priceTask == nil {
		errorJSON(c, http.StatusServiceUnavailable, "TASK_DISABLED", "价格更新任务未启用")
		return
	}

	triggerID := uuid.New().String()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Hour)
		defer cancel()
		if _, err := priceTask.RunOnce(ctx, triggerID); err != nil {
			log.Printf("[AdminController] 手动价格更新失败 trigger=%s: %v", triggerID, err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"message":   "价格更新已开始",
		"triggerId": triggerID,
	})
}

// TriggerCatalogSync
// @Summary 手动触发目录同步
// @Description 异步抓取官网目录并入库，立即返回 triggerId
// @Tags Admin (管理模块)
// @Produce json
// @Success 202 {object} map[string]interface{} "已受理"
// @Failure 503 {object} map[string]interface{} "任务未启用"
// @Router /admin/sync [post]
func (ctrl *AdminController) TriggerCatalogSync(c *gin.Context) {
	syncTask := ctrl.taskManager.SyncTask()
	if syncTask == nil {
		errorJSON(c, http.StatusServiceUnavailable, "TASK_DISABLED", "目录同步任务未启用")
		return
	}

	triggerID := uuid.New().String()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 4*time.Hour)
		defer cancel()
		if _, err := syncTask.RunOnce(ctx); err != nil {
			log.Printf("[AdminController] 手动目录同步失败 trigger=%s: %v", triggerID, err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"message":   "目录同步已开始",
		"triggerId": triggerID,
	})
}
