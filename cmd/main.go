package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"price_compare_v1_202609/internal/controller"
	"price_compare_v1_202609/internal/model"
	"price_compare_v1_202609/internal/repository"
	"price_compare_v1_202609/internal/router"
	"price_compare_v1_202609/internal/service"
	"price_compare_v1_202609/internal/task"
	"price_compare_v1_202609/pkg/database"
)

// @title Salomon 比价服务 API
// @version 1.0
// @description Salomon 越野跑鞋多平台比价后端
// @BasePath /
func main() {
	// 1. 初始化数据库
	db := initDatabase()

	// 2. 初始化依赖
	deps := initDependencies(db)

	// 3. 启动定时任务
	deps.TaskManager.StartAll()
	defer deps.TaskManager.StopAll()

	// 4. 初始化路由
	r := gin.Default()
	router.InitRoutes(r, deps.Controllers.Product, deps.Controllers.Admin)

	// 5. 启动服务
	startServer(r)
}

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	DB          *gorm.DB
	Repos       *Repositories
	Services    *Services
	Controllers *Controllers
	TaskManager *task.TaskManager
}

// Repositories 仓库集合
type Repositories struct {
	Items     repository.ItemStore
	Product   repository.ProductRepository
	Price     repository.PriceRepository
	Affiliate repository.AffiliateConfigRepository
}

// Services 服务集合
type Services struct {
	Registry  *service.PriceFetcherRegistry
	Affiliate *service.AffiliateConfigService
	Catalog   *service.SalomonCatalogService
	Sync      *service.CatalogSyncService
	Storage   service.StorageProvider
}

// Controllers 控制器集合
type Controllers struct {
	Product *controller.ProductController
	Admin   *controller.AdminController
}

// ==================== 初始化函数 ====================

// initDatabase 初始化数据库
func initDatabase() *gorm.DB {
	dsn := getEnv("DB_DSN", "host=localhost user=postgres password=postgres dbname=price_compare port=5432 sslmode=disable")
	return database.InitDB(dsn, &model.TableItem{})
}

// initDependencies 初始化所有依赖
func initDependencies(db *gorm.DB) *Dependencies {
	// -------- Repo 层 --------
	items := repository.NewItemStore(db)
	repos := &Repositories{
		Items:     items,
		Product:   repository.NewProductRepository(items),
		Price:     repository.NewPriceRepository(items),
		Affiliate: repository.NewAffiliateConfigRepository(items),
	}

	// -------- 平台抓取器 --------
	registry := service.NewPriceFetcherRegistry()
	registry.Register(service.NewAmazonService(service.AmazonConfig{
		AccessKey:  getEnv("AMAZON_PAAPI_ACCESS_KEY", ""),
		SecretKey:  getEnv("AMAZON_PAAPI_SECRET_KEY", ""),
		PartnerTag: getEnv("AMAZON_PAAPI_PARTNER_TAG", ""),
	}))
	registry.Register(service.NewRakutenService(service.RakutenConfig{
		ApplicationID: getEnv("RAKUTEN_APPLICATION_ID", ""),
		AffiliateID:   getEnv("RAKUTEN_AFFILIATE_ID", ""),
	}))
	registry.Register(service.NewYodobashiService())
	registry.Register(service.NewMercariService())

	// -------- 业务服务 --------
	storage := initStorage()
	catalogSvc := service.NewSalomonCatalogService()
	services := &Services{
		Registry:  registry,
		Affiliate: service.NewAffiliateConfigService(repos.Affiliate),
		Catalog:   catalogSvc,
		Sync:      service.NewCatalogSyncService(repos.Product, catalogSvc, storage),
		Storage:   storage,
	}

	// -------- 定时任务 --------
	taskManager := task.NewTaskManager(&task.TaskManagerDeps{
		ProductRepo: repos.Product,
		PriceRepo:   repos.Price,
		Registry:    registry,
		SyncService: services.Sync,
	}, &task.TaskManagerConfig{
		PriceEnabled: getEnv("PRICE_TASK_ENABLED", "true") == "true",
		SyncEnabled:  getEnv("SYNC_TASK_ENABLED", "true") == "true",
	})

	// -------- Controller 层 --------
	controllers := &Controllers{
		Product: controller.NewProductController(repos.Product, repos.Price, services.Affiliate),
		Admin:   controller.NewAdminController(taskManager),
	}

	return &Dependencies{
		DB:          db,
		Repos:       repos,
		Services:    services,
		Controllers: controllers,
		TaskManager: taskManager,
	}
}

// initStorage 初始化图片镜像存储，配置缺失时禁用
func initStorage() service.StorageProvider {
	bucket := getEnv("AWS_BUCKET", "")
	provider := getEnv("STORAGE_PROVIDER", "s3")
	if provider == "s3" && bucket == "" {
		log.Println("警告: 未配置 AWS_BUCKET，图片镜像已禁用")
		return nil
	}

	storage, err := service.NewStorageProvider(&service.StorageConfig{
		Provider:  provider,
		Bucket:    bucket,
		Region:    getEnv("AWS_REGION", "ap-northeast-1"),
		AccessKey: getEnv("AWS_ACCESS_KEY_ID", ""),
		SecretKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		CDNDomain: getEnv("AWS_CDN_DOMAIN", ""),
		BasePath:  getEnv("STORAGE_BASE_PATH", "price-compare"),
	})
	if err != nil {
		log.Printf("警告: 存储初始化失败，图片镜像已禁用: %v", err)
		return nil
	}
	return storage
}

// ==================== 服务启动 ====================

// startServer 启动服务
func startServer(r *gin.Engine) {
	port := getEnv("SERVER_PORT", "8080")

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	// 异步启动服务
	go func() {
		log.Printf("服务启动在 :%s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("服务启动失败: %v", err)
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("正在关闭服务...")

	// 优雅关闭
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("服务强制关闭: %v", err)
	}

	log.Println("服务已退出")
}

// ==================== 工具函数 ====================

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
