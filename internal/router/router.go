package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"price_compare_v1_202609/internal/controller"
	"price_compare_v1_202609/internal/middleware"
)

// InitRoutes 注册所有路由
func InitRoutes(r *gin.Engine, productCtrl *controller.ProductController, adminCtrl *controller.AdminController) {
	r.Use(middleware.CORS())

	// Swagger 文档路由
	// 访问 http://localhost:8080/swagger/index.html 即可查看
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 健康检查
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 比价查询接口
	r.GET("/products", productCtrl.GetProducts)
	r.GET("/products/:productId", productCtrl.GetProduct)
	r.GET("/products/:productId/prices", productCtrl.GetPrices)

	// 管理接口：手动触发后台任务，带冷却限流
	limiter := middleware.NewTriggerRateLimiter()
	admin := r.Group("/admin")
	{
		admin.POST("/update-prices",
			middleware.TriggerRateLimit(limiter, middleware.TriggerTypePrice, 0),
			adminCtrl.TriggerPriceUpdate,
		)
		admin.POST("/sync",
			middleware.TriggerRateLimit(limiter, middleware.TriggerTypeCatalog, 0),
			adminCtrl.TriggerCatalogSync,
		)
	}
}
