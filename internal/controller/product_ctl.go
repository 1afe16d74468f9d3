package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"price_compare_v1_202609/internal/model"
	"price_compare_v1_202609/internal/repository"
	"price_compare_v1_202609/internal/service"
)

// ==================== 错误响应 ====================

// ErrorBody 统一错误响应体
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// errorJSON 按 {error:{code,message}} 结构返回错误
func errorJSON(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"error": ErrorBody{Code: code, Message: message}})
}

// ==================== ProductController 商品接口 ====================

const defaultProductLimit = 200

type ProductController struct {
	productRepo      repository.ProductRepository
	priceRepo        repository.PriceRepository
	affiliateService *service.AffiliateConfigService
}

func NewProductController(
	productRepo repository.ProductRepository,
	priceRepo repository.PriceRepository,
	affiliateService *service.AffiliateConfigService,
) *ProductController {
	return &ProductController{
		productRepo:      productRepo,
		priceRepo:        priceRepo,
		affiliateService: affiliateService,
	}
}

// GetProducts
// @Summary 商品列表
// @Description 分页返回商品，支持按品牌/品类过滤
// @Tags Products (商品模块)
// @Produce json
// @Param brand query string false "品牌过滤"
// @Param category query string false "品类过滤"
// @Param limit query int false "每页数量 (默认200)"
// @Param nextToken query string false "分页游标"
// @Success 200 {object} map[string]interface{} "商品列表"
// @Failure 400 {object} map[string]interface{} "游标无效"
// @Router /products [get]
func (ctrl *ProductController) GetProducts(c *gin.Context) {
	limit := defaultProductLimit
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	cursor := c.Query("nextToken")

	var (
		products []model.Product
		next     string
		err      error
	)
	ctx := c.Request.Context()
	if brand := c.Query("brand"); brand != "" {
		products, next, err = ctrl.productRepo.FindByBrand(ctx, brand, limit, cursor)
	} else {
		products, next, err = ctrl.productRepo.FindAll(ctx, limit, cursor)
	}
	if err != nil {
		if errors.Is(err, repository.ErrInvalidCursor) {
			errorJSON(c, http.StatusBadRequest, "INVALID_TOKEN", "分页游标无效")
			return
		}
		errorJSON(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}

	// 品类在载荷内，过滤放在内存做
	if category := c.Query("category"); category != "" {
		filtered := make([]model.Product, 0, len(products))
		for _, p := range products {
			if p.Category == category {
				filtered = append(filtered, p)
			}
		}
		products = filtered
	}

	resp := gin.H{"products": products, "count": len(products)}
	if next != "" {
		resp["nextToken"] = next
	}
	c.JSON(http.StatusOK, resp)
}

// GetProduct
// @Summary 商品详情
// @Tags Products (商品模块)
// @Produce json
// @Param productId path string true "商品 ID"
// @Success 200 {object} map[string]interface{} "商品"
// @Failure 404 {object} map[string]interface{} "商品不存在"
// @Router /products/{productId} [get]
func (ctrl *ProductController) GetProduct(c *gin.Context) {
	productID := c.Param("productId")

	product, err := ctrl.productRepo.FindByID(c.Request.Context(), productID)
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	if product == nil {
		errorJSON(c, http.StatusNotFound, "PRODUCT_NOT_FOUND", "商品不存在")
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

// GetPrices
// @Summary 商品各平台价格
// @Description 返回商品在各平台的最新价格，链接已附加联盟参数
// @Tags Products (商品模块)
// @Produce json
// @Param productId path string true "商品 ID"
// @Success 200 {object} map[string]interface{} "价格列表"
// @Failure 404 {object} map[string]interface{} "商品不存在"
// @Router /products/{productId}/prices [get]
func (ctrl *ProductController) GetPrices(c *gin.Context) {
	productID := c.Param("productId")
	ctx := c.Request.Context()

	product, err := ctrl.productRepo.FindByID(ctx, productID)
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	if product == nil {
		errorJSON(c, http.StatusNotFound, "PRODUCT_NOT_FOUND", "商品不存在")
		return
	}

	prices, err := ctrl.priceRepo.FindByProduct(ctx, productID)
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}

	type priceView struct {
		model.Price
		AffiliateURL string `json:"affiliateUrl,omitempty"`
	}

	views := make([]priceView, 0, len(prices))
	lastUpdated := ""
	for _, p := range prices {
		view := priceView{Price: p}
		if p.ProductURL != "" {
			view.AffiliateURL = ctrl.affiliateService.DecorateURL(ctx, p.Platform, p.ProductURL)
		}
		// RFC3339 可按字典序取最大
		if p.LastUpdated > lastUpdated {
			lastUpdated = p.LastUpdated
		}
		views = append(views, view)
	}

	resp := gin.H{
		"productId": productID,
		"prices":    views,
	}
	if lastUpdated != "" {
		resp["lastUpdated"] = lastUpdated
	}
	c.JSON(http.StatusOK, resp)
}
