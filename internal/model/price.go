package model

// ==================== 平台定义 ====================

// Platform 聚合比价的电商平台标识
type Platform string

const (
	PlatformAmazon    Platform = "amazon"
	PlatformRakuten   Platform = "rakuten"
	PlatformYodobashi Platform = "yodobashi"
	PlatformMercari   Platform = "mercari"
)

// AllPlatforms 返回固定的平台列表
// 聚合任务与 API 展示均按此顺序展开
func AllPlatforms() []Platform {
	return []Platform{PlatformAmazon, PlatformRakuten, PlatformYodobashi, PlatformMercari}
}

// ==================== 库存状态 ====================

// PriceAvailability 三态库存状态
// not_found 同时覆盖"平台无此商品"和"匹配打分未通过"两种情况
type PriceAvailability string

const (
	AvailabilityInStock    PriceAvailability = "in_stock"
	AvailabilityOutOfStock PriceAvailability = "out_of_stock"
	AvailabilityNotFound   PriceAvailability = "not_found"
)

// ==================== 价格记录 ====================

// Price 单个商品在单个平台上的价格快照
// 以 (ProductID, Platform) 为身份，每轮聚合整条覆盖，不做版本化
// Price 为 nil 表示当前不可购买（前端按"无货"渲染，不是错误）
type Price struct {
	ProductID    string            `json:"productId"`
	Platform     Platform          `json:"platform"`
	Price        *float64          `json:"price"`
	Availability PriceAvailability `json:"availability"`
	ProductURL   string            `json:"productUrl"`
	LastUpdated  string            `json:"lastUpdated"` // RFC3339，平台侧状态最后变化时间
	LastChecked  string            `json:"lastChecked"` // RFC3339，最后一次探测时间
	ErrorMessage string            `json:"errorMessage,omitempty"`
}
