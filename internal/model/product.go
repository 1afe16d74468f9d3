package model

// ==================== 商品模型 ====================

// ProductVariant 可购买的规格组合（颜色 × 尺码）
type ProductVariant struct {
	ID        int64   `json:"id"`
	SKU       string  `json:"sku"`
	Color     string  `json:"color"`
	Size      string  `json:"size"`
	Price     float64 `json:"price"`
	Available bool    `json:"available"`
	Barcode   string  `json:"barcode"`
}

// Product 越野跑鞋商品
// ID 首次同步时生成，之后保持稳定；(ModelNumber, Brand) 为同步去重键
// 目录同步只做新建/更新，不删除（删除属于人工运维操作）
type Product struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	ModelNumber   string           `json:"modelNumber"`
	Brand         string           `json:"brand"`
	ImageURL      string           `json:"imageUrl"`
	OfficialURL   string           `json:"officialUrl"`
	Category      string           `json:"category"`
	Gender        string           `json:"gender,omitempty"` // men / women / unisex
	Description   string           `json:"description,omitempty"`
	OfficialPrice *float64         `json:"officialPrice,omitempty"`
	Colors        []string         `json:"colors,omitempty"`
	Sizes         []string         `json:"sizes,omitempty"`
	Variants      []ProductVariant `json:"variants,omitempty"`
	InStock       *bool            `json:"inStock,omitempty"`
	CreatedAt     string           `json:"createdAt"` // RFC3339
	UpdatedAt     string           `json:"updatedAt"` // RFC3339
}
