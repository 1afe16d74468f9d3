package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"gorm.io/datatypes"
)

// ==================== 单表存储模型 ====================

// TableItem 单表设计（Single Table Design）的物理记录
// PK/SK 构成主键；GSI1PK/GSI1SK 构成二级索引，
// 支撑"按品牌查商品"和"按平台查价格（按更新时间排序）"两类查询
type TableItem struct {
	PK         string         `gorm:"primaryKey;size:255"`
	SK         string         `gorm:"primaryKey;size:255"`
	GSI1PK     string         `gorm:"index:idx_gsi1,priority:1;size:255"`
	GSI1SK     string         `gorm:"index:idx_gsi1,priority:2;size:255"`
	EntityType string         `gorm:"index;size:32;not null"`
	Data       datatypes.JSON `gorm:"not null"`
}

func (TableItem) TableName() string { return "items" }

// 实体类型（用于全表扫描时过滤）
const (
	EntityTypeProduct         = "product"
	EntityTypePrice           = "price"
	EntityTypeAffiliateConfig = "affiliateConfig"
)

// ==================== 键构造 ====================

const (
	productKeyPrefix  = "PRODUCT#"
	brandKeyPrefix    = "BRAND#"
	platformKeyPrefix = "PLATFORM#"
	updatedKeyPrefix  = "UPDATED#"

	// ProductMetaSK 商品主记录的排序键
	ProductMetaSK = "METADATA"
	// PriceSKPrefix 价格记录的排序键前缀（前缀查询取全部平台价格）
	PriceSKPrefix = "PRICE#"
	// ConfigPK 配置分区的分区键
	ConfigPK = "CONFIG"
	// AffiliateSKPrefix 联盟配置的排序键前缀
	AffiliateSKPrefix = "AFFILIATE#"
)

func ProductPK(productID string) string    { return productKeyPrefix + productID }
func BrandKey(brand string) string         { return brandKeyPrefix + brand }
func PriceSK(platform Platform) string     { return PriceSKPrefix + string(platform) }
func PlatformKey(platform Platform) string { return platformKeyPrefix + string(platform) }
func UpdatedKey(ts string) string          { return updatedKeyPrefix + ts }
func AffiliateSK(platform Platform) string { return AffiliateSKPrefix + string(platform) }

// ProductIDFromPK 从分区键还原商品 ID
func ProductIDFromPK(pk string) string {
	return strings.TrimPrefix(pk, productKeyPrefix)
}

// ==================== 实体映射 ====================

// ProductToItem 商品 -> 单表记录
func ProductToItem(p *Product) (*TableItem, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("序列化商品失败: %v", err)
	}
	return &TableItem{
		PK:         ProductPK(p.ID),
		SK:         ProductMetaSK,
		GSI1PK:     BrandKey(p.Brand),
		GSI1SK:     ProductPK(p.ID),
		EntityType: EntityTypeProduct,
		Data:       data,
	}, nil
}

// ItemToProduct 单表记录 -> 商品
func ItemToProduct(item *TableItem) (*Product, error) {
	var p Product
	if err := json.Unmarshal(item.Data, &p); err != nil {
		return nil, fmt.Errorf("反序列化商品失败: %v", err)
	}
	// 以 PK 为准还原 ID，兼容手工修过数据的记录
	if id := ProductIDFromPK(item.PK); id != "" {
		p.ID = id
	}
	return &p, nil
}

// PriceToItem 价格 -> 单表记录
// GSI1SK 携带 lastUpdated，平台维度查询天然按更新时间排序
func PriceToItem(p *Price) (*TableItem, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("序列化价格失败: %v", err)
	}
	return &TableItem{
		PK:         ProductPK(p.ProductID),
		SK:         PriceSK(p.Platform),
		GSI1PK:     PlatformKey(p.Platform),
		GSI1SK:     UpdatedKey(p.LastUpdated),
		EntityType: EntityTypePrice,
		Data:       data,
	}, nil
}

// ItemToPrice 单表记录 -> 价格
func ItemToPrice(item *TableItem) (*Price, error) {
	var p Price
	if err := json.Unmarshal(item.Data, &p); err != nil {
		return nil, fmt.Errorf("反序列化价格失败: %v", err)
	}
	if id := ProductIDFromPK(item.PK); id != "" {
		p.ProductID = id
	}
	return &p, nil
}

// AffiliateConfigToItem 联盟配置 -> 单表记录
func AffiliateConfigToItem(c *AffiliateConfig) (*TableItem, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("序列化联盟配置失败: %v", err)
	}
	return &TableItem{
		PK:         ConfigPK,
		SK:         AffiliateSK(c.Platform),
		EntityType: EntityTypeAffiliateConfig,
		Data:       data,
	}, nil
}

// ItemToAffiliateConfig 单表记录 -> 联盟配置
func ItemToAffiliateConfig(item *TableItem) (*AffiliateConfig, error) {
	var c AffiliateConfig
	if err := json.Unmarshal(item.Data, &c); err != nil {
		return nil, fmt.Errorf("反序列化联盟配置失败: %v", err)
	}
	return &c, nil
}
