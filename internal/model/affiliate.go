package model

// AffiliateConfig 平台联盟（返利）配置
// 以 Platform 为身份，存放在单表的 CONFIG 分区
// IsActive 为 false 的配置在生成联盟链接时视为不存在
type AffiliateConfig struct {
	Platform    Platform `json:"platform"`
	AffiliateID string   `json:"affiliateId"`
	TrackingTag string   `json:"trackingTag,omitempty"`
	IsActive    bool     `json:"isActive"`
}
