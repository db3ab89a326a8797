package domain

import "time"

// Platform тип партнерской сети мерчанта.
type Platform string

const (
	PlatformAccessTrade Platform = "accesstrade"
	PlatformShopee      Platform = "shopee"
	PlatformLazada      Platform = "lazada"
	PlatformTiki        Platform = "tiki"
	PlatformTikTokShop  Platform = "tiktok-shop"
	PlatformOther       Platform = "other"
)

// Valid reports whether the platform is one of the supported networks.
func (p Platform) Valid() bool {
	switch p {
	case PlatformAccessTrade, PlatformShopee, PlatformLazada, PlatformTiki, PlatformTikTokShop, PlatformOther:
		return true
	}
	return false
}

// Merchant представляет партнерского мерчанта (бренд/магазин).
type Merchant struct {
	ID           int64    `gorm:"primaryKey;column:id" json:"id"`
	Name         string   `gorm:"column:name;size:200;not null" json:"name"`
	Domain       string   `gorm:"column:domain;size:200;not null;uniqueIndex" json:"domain"`
	Platform     Platform `gorm:"column:platform;size:50;not null" json:"platform"`
	CampaignID   string   `gorm:"column:campaign_id;size:100" json:"campaign_id"`
	DeepLinkBase *string  `gorm:"column:deep_link_base;size:500" json:"deep_link_base,omitempty"` // переопределяет глобальную базу
	LogoURL      *string  `gorm:"column:logo_url;size:500" json:"logo_url,omitempty"`
	Description  *string  `gorm:"column:description;type:text" json:"description,omitempty"`
	DisplayOrder int      `gorm:"column:display_order;not null;default:0" json:"display_order"`
	IsActive     bool     `gorm:"column:is_active;not null;default:true" json:"is_active"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	// Relationships
	Links []AffiliateLink `gorm:"foreignKey:MerchantID" json:"links,omitempty"`
}

// TableName возвращает название таблицы для GORM
func (Merchant) TableName() string {
	return "merchants"
}
