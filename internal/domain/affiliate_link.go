package domain

import (
	"fmt"
	"strings"
	"time"
)

// GenerationMethod identifies the strategy that produced a link.
// Closed set: every variant has a registered generator or is recorded
// for historical rows only.
type GenerationMethod string

const (
	MethodAPI       GenerationMethod = "api"
	MethodDeeplink  GenerationMethod = "deeplink"
	MethodTikTokAPI GenerationMethod = "tiktok-api"
)

// Valid reports whether the method is a known strategy tag.
func (m GenerationMethod) Valid() bool {
	switch m {
	case MethodAPI, MethodDeeplink, MethodTikTokAPI:
		return true
	}
	return false
}

// LinkType distinguishes homepage links from product links.
type LinkType string

const (
	LinkTypeHomepage LinkType = "homepage"
	LinkTypeProduct  LinkType = "product"
)

// AffiliateLink представляет сгенерированную партнерскую ссылку.
type AffiliateLink struct {
	ID               int64            `gorm:"primaryKey;column:id" json:"id"`
	UserID           int64            `gorm:"column:user_id;not null;index" json:"user_id"`
	ReviewID         *int64           `gorm:"column:review_id;index" json:"review_id,omitempty"`
	MerchantID       int64            `gorm:"column:merchant_id;not null;index" json:"merchant_id"`
	OriginalURL      string           `gorm:"column:original_url;type:text;not null" json:"original_url"`
	AffiliateURL     string           `gorm:"column:affiliate_url;type:text;not null" json:"affiliate_url"`
	ShortURL         *string          `gorm:"column:short_url;size:500" json:"short_url,omitempty"`
	LinkType         LinkType         `gorm:"column:link_type;size:20;not null;default:'product'" json:"link_type"`
	GenerationMethod GenerationMethod `gorm:"column:generation_method;size:20;not null" json:"generation_method"`
	AffSid           string           `gorm:"column:aff_sid;size:100;not null" json:"aff_sid"`
	Label            *string          `gorm:"column:label;size:200" json:"label,omitempty"`
	DisplayOrder     int              `gorm:"column:display_order;not null;default:0" json:"display_order"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	// Relationships
	Merchant *Merchant `gorm:"foreignKey:MerchantID" json:"merchant,omitempty"`
}

// TableName возвращает название таблицы для GORM
func (AffiliateLink) TableName() string {
	return "affiliate_links"
}

// NewAffSid derives the opaque tracking identifier for one generation
// event. The millisecond timestamp salts it, so two generations for the
// same user/merchant pair at different instants never collide.
func NewAffSid(userID, merchantID int64, at time.Time) string {
	return fmt.Sprintf("%d_%d_%d", userID, merchantID, at.UnixMilli())
}

// NormalizeCampaignName converts a merchant name into the utm_campaign
// value used by both generation strategies: lowercased, spaces to hyphens.
func NormalizeCampaignName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "-")
}

// GenerateRequest is the orchestrator's input for one link creation.
type GenerateRequest struct {
	UserID      int64             `json:"user_id"`
	ReviewID    *int64            `json:"review_id,omitempty"`
	MerchantID  int64             `json:"merchant_id"`
	OriginalURL string            `json:"original_url"`
	LinkType    LinkType          `json:"link_type"`
	ContentType string            `json:"content_type"` // становится utm_content
	Label       *string           `json:"label,omitempty"`
	Method      *GenerationMethod `json:"method,omitempty"` // явный выбор стратегии, иначе по настройкам
}

// GenerateResult is what a generator returns; persistence is the
// orchestrator's job.
type GenerateResult struct {
	AffiliateURL     string
	ShortURL         *string
	AffSid           string
	GenerationMethod GenerationMethod
}

// LinkStats aggregates link counts for the admin dashboard.
type LinkStats struct {
	Total      int64            `json:"total"`
	ByMethod   map[string]int64 `json:"by_method"`
	ByMerchant map[string]int64 `json:"by_merchant"`
}
