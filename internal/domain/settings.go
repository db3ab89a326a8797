package domain

import "time"

// LinkMode determines which generation strategy is preferred.
type LinkMode string

const (
	LinkModeAPI      LinkMode = "api"
	LinkModeDeeplink LinkMode = "deeplink"
)

// AffiliateSettings представляет глобальную конфигурацию партнерской сети.
// Единственная запись, создается лениво при первом обновлении.
type AffiliateSettings struct {
	ID              int64    `gorm:"primaryKey;column:id" json:"id"`
	APIToken        string   `gorm:"column:api_token;type:text" json:"-"` // скрываем токен в JSON
	APIURL          string   `gorm:"column:api_url;size:500" json:"api_url"`
	LinkMode        LinkMode `gorm:"column:link_mode;size:20;not null;default:'deeplink'" json:"link_mode"`
	PublisherID     string   `gorm:"column:publisher_id;type:text" json:"-"`
	DeeplinkBaseURL string   `gorm:"column:deeplink_base_url;size:500" json:"deeplink_base_url"`
	UTMSource       string   `gorm:"column:utm_source;size:100" json:"utm_source"`
	UTMCampaign     string   `gorm:"column:utm_campaign;size:100" json:"utm_campaign"`
	IsActive        bool     `gorm:"column:is_active;not null;default:true" json:"is_active"`

	// Результат последней проверки подключения (не влияет на готовность)
	LastTestedAt *time.Time `gorm:"column:last_tested_at" json:"last_tested_at,omitempty"`
	TestStatus   *string    `gorm:"column:test_status;size:20" json:"test_status,omitempty"`
	TestMessage  *string    `gorm:"column:test_message;size:500" json:"test_message,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName возвращает название таблицы для GORM
func (AffiliateSettings) TableName() string {
	return "affiliate_settings"
}

// ConnectionTestResult is the outcome of a provider connectivity probe.
// Persisting it is a separate, explicit step.
type ConnectionTestResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

const (
	TestStatusOK     = "ok"
	TestStatusFailed = "failed"
)
