package domain

import "time"

// LinkClick представляет исходящий клик по партнерской ссылке.
type LinkClick struct {
	ID         int64     `gorm:"primaryKey;column:id" json:"id"`
	LinkID     int64     `gorm:"column:link_id;not null;index" json:"link_id"`
	IPAddress  *string   `gorm:"column:ip_address;size:45" json:"ip_address,omitempty"`
	UserAgent  *string   `gorm:"column:user_agent;type:text" json:"user_agent,omitempty"`
	Referer    *string   `gorm:"column:referer;size:500" json:"referer,omitempty"`
	DeviceType *string   `gorm:"column:device_type;size:10" json:"device_type,omitempty"` // 'desktop', 'mobile', 'tablet', 'bot'
	ClickedAt  time.Time `gorm:"column:clicked_at;autoCreateTime;index" json:"clicked_at"`

	// Relationships
	Link *AffiliateLink `gorm:"foreignKey:LinkID" json:"link,omitempty"`
}

// TableName возвращает название таблицы для GORM
func (LinkClick) TableName() string {
	return "link_clicks"
}

// GetDeviceType возвращает тип устройства для статистики
func (c *LinkClick) GetDeviceType() string {
	if c.DeviceType != nil {
		return *c.DeviceType
	}
	return "unknown"
}
