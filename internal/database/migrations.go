package database

import (
	"AffLink-Backend/internal/domain"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AutoMigrate выполняет автоматические миграции для всех доменных моделей
func AutoMigrate(db *gorm.DB, log *zap.Logger) error {
	log.Info("starting database auto-migration")

	// Порядок миграций важен из-за внешних ключей
	models := []interface{}{
		&domain.AffiliateSettings{}, // глобальная конфигурация
		&domain.Merchant{},          // мерчанты
		&domain.AffiliateLink{},     // ссылки (зависят от мерчантов)
		&domain.LinkClick{},         // клики (зависят от ссылок)
	}

	for i, model := range models {
		modelName := fmt.Sprintf("%T", model)
		log.Info("migrating model",
			zap.String("model", modelName),
			zap.Int("step", i+1),
			zap.Int("total", len(models)))

		if err := db.AutoMigrate(model); err != nil {
			log.Error("failed to migrate model",
				zap.String("model", modelName),
				zap.Error(err))
			return fmt.Errorf("failed to migrate model %s: %w", modelName, err)
		}
	}

	log.Info("database auto-migration completed successfully", zap.Int("migrated_models", len(models)))
	return nil
}

// SeedData заполняет базу данных стартовым набором мерчантов
func SeedData(db *gorm.DB, log *zap.Logger) error {
	log.Info("starting database seeding")

	// Проверяем, есть ли уже данные
	var count int64
	db.Model(&domain.Merchant{}).Count(&count)
	if count > 0 {
		log.Info("merchants already exist, skipping seeding", zap.Int64("existing_count", count))
		return nil
	}

	merchants := []domain.Merchant{
		{
			Name:         "Shopee",
			Domain:       "shopee.vn",
			Platform:     domain.PlatformShopee,
			CampaignID:   "",
			Description:  toStr("Shopee Vietnam marketplace"),
			DisplayOrder: 0,
			IsActive:     true,
		},
		{
			Name:         "Lazada",
			Domain:       "lazada.vn",
			Platform:     domain.PlatformLazada,
			CampaignID:   "",
			Description:  toStr("Lazada Vietnam marketplace"),
			DisplayOrder: 1,
			IsActive:     true,
		},
		{
			Name:         "Tiki",
			Domain:       "tiki.vn",
			Platform:     domain.PlatformTiki,
			CampaignID:   "",
			Description:  toStr("Tiki marketplace"),
			DisplayOrder: 2,
			IsActive:     true,
		},
		{
			Name:         "TikTok Shop",
			Domain:       "shop.tiktok.com",
			Platform:     domain.PlatformTikTokShop,
			CampaignID:   "",
			Description:  toStr("TikTok Shop"),
			DisplayOrder: 3,
			IsActive:     true,
		},
	}

	if err := db.Create(&merchants).Error; err != nil {
		log.Error("failed to seed merchants", zap.Error(err))
		return fmt.Errorf("failed to seed merchants: %w", err)
	}

	log.Info("database seeding completed successfully", zap.Int("merchants_created", len(merchants)))
	return nil
}

// toStr возвращает указатель на string - хелпер для nullable полей
func toStr(val string) *string {
	return &val
}
