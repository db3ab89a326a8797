package postgres

import (
	"AffLink-Backend/internal/domain"
	"AffLink-Backend/internal/repository"
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PostgresStorage реализует интерфейс Storage поверх GORM.
// Работает и с PostgreSQL, и с SQLite (локальная разработка).
type PostgresStorage struct {
	db  *gorm.DB
	log *zap.Logger
}

// New создает новый экземпляр storage
func New(db *gorm.DB, log *zap.Logger) *PostgresStorage {
	return &PostgresStorage{
		db:  db,
		log: log,
	}
}

// --- Settings Methods ---

// GetAffiliateSettings возвращает единственную запись настроек
func (s *PostgresStorage) GetAffiliateSettings(ctx context.Context) (*domain.AffiliateSettings, error) {
	var settings domain.AffiliateSettings

	err := s.db.WithContext(ctx).Order("id ASC").First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrSettingsNotFound
	}
	if err != nil {
		s.log.Error("failed to get affiliate settings", zap.Error(err))
		return nil, fmt.Errorf("failed to get affiliate settings: %w", err)
	}

	return &settings, nil
}

// SaveAffiliateSettings создает или обновляет запись настроек
func (s *PostgresStorage) SaveAffiliateSettings(ctx context.Context, settings *domain.AffiliateSettings) error {
	if err := s.db.WithContext(ctx).Save(settings).Error; err != nil {
		s.log.Error("failed to save affiliate settings", zap.Error(err))
		return fmt.Errorf("failed to save affiliate settings: %w", err)
	}

	s.log.Info("saved affiliate settings", zap.Int64("settings_id", settings.ID))
	return nil
}

// --- Merchant Methods ---

// CreateMerchant сохраняет нового мерчанта
func (s *PostgresStorage) CreateMerchant(ctx context.Context, merchant *domain.Merchant) error {
	if err := s.db.WithContext(ctx).Create(merchant).Error; err != nil {
		s.log.Error("failed to create merchant", zap.String("domain", merchant.Domain), zap.Error(err))
		return fmt.Errorf("failed to create merchant: %w", err)
	}

	s.log.Info("created merchant", zap.Int64("merchant_id", merchant.ID), zap.String("domain", merchant.Domain))
	return nil
}

// GetMerchant получает мерчанта по ID
func (s *PostgresStorage) GetMerchant(ctx context.Context, id int64) (*domain.Merchant, error) {
	var merchant domain.Merchant

	err := s.db.WithContext(ctx).First(&merchant, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrMerchantNotFound
	}
	if err != nil {
		s.log.Error("failed to get merchant", zap.Int64("merchant_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get merchant: %w", err)
	}

	return &merchant, nil
}

// GetMerchantByDomain получает мерчанта по домену
func (s *PostgresStorage) GetMerchantByDomain(ctx context.Context, merchantDomain string) (*domain.Merchant, error) {
	var merchant domain.Merchant

	err := s.db.WithContext(ctx).Where("domain = ?", merchantDomain).First(&merchant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrMerchantNotFound
	}
	if err != nil {
		s.log.Error("failed to get merchant by domain", zap.String("domain", merchantDomain), zap.Error(err))
		return nil, fmt.Errorf("failed to get merchant by domain: %w", err)
	}

	return &merchant, nil
}

// ListMerchants возвращает список мерчантов в порядке display_order
func (s *PostgresStorage) ListMerchants(ctx context.Context, activeOnly bool) ([]*domain.Merchant, error) {
	var merchants []*domain.Merchant

	query := s.db.WithContext(ctx).Order("display_order ASC, id ASC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	if err := query.Find(&merchants).Error; err != nil {
		s.log.Error("failed to list merchants", zap.Error(err))
		return nil, fmt.Errorf("failed to list merchants: %w", err)
	}

	return merchants, nil
}

// UpdateMerchant обновляет мерчанта
func (s *PostgresStorage) UpdateMerchant(ctx context.Context, merchant *domain.Merchant) error {
	result := s.db.WithContext(ctx).Save(merchant)
	if result.Error != nil {
		s.log.Error("failed to update merchant", zap.Int64("merchant_id", merchant.ID), zap.Error(result.Error))
		return fmt.Errorf("failed to update merchant: %w", result.Error)
	}

	return nil
}

// DeleteMerchant удаляет мерчанта. Проверка зависимых ссылок выполняется
// на уровне сервиса до вызова.
func (s *PostgresStorage) DeleteMerchant(ctx context.Context, id int64) error {
	result := s.db.WithContext(ctx).Delete(&domain.Merchant{}, id)
	if result.Error != nil {
		s.log.Error("failed to delete merchant", zap.Int64("merchant_id", id), zap.Error(result.Error))
		return fmt.Errorf("failed to delete merchant: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrMerchantNotFound
	}

	s.log.Info("deleted merchant", zap.Int64("merchant_id", id))
	return nil
}

// CountLinksByMerchant возвращает число ссылок, ссылающихся на мерчанта
func (s *PostgresStorage) CountLinksByMerchant(ctx context.Context, merchantID int64) (int64, error) {
	var count int64

	err := s.db.WithContext(ctx).Model(&domain.AffiliateLink{}).
		Where("merchant_id = ?", merchantID).Count(&count).Error
	if err != nil {
		s.log.Error("failed to count merchant links", zap.Int64("merchant_id", merchantID), zap.Error(err))
		return 0, fmt.Errorf("failed to count merchant links: %w", err)
	}

	return count, nil
}

// --- Affiliate Link Methods ---

// SaveAffiliateLink сохраняет новую партнерскую ссылку
func (s *PostgresStorage) SaveAffiliateLink(ctx context.Context, link *domain.AffiliateLink) error {
	if err := s.db.WithContext(ctx).Create(link).Error; err != nil {
		s.log.Error("failed to save affiliate link",
			zap.Int64("user_id", link.UserID),
			zap.Int64("merchant_id", link.MerchantID),
			zap.Error(err))
		return fmt.Errorf("failed to save affiliate link: %w", err)
	}

	s.log.Info("saved affiliate link",
		zap.Int64("link_id", link.ID),
		zap.String("aff_sid", link.AffSid),
		zap.String("method", string(link.GenerationMethod)))
	return nil
}

// GetAffiliateLink получает ссылку по ID
func (s *PostgresStorage) GetAffiliateLink(ctx context.Context, id int64) (*domain.AffiliateLink, error) {
	var link domain.AffiliateLink

	err := s.db.WithContext(ctx).First(&link, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrLinkNotFound
	}
	if err != nil {
		s.log.Error("failed to get affiliate link", zap.Int64("link_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get affiliate link: %w", err)
	}

	return &link, nil
}

// ListLinksByReview возвращает ссылки обзора в порядке display_order
func (s *PostgresStorage) ListLinksByReview(ctx context.Context, reviewID int64) ([]*domain.AffiliateLink, error) {
	var links []*domain.AffiliateLink

	err := s.db.WithContext(ctx).Where("review_id = ?", reviewID).
		Order("display_order ASC, id ASC").Find(&links).Error
	if err != nil {
		s.log.Error("failed to list links by review", zap.Int64("review_id", reviewID), zap.Error(err))
		return nil, fmt.Errorf("failed to list links by review: %w", err)
	}

	return links, nil
}

// ListLinksByUser возвращает ссылки пользователя (новые первыми)
func (s *PostgresStorage) ListLinksByUser(ctx context.Context, userID int64) ([]*domain.AffiliateLink, error) {
	var links []*domain.AffiliateLink

	err := s.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at DESC").Find(&links).Error
	if err != nil {
		s.log.Error("failed to list links by user", zap.Int64("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to list links by user: %w", err)
	}

	return links, nil
}

// UpdateAffiliateLink обновляет ссылку
func (s *PostgresStorage) UpdateAffiliateLink(ctx context.Context, link *domain.AffiliateLink) error {
	if err := s.db.WithContext(ctx).Save(link).Error; err != nil {
		s.log.Error("failed to update affiliate link", zap.Int64("link_id", link.ID), zap.Error(err))
		return fmt.Errorf("failed to update affiliate link: %w", err)
	}

	return nil
}

// DeleteAffiliateLink удаляет ссылку
func (s *PostgresStorage) DeleteAffiliateLink(ctx context.Context, id int64) error {
	result := s.db.WithContext(ctx).Delete(&domain.AffiliateLink{}, id)
	if result.Error != nil {
		s.log.Error("failed to delete affiliate link", zap.Int64("link_id", id), zap.Error(result.Error))
		return fmt.Errorf("failed to delete affiliate link: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrLinkNotFound
	}

	s.log.Info("deleted affiliate link", zap.Int64("link_id", id))
	return nil
}

// MaxDisplayOrder возвращает максимальный display_order для обзора (-1, если ссылок нет)
func (s *PostgresStorage) MaxDisplayOrder(ctx context.Context, reviewID int64) (int, error) {
	var result struct {
		MaxOrder *int `gorm:"column:max_order"`
	}

	err := s.db.WithContext(ctx).Model(&domain.AffiliateLink{}).
		Select("MAX(display_order) as max_order").
		Where("review_id = ?", reviewID).
		Scan(&result).Error
	if err != nil {
		s.log.Error("failed to get max display order", zap.Int64("review_id", reviewID), zap.Error(err))
		return 0, fmt.Errorf("failed to get max display order: %w", err)
	}

	if result.MaxOrder == nil {
		return -1, nil
	}
	return *result.MaxOrder, nil
}

// ReorderLinks переписывает display_order для ссылок обзора одной транзакцией
func (s *PostgresStorage) ReorderLinks(ctx context.Context, reviewID int64, orderedIDs []int64) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for position, linkID := range orderedIDs {
			result := tx.Model(&domain.AffiliateLink{}).
				Where("id = ? AND review_id = ?", linkID, reviewID).
				Update("display_order", position)
			if result.Error != nil {
				return fmt.Errorf("failed to update display order for link %d: %w", linkID, result.Error)
			}
			if result.RowsAffected == 0 {
				return fmt.Errorf("link %d does not belong to review %d: %w", linkID, reviewID, repository.ErrLinkNotFound)
			}
		}
		return nil
	})
	if err != nil {
		s.log.Error("failed to reorder links", zap.Int64("review_id", reviewID), zap.Error(err))
		return err
	}

	s.log.Info("reordered links", zap.Int64("review_id", reviewID), zap.Int("count", len(orderedIDs)))
	return nil
}

// --- Stats and Click Methods ---

// CountLinksByMethod возвращает число ссылок по методам генерации
func (s *PostgresStorage) CountLinksByMethod(ctx context.Context) (map[string]int64, error) {
	var results []struct {
		Method string `gorm:"column:generation_method"`
		Count  int64  `gorm:"column:count"`
	}

	err := s.db.WithContext(ctx).Model(&domain.AffiliateLink{}).
		Select("generation_method, count(*) as count").
		Group("generation_method").
		Find(&results).Error
	if err != nil {
		s.log.Error("failed to count links by method", zap.Error(err))
		return nil, fmt.Errorf("failed to count links by method: %w", err)
	}

	counts := make(map[string]int64, len(results))
	for _, r := range results {
		counts[r.Method] = r.Count
	}
	return counts, nil
}

// CountLinksPerMerchant возвращает число ссылок по мерчантам (по именам)
func (s *PostgresStorage) CountLinksPerMerchant(ctx context.Context) (map[string]int64, error) {
	var results []struct {
		Name  string `gorm:"column:name"`
		Count int64  `gorm:"column:count"`
	}

	err := s.db.WithContext(ctx).Model(&domain.AffiliateLink{}).
		Select("merchants.name as name, count(*) as count").
		Joins("JOIN merchants ON merchants.id = affiliate_links.merchant_id").
		Group("merchants.name").
		Find(&results).Error
	if err != nil {
		s.log.Error("failed to count links per merchant", zap.Error(err))
		return nil, fmt.Errorf("failed to count links per merchant: %w", err)
	}

	counts := make(map[string]int64, len(results))
	for _, r := range results {
		counts[r.Name] = r.Count
	}
	return counts, nil
}

// CountLinks возвращает общее число ссылок
func (s *PostgresStorage) CountLinks(ctx context.Context) (int64, error) {
	var count int64

	if err := s.db.WithContext(ctx).Model(&domain.AffiliateLink{}).Count(&count).Error; err != nil {
		s.log.Error("failed to count links", zap.Error(err))
		return 0, fmt.Errorf("failed to count links: %w", err)
	}

	return count, nil
}

// RecordLinkClick записывает исходящий клик
func (s *PostgresStorage) RecordLinkClick(ctx context.Context, click *domain.LinkClick) error {
	if err := s.db.WithContext(ctx).Create(click).Error; err != nil {
		s.log.Error("failed to record link click", zap.Int64("link_id", click.LinkID), zap.Error(err))
		return fmt.Errorf("failed to record link click: %w", err)
	}

	return nil
}
