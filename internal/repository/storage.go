package repository

import (
	"AffLink-Backend/internal/domain"
	"context"
	"errors"
)

var (
	ErrSettingsNotFound = errors.New("affiliate settings not found")
	ErrMerchantNotFound = errors.New("merchant not found")
	ErrLinkNotFound     = errors.New("affiliate link not found")
	ErrDomainExists     = errors.New("merchant domain already exists")
)

type Storage interface {
	// Settings methods
	GetAffiliateSettings(ctx context.Context) (*domain.AffiliateSettings, error)
	SaveAffiliateSettings(ctx context.Context, settings *domain.AffiliateSettings) error

	// Merchant methods
	CreateMerchant(ctx context.Context, merchant *domain.Merchant) error
	GetMerchant(ctx context.Context, id int64) (*domain.Merchant, error)
	GetMerchantByDomain(ctx context.Context, merchantDomain string) (*domain.Merchant, error)
	ListMerchants(ctx context.Context, activeOnly bool) ([]*domain.Merchant, error)
	UpdateMerchant(ctx context.Context, merchant *domain.Merchant) error
	DeleteMerchant(ctx context.Context, id int64) error
	CountLinksByMerchant(ctx context.Context, merchantID int64) (int64, error)

	// Affiliate link methods
	SaveAffiliateLink(ctx context.Context, link *domain.AffiliateLink) error
	GetAffiliateLink(ctx context.Context, id int64) (*domain.AffiliateLink, error)
	ListLinksByReview(ctx context.Context, reviewID int64) ([]*domain.AffiliateLink, error)
	ListLinksByUser(ctx context.Context, userID int64) ([]*domain.AffiliateLink, error)
	UpdateAffiliateLink(ctx context.Context, link *domain.AffiliateLink) error
	DeleteAffiliateLink(ctx context.Context, id int64) error
	MaxDisplayOrder(ctx context.Context, reviewID int64) (int, error)
	ReorderLinks(ctx context.Context, reviewID int64, orderedIDs []int64) error

	// Stats and click tracking
	CountLinksByMethod(ctx context.Context) (map[string]int64, error)
	CountLinksPerMerchant(ctx context.Context) (map[string]int64, error)
	CountLinks(ctx context.Context) (int64, error)
	RecordLinkClick(ctx context.Context, click *domain.LinkClick) error
}
