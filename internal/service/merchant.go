package service

import (
	"AffLink-Backend/internal/domain"
	"AffLink-Backend/internal/repository"
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// MerchantService handles CRUD over affiliate merchants with the two
// business rules the storage layer cannot express descriptively:
// explicit domain-uniqueness checks and the dependent-link delete guard.
type MerchantService struct {
	storage repository.Storage
	log     *zap.Logger
}

// NewMerchantService creates a new merchant service.
func NewMerchantService(storage repository.Storage, log *zap.Logger) *MerchantService {
	return &MerchantService{
		storage: storage,
		log:     log,
	}
}

// CreateMerchantInput is the admin-facing creation payload.
type CreateMerchantInput struct {
	Name         string          `json:"name"`
	Domain       string          `json:"domain"`
	Platform     domain.Platform `json:"platform"`
	CampaignID   string          `json:"campaign_id"`
	DeepLinkBase *string         `json:"deep_link_base,omitempty"`
	LogoURL      *string         `json:"logo_url,omitempty"`
	Description  *string         `json:"description,omitempty"`
	DisplayOrder int             `json:"display_order"`
}

// Create validates and persists a new merchant. Domain uniqueness is
// checked before the write so the conflict error can name the domain.
func (s *MerchantService) Create(ctx context.Context, input *CreateMerchantInput) (*domain.Merchant, error) {
	name := strings.TrimSpace(input.Name)
	merchantDomain := normalizeDomain(input.Domain)

	if name == "" {
		return nil, fmt.Errorf("merchant name is required")
	}
	if merchantDomain == "" {
		return nil, fmt.Errorf("merchant domain is required")
	}
	if !input.Platform.Valid() {
		return nil, fmt.Errorf("unsupported platform: %q", input.Platform)
	}

	if err := s.checkDomainFree(ctx, merchantDomain, 0); err != nil {
		return nil, err
	}

	merchant := &domain.Merchant{
		Name:         name,
		Domain:       merchantDomain,
		Platform:     input.Platform,
		CampaignID:   strings.TrimSpace(input.CampaignID),
		DeepLinkBase: input.DeepLinkBase,
		LogoURL:      input.LogoURL,
		Description:  input.Description,
		DisplayOrder: input.DisplayOrder,
		IsActive:     true,
	}

	if err := s.storage.CreateMerchant(ctx, merchant); err != nil {
		return nil, err
	}

	s.log.Info("merchant created",
		zap.Int64("merchant_id", merchant.ID),
		zap.String("name", merchant.Name),
		zap.String("domain", merchant.Domain))
	return merchant, nil
}

// Get returns a merchant by ID.
func (s *MerchantService) Get(ctx context.Context, id int64) (*domain.Merchant, error) {
	return s.storage.GetMerchant(ctx, id)
}

// List returns merchants ordered by display_order.
func (s *MerchantService) List(ctx context.Context, activeOnly bool) ([]*domain.Merchant, error) {
	return s.storage.ListMerchants(ctx, activeOnly)
}

// UpdateMerchantInput is the admin-facing update payload; nil fields keep
// their prior values.
type UpdateMerchantInput struct {
	Name         *string          `json:"name,omitempty"`
	Domain       *string          `json:"domain,omitempty"`
	Platform     *domain.Platform `json:"platform,omitempty"`
	CampaignID   *string          `json:"campaign_id,omitempty"`
	DeepLinkBase *string          `json:"deep_link_base,omitempty"`
	LogoURL      *string          `json:"logo_url,omitempty"`
	Description  *string          `json:"description,omitempty"`
	DisplayOrder *int             `json:"display_order,omitempty"`
	IsActive     *bool            `json:"is_active,omitempty"`
}

// Update applies a partial update, re-checking domain uniqueness when the
// domain changes.
func (s *MerchantService) Update(ctx context.Context, id int64, input *UpdateMerchantInput) (*domain.Merchant, error) {
	merchant, err := s.storage.GetMerchant(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Domain != nil {
		newDomain := normalizeDomain(*input.Domain)
		if newDomain == "" {
			return nil, fmt.Errorf("merchant domain is required")
		}
		if newDomain != merchant.Domain {
			if err := s.checkDomainFree(ctx, newDomain, id); err != nil {
				return nil, err
			}
			merchant.Domain = newDomain
		}
	}
	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, fmt.Errorf("merchant name is required")
		}
		merchant.Name = strings.TrimSpace(*input.Name)
	}
	if input.Platform != nil {
		if !input.Platform.Valid() {
			return nil, fmt.Errorf("unsupported platform: %q", *input.Platform)
		}
		merchant.Platform = *input.Platform
	}
	if input.CampaignID != nil {
		merchant.CampaignID = strings.TrimSpace(*input.CampaignID)
	}
	if input.DeepLinkBase != nil {
		merchant.DeepLinkBase = input.DeepLinkBase
	}
	if input.LogoURL != nil {
		merchant.LogoURL = input.LogoURL
	}
	if input.Description != nil {
		merchant.Description = input.Description
	}
	if input.DisplayOrder != nil {
		merchant.DisplayOrder = *input.DisplayOrder
	}
	if input.IsActive != nil {
		merchant.IsActive = *input.IsActive
	}

	if err := s.storage.UpdateMerchant(ctx, merchant); err != nil {
		return nil, err
	}

	s.log.Info("merchant updated", zap.Int64("merchant_id", merchant.ID))
	return merchant, nil
}

// Delete removes a merchant. Refused with the dependent-link count while
// any affiliate link still references it; the remedy is deactivation.
func (s *MerchantService) Delete(ctx context.Context, id int64) error {
	if _, err := s.storage.GetMerchant(ctx, id); err != nil {
		return err
	}

	linkCount, err := s.storage.CountLinksByMerchant(ctx, id)
	if err != nil {
		return err
	}
	if linkCount > 0 {
		return fmt.Errorf("cannot delete merchant: %d affiliate link(s) reference it, deactivate the merchant instead", linkCount)
	}

	return s.storage.DeleteMerchant(ctx, id)
}

// SetActive toggles the merchant's active flag.
func (s *MerchantService) SetActive(ctx context.Context, id int64, active bool) (*domain.Merchant, error) {
	return s.Update(ctx, id, &UpdateMerchantInput{IsActive: &active})
}

// checkDomainFree fails with a descriptive conflict error when another
// merchant already owns the domain.
func (s *MerchantService) checkDomainFree(ctx context.Context, merchantDomain string, excludeID int64) error {
	existing, err := s.storage.GetMerchantByDomain(ctx, merchantDomain)
	if errors.Is(err, repository.ErrMerchantNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to check domain uniqueness: %w", err)
	}
	if existing.ID != excludeID {
		return fmt.Errorf("merchant with domain %q already exists: %w", merchantDomain, repository.ErrDomainExists)
	}
	return nil
}

// normalizeDomain lowercases and trims a merchant domain.
func normalizeDomain(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
