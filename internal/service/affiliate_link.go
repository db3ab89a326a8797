package service

import (
	"AffLink-Backend/internal/crypto"
	"AffLink-Backend/internal/domain"
	"AffLink-Backend/internal/metrics"
	"AffLink-Backend/internal/repository"
	"context"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
)

// AffiliateLinkService is the link orchestrator: it selects a generation
// strategy, falls back to the alternate one on failure, and persists the
// resulting link record.
type AffiliateLinkService struct {
	storage    repository.Storage
	settings   *SettingsService
	generators map[domain.GenerationMethod]LinkGenerator
	log        *zap.Logger
}

// NewAffiliateLinkService creates the orchestrator with the given
// strategies registered by method tag.
func NewAffiliateLinkService(storage repository.Storage, settings *SettingsService, generators []LinkGenerator, log *zap.Logger) *AffiliateLinkService {
	byMethod := make(map[domain.GenerationMethod]LinkGenerator, len(generators))
	for _, g := range generators {
		byMethod[g.Method()] = g
	}
	return &AffiliateLinkService{
		storage:    storage,
		settings:   settings,
		generators: byMethod,
		log:        log,
	}
}

// CreateLink generates and persists one affiliate link. The fallback
// protocol is two-tier: exactly one alternate attempt, never a retry loop.
func (s *AffiliateLinkService) CreateLink(ctx context.Context, req *domain.GenerateRequest) (*domain.AffiliateLink, error) {
	if req.OriginalURL == "" {
		return nil, fmt.Errorf("original url is required")
	}
	if req.LinkType == "" {
		req.LinkType = domain.LinkTypeProduct
	}

	merchant, err := s.storage.GetMerchant(ctx, req.MerchantID)
	if err != nil {
		return nil, err
	}
	if !merchant.IsActive {
		return nil, fmt.Errorf("merchant %q is inactive", merchant.Name)
	}

	settings, err := s.settings.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	if settings == nil || !settings.IsActive {
		return nil, fmt.Errorf("affiliate settings are not configured")
	}

	method, err := s.selectMethod(req, settings)
	if err != nil {
		return nil, err
	}

	params := &GenerateParams{
		UserID:      req.UserID,
		Merchant:    merchant,
		OriginalURL: req.OriginalURL,
		ContentType: req.ContentType,
		Timestamp:   time.Now(),
	}

	result, err := s.generateWithFallback(ctx, method, params, settings)
	if err != nil {
		return nil, err
	}

	link := &domain.AffiliateLink{
		UserID:           req.UserID,
		ReviewID:         req.ReviewID,
		MerchantID:       merchant.ID,
		OriginalURL:      req.OriginalURL,
		AffiliateURL:     result.AffiliateURL,
		ShortURL:         result.ShortURL,
		LinkType:         req.LinkType,
		GenerationMethod: result.GenerationMethod,
		AffSid:           result.AffSid,
		Label:            req.Label,
	}

	link.DisplayOrder, err = s.nextDisplayOrder(ctx, req.ReviewID)
	if err != nil {
		return nil, err
	}

	if err := s.storage.SaveAffiliateLink(ctx, link); err != nil {
		return nil, err
	}

	return link, nil
}

// selectMethod resolves the generation method: the caller's explicit
// choice wins, otherwise the configured preference. This is a pure
// function of configuration, not of runtime signals.
func (s *AffiliateLinkService) selectMethod(req *domain.GenerateRequest, settings *domain.AffiliateSettings) (domain.GenerationMethod, error) {
	if req.Method != nil {
		if _, ok := s.generators[*req.Method]; !ok {
			return "", fmt.Errorf("no generator registered for method %q", *req.Method)
		}
		return *req.Method, nil
	}
	if apiConfigured(settings) {
		return domain.MethodAPI, nil
	}
	return domain.MethodDeeplink, nil
}

// generateWithFallback runs the two-tier fallback protocol:
//   - api failed: retry via deeplink unconditionally;
//   - deeplink failed: retry via api only if API mode is configured,
//     otherwise re-raise the original error;
//   - both failed: one aggregate error, the underlying ones are logged.
func (s *AffiliateLinkService) generateWithFallback(ctx context.Context, method domain.GenerationMethod, params *GenerateParams, settings *domain.AffiliateSettings) (*domain.GenerateResult, error) {
	merchantName := params.Merchant.Name

	result, primaryErr := s.generate(ctx, method, params, settings)
	if primaryErr == nil {
		metrics.RecordGeneration(string(method), merchantName, "success")
		return result, nil
	}
	metrics.RecordGeneration(string(method), merchantName, "failure")

	var fallback domain.GenerationMethod
	switch method {
	case domain.MethodDeeplink:
		if !apiConfigured(settings) {
			return nil, primaryErr
		}
		fallback = domain.MethodAPI
	default:
		fallback = domain.MethodDeeplink
	}

	s.log.Warn("link generation failed, trying fallback strategy",
		zap.String("method", string(method)),
		zap.String("fallback", string(fallback)),
		zap.String("merchant", merchantName),
		zap.Error(primaryErr))
	metrics.RecordFallback(string(method), string(fallback))

	result, fallbackErr := s.generate(ctx, fallback, params, settings)
	if fallbackErr == nil {
		metrics.RecordGeneration(string(fallback), merchantName, "success")
		return result, nil
	}
	metrics.RecordGeneration(string(fallback), merchantName, "failure")

	s.log.Error("all link generation methods failed",
		zap.String("merchant", merchantName),
		zap.NamedError("primary_error", primaryErr),
		zap.NamedError("fallback_error", fallbackErr))
	return nil, ErrAllMethodsFailed
}

func (s *AffiliateLinkService) generate(ctx context.Context, method domain.GenerationMethod, params *GenerateParams, settings *domain.AffiliateSettings) (*domain.GenerateResult, error) {
	generator, ok := s.generators[method]
	if !ok {
		return nil, fmt.Errorf("no generator registered for method %q", method)
	}
	return generator.GenerateLink(ctx, params, settings)
}

// apiConfigured reports whether the API strategy can be attempted at all:
// a usable token is present and the configured mode is "api".
func apiConfigured(settings *domain.AffiliateSettings) bool {
	return settings.APIToken != "" &&
		!crypto.IsEncrypted(settings.APIToken) &&
		settings.LinkMode == domain.LinkModeAPI
}

// nextDisplayOrder computes max existing order + 1 for the review's link
// set, or 0 when the link is not attached to a review.
func (s *AffiliateLinkService) nextDisplayOrder(ctx context.Context, reviewID *int64) (int, error) {
	if reviewID == nil {
		return 0, nil
	}
	maxOrder, err := s.storage.MaxDisplayOrder(ctx, *reviewID)
	if err != nil {
		return 0, err
	}
	return maxOrder + 1, nil
}

// ListByReview returns the review's links ordered by display_order.
func (s *AffiliateLinkService) ListByReview(ctx context.Context, reviewID int64) ([]*domain.AffiliateLink, error) {
	return s.storage.ListLinksByReview(ctx, reviewID)
}

// ListByUser returns the user's links, newest first.
func (s *AffiliateLinkService) ListByUser(ctx context.Context, userID int64) ([]*domain.AffiliateLink, error) {
	return s.storage.ListLinksByUser(ctx, userID)
}

// UpdateLinkInput limits updates to label and display order; generated
// URLs are immutable.
type UpdateLinkInput struct {
	Label        *string `json:"label,omitempty"`
	DisplayOrder *int    `json:"display_order,omitempty"`
}

// UpdateLink applies a label/order update to an existing link.
func (s *AffiliateLinkService) UpdateLink(ctx context.Context, id int64, input *UpdateLinkInput) (*domain.AffiliateLink, error) {
	link, err := s.storage.GetAffiliateLink(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Label != nil {
		link.Label = input.Label
	}
	if input.DisplayOrder != nil {
		link.DisplayOrder = *input.DisplayOrder
	}

	if err := s.storage.UpdateAffiliateLink(ctx, link); err != nil {
		return nil, err
	}
	return link, nil
}

// DeleteLink removes a link.
func (s *AffiliateLinkService) DeleteLink(ctx context.Context, id int64) error {
	return s.storage.DeleteAffiliateLink(ctx, id)
}

// ReorderLinks rewrites display_order for a review's link set from an
// explicit ordered ID list.
func (s *AffiliateLinkService) ReorderLinks(ctx context.Context, reviewID int64, orderedIDs []int64) error {
	if len(orderedIDs) == 0 {
		return fmt.Errorf("ordered id list is empty")
	}
	return s.storage.ReorderLinks(ctx, reviewID, orderedIDs)
}

// Stats aggregates link counts by generation method and by merchant.
func (s *AffiliateLinkService) Stats(ctx context.Context) (*domain.LinkStats, error) {
	total, err := s.storage.CountLinks(ctx)
	if err != nil {
		return nil, err
	}
	byMethod, err := s.storage.CountLinksByMethod(ctx)
	if err != nil {
		return nil, err
	}
	byMerchant, err := s.storage.CountLinksPerMerchant(ctx)
	if err != nil {
		return nil, err
	}

	return &domain.LinkStats{
		Total:      total,
		ByMethod:   byMethod,
		ByMerchant: byMerchant,
	}, nil
}

// TrackClick records an outbound click and returns the link so the
// caller can redirect to the affiliate URL.
func (s *AffiliateLinkService) TrackClick(ctx context.Context, linkID int64, ipAddress, userAgent, referer, deviceType string) (*domain.AffiliateLink, error) {
	link, err := s.storage.GetAffiliateLink(ctx, linkID)
	if err != nil {
		return nil, err
	}

	click := &domain.LinkClick{
		LinkID:    link.ID,
		ClickedAt: time.Now(),
	}
	if userAgent != "" {
		click.UserAgent = &userAgent
	}
	if referer != "" {
		click.Referer = &referer
	}
	if deviceType != "" {
		click.DeviceType = &deviceType
	}
	if ipAddress != "" {
		if ip := net.ParseIP(ipAddress); ip != nil {
			normalized := ip.String()
			click.IPAddress = &normalized
		}
	}

	// Клик не должен ломать редирект: ошибку записи только логируем
	if err := s.storage.RecordLinkClick(ctx, click); err != nil {
		s.log.Error("failed to record link click", zap.Int64("link_id", link.ID), zap.Error(err))
	} else {
		metrics.RecordClick(click.GetDeviceType())
	}

	return link, nil
}
