package service

import (
	"AffLink-Backend/internal/crypto"
	"AffLink-Backend/internal/domain"
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// DeeplinkGenerator constructs a tracked link locally by templating the
// deeplink base URL. Pure URL building, no network calls.
type DeeplinkGenerator struct {
	log *zap.Logger
}

// NewDeeplinkGenerator creates the deeplink strategy.
func NewDeeplinkGenerator(log *zap.Logger) *DeeplinkGenerator {
	return &DeeplinkGenerator{log: log}
}

// Method returns the strategy tag.
func (g *DeeplinkGenerator) Method() domain.GenerationMethod {
	return domain.MethodDeeplink
}

// GenerateLink builds {base}/{publisher_id}/{campaign_id}?url={target}
// where the target is the original URL with UTM and aff_sub tracking
// parameters appended. The aff_sub layout mirrors the API strategy so
// analytics stay unified regardless of which path produced the link.
func (g *DeeplinkGenerator) GenerateLink(_ context.Context, params *GenerateParams, settings *domain.AffiliateSettings) (*domain.GenerateResult, error) {
	if settings.PublisherID == "" || crypto.IsEncrypted(settings.PublisherID) {
		return nil, fmt.Errorf("deeplink generation requires a usable publisher id")
	}
	if params.Merchant.CampaignID == "" {
		return nil, fmt.Errorf("merchant %q has no campaign id configured", params.Merchant.Name)
	}

	base := settings.DeeplinkBaseURL
	if params.Merchant.DeepLinkBase != nil && *params.Merchant.DeepLinkBase != "" {
		base = *params.Merchant.DeepLinkBase
	}
	baseURL, err := url.Parse(base)
	if err != nil || baseURL.Scheme == "" || baseURL.Host == "" {
		return nil, fmt.Errorf("malformed deeplink base url: %q", base)
	}

	tracking := url.Values{}
	tracking.Set("utm_source", settings.UTMSource)
	tracking.Set("utm_medium", "affiliate")
	tracking.Set("utm_campaign", domain.NormalizeCampaignName(params.Merchant.Name))
	tracking.Set("utm_content", params.ContentType)
	tracking.Set("aff_sub1", strconv.FormatInt(params.UserID, 10))
	tracking.Set("aff_sub2", strconv.FormatInt(params.Merchant.ID, 10))
	tracking.Set("aff_sub3", params.Merchant.CampaignID)
	tracking.Set("aff_sub4", strconv.FormatInt(params.Timestamp.UnixMilli(), 10))

	target := g.buildTarget(params.OriginalURL, tracking)
	affSid := domain.NewAffSid(params.UserID, params.Merchant.ID, params.Timestamp)

	affiliateURL := fmt.Sprintf("%s/%s/%s?url=%s&aff_sid=%s",
		strings.TrimRight(base, "/"),
		settings.PublisherID,
		params.Merchant.CampaignID,
		url.QueryEscape(target),
		url.QueryEscape(affSid))

	g.log.Info("generated deeplink",
		zap.Int64("user_id", params.UserID),
		zap.Int64("merchant_id", params.Merchant.ID),
		zap.String("aff_sid", affSid))

	return &domain.GenerateResult{
		AffiliateURL:     affiliateURL,
		AffSid:           affSid,
		GenerationMethod: domain.MethodDeeplink,
	}, nil
}

// buildTarget appends the tracking parameters to the original URL.
// Malformed URLs degrade to plain string concatenation: a deeplink must
// be producible even from slightly broken input.
func (g *DeeplinkGenerator) buildTarget(originalURL string, tracking url.Values) string {
	parsed, err := url.Parse(originalURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		g.log.Warn("original url failed strict parsing, falling back to string concatenation",
			zap.String("original_url", originalURL))
		separator := "?"
		if strings.Contains(originalURL, "?") {
			separator = "&"
		}
		return originalURL + separator + tracking.Encode()
	}

	query := parsed.Query()
	for key, values := range tracking {
		query.Set(key, values[0])
	}
	parsed.RawQuery = query.Encode()
	return parsed.String()
}
