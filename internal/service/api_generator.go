package service

import (
	"AffLink-Backend/internal/crypto"
	"AffLink-Backend/internal/domain"
	"AffLink-Backend/internal/metrics"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// APILinkGenerator mints a tracked short link through the provider's
// link-creation endpoint.
type APILinkGenerator struct {
	log        *zap.Logger
	httpClient *http.Client
}

// NewAPILinkGenerator creates the API strategy. The timeout bounds the
// outbound call so a hung provider cannot block the fallback path.
func NewAPILinkGenerator(timeout time.Duration, log *zap.Logger) *APILinkGenerator {
	return &APILinkGenerator{
		log:        log,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// createLinkRequest is the provider's link-creation payload.
type createLinkRequest struct {
	CampaignID  string   `json:"campaign_id"`
	URLs        []string `json:"urls"`
	UTMSource   string   `json:"utm_source"`
	UTMMedium   string   `json:"utm_medium"`
	UTMCampaign string   `json:"utm_campaign"`
	UTMContent  string   `json:"utm_content"`
	Sub1        string   `json:"sub1"`
	Sub2        string   `json:"sub2"`
	Sub3        string   `json:"sub3"`
	Sub4        string   `json:"sub4"`
}

// createLinkResponse is the provider's link-creation response. A 200
// status alone does not imply success: the error/suspend lists decide.
type createLinkResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		SuccessLink []struct {
			AffLink    string `json:"aff_link"`
			ShortLink  string `json:"short_link"`
			OriginLink string `json:"origin_link"`
		} `json:"success_link"`
		ErrorLink []struct {
			Link    string `json:"link"`
			Message string `json:"message"`
		} `json:"error_link"`
		SuspendURL []string `json:"suspend_url"`
	} `json:"data"`
}

// Method returns the strategy tag.
func (g *APILinkGenerator) Method() domain.GenerationMethod {
	return domain.MethodAPI
}

// GenerateLink builds the provider request and classifies the response.
// Precondition failures are fatal and reported before any network call.
func (g *APILinkGenerator) GenerateLink(ctx context.Context, params *GenerateParams, settings *domain.AffiliateSettings) (*domain.GenerateResult, error) {
	if settings.APIToken == "" || crypto.IsEncrypted(settings.APIToken) {
		return nil, fmt.Errorf("api link generation requires a usable api token")
	}
	if settings.APIURL == "" {
		return nil, fmt.Errorf("api link generation requires the provider api url")
	}
	if params.Merchant.CampaignID == "" {
		return nil, fmt.Errorf("merchant %q has no campaign id configured", params.Merchant.Name)
	}

	reqBody := createLinkRequest{
		CampaignID:  params.Merchant.CampaignID,
		URLs:        []string{params.OriginalURL},
		UTMSource:   settings.UTMSource,
		UTMMedium:   "affiliate",
		UTMCampaign: domain.NormalizeCampaignName(params.Merchant.Name),
		UTMContent:  params.ContentType,
		Sub1:        strconv.FormatInt(params.UserID, 10),
		Sub2:        strconv.FormatInt(params.Merchant.ID, 10),
		Sub3:        params.Merchant.CampaignID,
		Sub4:        strconv.FormatInt(params.Timestamp.UnixMilli(), 10),
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal provider request: %w", err)
	}

	url := strings.TrimRight(settings.APIURL, "/") + "/product_link/create"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create provider request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token "+settings.APIToken)

	defer metrics.TrackProviderRequest()(time.Now())

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read provider response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, g.classifyStatus(resp.StatusCode, respBody)
	}

	var parsed createLinkResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse provider response: %w", err)
	}

	if len(parsed.Data.SuccessLink) == 0 {
		return nil, g.failureFromLists(&parsed)
	}

	link := parsed.Data.SuccessLink[0]
	result := &domain.GenerateResult{
		AffiliateURL:     link.AffLink,
		AffSid:           domain.NewAffSid(params.UserID, params.Merchant.ID, params.Timestamp),
		GenerationMethod: domain.MethodAPI,
	}
	if link.ShortLink != "" {
		shortURL := link.ShortLink
		result.ShortURL = &shortURL
	}

	g.log.Info("generated affiliate link via provider api",
		zap.Int64("user_id", params.UserID),
		zap.Int64("merchant_id", params.Merchant.ID),
		zap.String("aff_sid", result.AffSid))

	return result, nil
}

// classifyStatus maps provider HTTP errors onto the error taxonomy.
func (g *APILinkGenerator) classifyStatus(status int, body []byte) error {
	switch status {
	case http.StatusUnauthorized:
		return ErrInvalidToken
	case http.StatusForbidden:
		return ErrPermissionDenied
	case http.StatusBadRequest:
		// Пробрасываем валидационное сообщение провайдера
		var parsed createLinkResponse
		if err := json.Unmarshal(body, &parsed); err == nil && parsed.Message != "" {
			return fmt.Errorf("provider rejected request: %s", parsed.Message)
		}
		return fmt.Errorf("provider rejected request: %s", string(body))
	default:
		g.log.Error("provider api error",
			zap.Int("status_code", status),
			zap.String("response", string(body)))
		return fmt.Errorf("provider error: status %d: %s", status, string(body))
	}
}

// failureFromLists builds the error for a 200 response that produced no
// links, carrying the provider's per-URL error and suspension reasons.
func (g *APILinkGenerator) failureFromLists(parsed *createLinkResponse) error {
	var reasons []string
	for _, e := range parsed.Data.ErrorLink {
		reasons = append(reasons, fmt.Sprintf("%s: %s", e.Link, e.Message))
	}
	for _, u := range parsed.Data.SuspendURL {
		reasons = append(reasons, fmt.Sprintf("%s: campaign suspended", u))
	}
	if len(reasons) == 0 {
		if parsed.Message != "" {
			return fmt.Errorf("provider returned no links: %s", parsed.Message)
		}
		return fmt.Errorf("provider returned no links")
	}
	return fmt.Errorf("provider returned no links: %s", strings.Join(reasons, "; "))
}
