package service

import (
	"AffLink-Backend/internal/crypto"
	"AffLink-Backend/internal/domain"
	"AffLink-Backend/internal/repository"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// SettingsService is the credential store for the affiliate provider:
// a single settings record with secrets encrypted at rest.
type SettingsService struct {
	storage    repository.Storage
	box        *crypto.SecretBox
	log        *zap.Logger
	httpClient *http.Client
}

// NewSettingsService creates a new settings service.
func NewSettingsService(storage repository.Storage, box *crypto.SecretBox, timeout time.Duration, log *zap.Logger) *SettingsService {
	return &SettingsService{
		storage:    storage,
		box:        box,
		log:        log,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// UpdateSettingsInput carries a partial settings update. Nil fields keep
// their prior values.
type UpdateSettingsInput struct {
	APIToken        *string          `json:"api_token,omitempty"`
	APIURL          *string          `json:"api_url,omitempty"`
	LinkMode        *domain.LinkMode `json:"link_mode,omitempty"`
	PublisherID     *string          `json:"publisher_id,omitempty"`
	DeeplinkBaseURL *string          `json:"deeplink_base_url,omitempty"`
	UTMSource       *string          `json:"utm_source,omitempty"`
	UTMCampaign     *string          `json:"utm_campaign,omitempty"`
	IsActive        *bool            `json:"is_active,omitempty"`
}

// GetSettings fetches the singleton settings record, decrypting secrets
// that are in encrypted form. Decryption failure is logged and the raw
// value kept so a read never fails; readiness checks treat a value that
// still looks encrypted as unusable.
func (s *SettingsService) GetSettings(ctx context.Context) (*domain.AffiliateSettings, error) {
	settings, err := s.storage.GetAffiliateSettings(ctx)
	if errors.Is(err, repository.ErrSettingsNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	settings.APIToken = s.reveal("api_token", settings.APIToken)
	settings.PublisherID = s.reveal("publisher_id", settings.PublisherID)
	return settings, nil
}

// reveal decrypts a stored secret when it carries the ciphertext tag.
func (s *SettingsService) reveal(field, value string) string {
	if !crypto.IsEncrypted(value) {
		return value
	}
	plaintext, err := s.box.Decrypt(value)
	if err != nil {
		s.log.Error("failed to decrypt settings secret, returning stored value",
			zap.String("field", field),
			zap.Error(err))
		return value
	}
	return plaintext
}

// UpdateSettings merges the provided fields into the singleton record,
// creating it on first call. Secrets are encrypted before persistence;
// the format-tag check makes re-encryption a no-op.
func (s *SettingsService) UpdateSettings(ctx context.Context, input *UpdateSettingsInput) (*domain.AffiliateSettings, error) {
	settings, err := s.storage.GetAffiliateSettings(ctx)
	if errors.Is(err, repository.ErrSettingsNotFound) {
		settings = &domain.AffiliateSettings{
			LinkMode: domain.LinkModeDeeplink,
			IsActive: true,
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to load settings for update: %w", err)
	}

	if input.APIToken != nil {
		encrypted, err := s.box.Encrypt(*input.APIToken)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt api token: %w", err)
		}
		settings.APIToken = encrypted
	}
	if input.PublisherID != nil {
		encrypted, err := s.box.Encrypt(*input.PublisherID)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt publisher id: %w", err)
		}
		settings.PublisherID = encrypted
	}
	if input.APIURL != nil {
		settings.APIURL = *input.APIURL
	}
	if input.LinkMode != nil {
		if *input.LinkMode != domain.LinkModeAPI && *input.LinkMode != domain.LinkModeDeeplink {
			return nil, fmt.Errorf("invalid link mode: %q", *input.LinkMode)
		}
		settings.LinkMode = *input.LinkMode
	}
	if input.DeeplinkBaseURL != nil {
		settings.DeeplinkBaseURL = *input.DeeplinkBaseURL
	}
	if input.UTMSource != nil {
		settings.UTMSource = *input.UTMSource
	}
	if input.UTMCampaign != nil {
		settings.UTMCampaign = *input.UTMCampaign
	}
	if input.IsActive != nil {
		settings.IsActive = *input.IsActive
	}

	if err := s.storage.SaveAffiliateSettings(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to persist settings: %w", err)
	}

	s.log.Info("updated affiliate settings",
		zap.Int64("settings_id", settings.ID),
		zap.String("link_mode", string(settings.LinkMode)),
		zap.Bool("is_active", settings.IsActive))

	// Возвращаем расшифрованное представление
	result := *settings
	result.APIToken = s.reveal("api_token", result.APIToken)
	result.PublisherID = s.reveal("publisher_id", result.PublisherID)
	return &result, nil
}

// IsAPIModeReady reports whether the API strategy is configured: settings
// active, mode "api" and a usable (non-encrypted-looking) token present.
// A failed prior connectivity test is a warning, not a blocker.
func (s *SettingsService) IsAPIModeReady(ctx context.Context) (bool, error) {
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return false, err
	}
	if settings == nil {
		return false, nil
	}

	ready := settings.IsActive &&
		settings.LinkMode == domain.LinkModeAPI &&
		settings.APIToken != "" &&
		!crypto.IsEncrypted(settings.APIToken)

	if ready && settings.TestStatus != nil && *settings.TestStatus == domain.TestStatusFailed {
		s.log.Warn("api mode is ready but last connectivity test failed",
			zap.Stringp("test_message", settings.TestMessage))
	}

	return ready, nil
}

// IsDeeplinkModeReady reports whether the deeplink strategy is configured.
func (s *SettingsService) IsDeeplinkModeReady(ctx context.Context) (bool, error) {
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return false, err
	}
	if settings == nil {
		return false, nil
	}

	return settings.IsActive &&
		settings.PublisherID != "" &&
		!crypto.IsEncrypted(settings.PublisherID), nil
}

// LinkMode returns the preferred generation method: "api" when API mode
// is configured and ready, otherwise "deeplink" as the universal default.
func (s *SettingsService) LinkMode(ctx context.Context) (domain.LinkMode, error) {
	ready, err := s.IsAPIModeReady(ctx)
	if err != nil {
		return "", err
	}
	if ready {
		return domain.LinkModeAPI, nil
	}
	return domain.LinkModeDeeplink, nil
}

// TestAPIConnection probes the provider with a lightweight read-only call
// and classifies the result. It never mutates state; persisting the
// outcome is RecordTestResult's job.
func (s *SettingsService) TestAPIConnection(ctx context.Context, token, apiURL string) *domain.ConnectionTestResult {
	if token == "" || apiURL == "" {
		return &domain.ConnectionTestResult{Success: false, Message: "api token and url are required"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL+"/campaigns?page=1&limit=1", nil)
	if err != nil {
		return &domain.ConnectionTestResult{Success: false, Message: fmt.Sprintf("invalid api url: %v", err)}
	}
	req.Header.Set("Authorization", "Token "+token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return &domain.ConnectionTestResult{Success: false, Message: fmt.Sprintf("connection failed: %v", err)}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return &domain.ConnectionTestResult{Success: true, Message: "connection successful"}
	case http.StatusUnauthorized:
		return &domain.ConnectionTestResult{Success: false, Message: "invalid token"}
	case http.StatusForbidden:
		return &domain.ConnectionTestResult{Success: false, Message: "permission denied"}
	default:
		return &domain.ConnectionTestResult{Success: false, Message: fmt.Sprintf("provider returned status %d", resp.StatusCode)}
	}
}

// RecordTestResult persists the outcome of a connectivity test on the
// settings record.
func (s *SettingsService) RecordTestResult(ctx context.Context, result *domain.ConnectionTestResult) error {
	settings, err := s.storage.GetAffiliateSettings(ctx)
	if errors.Is(err, repository.ErrSettingsNotFound) {
		return fmt.Errorf("affiliate settings are not configured")
	}
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	now := time.Now()
	status := domain.TestStatusOK
	if !result.Success {
		status = domain.TestStatusFailed
	}

	settings.LastTestedAt = &now
	settings.TestStatus = &status
	settings.TestMessage = &result.Message

	if err := s.storage.SaveAffiliateSettings(ctx, settings); err != nil {
		return fmt.Errorf("failed to record test result: %w", err)
	}

	return nil
}
