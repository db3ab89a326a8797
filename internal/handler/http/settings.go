package http

import (
	"AffLink-Backend/internal/domain"
	"AffLink-Backend/internal/service"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// SettingsHandler обработчик настроек партнерской сети
type SettingsHandler struct {
	settings *service.SettingsService
	log      *zap.Logger
}

// NewSettingsHandler создает новый обработчик настроек
func NewSettingsHandler(settings *service.SettingsService, log *zap.Logger) *SettingsHandler {
	return &SettingsHandler{
		settings: settings,
		log:      log,
	}
}

// Handle обрабатывает /api/settings
func (h *SettingsHandler) Handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.getSettings(w, r)
	case http.MethodPut, http.MethodPatch:
		h.updateSettings(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// getSettings возвращает настройки с замаскированными секретами
//
//	@Summary		Get affiliate settings
//	@Description	Returns the affiliate provider configuration; secrets are masked
//	@Tags			Settings
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	SettingsResponse	"Current settings"
//	@Router			/api/settings [get]
func (h *SettingsHandler) getSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.GetSettings(r.Context())
	if err != nil {
		h.log.Error("failed to get settings", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load settings", h.log)
		return
	}
	if settings == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"settings": nil}, h.log)
		return
	}

	writeJSON(w, http.StatusOK, newSettingsResponse(settings), h.log)
}

// updateSettings применяет частичное обновление настроек
//
//	@Summary		Update affiliate settings
//	@Description	Partial update of the affiliate provider configuration
//	@Tags			Settings
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		service.UpdateSettingsInput	true	"Fields to update"
//	@Success		200		{object}	SettingsResponse	"Updated settings"
//	@Failure		400		{object}	map[string]string	"Invalid request data"
//	@Router			/api/settings [put]
func (h *SettingsHandler) updateSettings(w http.ResponseWriter, r *http.Request) {
	var input service.UpdateSettingsInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.log)
		return
	}

	settings, err := h.settings.UpdateSettings(r.Context(), &input)
	if err != nil {
		h.log.Error("failed to update settings", zap.Error(err))
		writeError(w, http.StatusBadRequest, err.Error(), h.log)
		return
	}

	writeJSON(w, http.StatusOK, newSettingsResponse(settings), h.log)
}

// TestConnectionRequest структура запроса проверки подключения
type TestConnectionRequest struct {
	APIToken string `json:"api_token"`
	APIURL   string `json:"api_url"`
	Persist  bool   `json:"persist"`
}

// TestConnection проверяет подключение к провайдеру
//
//	@Summary		Test provider connection
//	@Description	Issues a lightweight read-only call to the affiliate provider
//	@Tags			Settings
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		TestConnectionRequest	true	"Credentials to test"
//	@Success		200		{object}	domain.ConnectionTestResult	"Test outcome"
//	@Router			/api/settings/test [post]
func (h *SettingsHandler) TestConnection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req TestConnectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.log)
		return
	}

	// Если учетные данные не переданы, проверяем сохраненные
	if req.APIToken == "" || req.APIURL == "" {
		settings, err := h.settings.GetSettings(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load settings", h.log)
			return
		}
		if settings != nil {
			if req.APIToken == "" {
				req.APIToken = settings.APIToken
			}
			if req.APIURL == "" {
				req.APIURL = settings.APIURL
			}
		}
	}

	result := h.settings.TestAPIConnection(r.Context(), req.APIToken, req.APIURL)

	// Сохранение результата - отдельный явный шаг
	if req.Persist {
		if err := h.settings.RecordTestResult(r.Context(), result); err != nil {
			h.log.Error("failed to record test result", zap.Error(err))
		}
	}

	writeJSON(w, http.StatusOK, result, h.log)
}

// SettingsResponse представление настроек с замаскированными секретами
type SettingsResponse struct {
	ID              int64   `json:"id"`
	HasAPIToken     bool    `json:"has_api_token"`
	APIURL          string  `json:"api_url"`
	LinkMode        string  `json:"link_mode"`
	HasPublisherID  bool    `json:"has_publisher_id"`
	DeeplinkBaseURL string  `json:"deeplink_base_url"`
	UTMSource       string  `json:"utm_source"`
	UTMCampaign     string  `json:"utm_campaign"`
	IsActive        bool    `json:"is_active"`
	TestStatus      *string `json:"test_status,omitempty"`
	TestMessage     *string `json:"test_message,omitempty"`
}

// newSettingsResponse маскирует секреты: наружу уходит только факт их наличия
func newSettingsResponse(settings *domain.AffiliateSettings) *SettingsResponse {
	resp := &SettingsResponse{
		ID:              settings.ID,
		HasAPIToken:     settings.APIToken != "",
		APIURL:          settings.APIURL,
		LinkMode:        string(settings.LinkMode),
		HasPublisherID:  settings.PublisherID != "",
		DeeplinkBaseURL: settings.DeeplinkBaseURL,
		UTMSource:       settings.UTMSource,
		UTMCampaign:     settings.UTMCampaign,
		IsActive:        settings.IsActive,
		TestStatus:      settings.TestStatus,
		TestMessage:     settings.TestMessage,
	}
	return resp
}
