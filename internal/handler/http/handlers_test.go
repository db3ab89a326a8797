package http

import (
	"AffLink-Backend/internal/crypto"
	"AffLink-Backend/internal/domain"
	"AffLink-Backend/internal/repository/memory"
	"AffLink-Backend/internal/service"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestExtractIPAddress(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			"x-forwarded-for takes first hop",
			"10.0.0.1:1234",
			map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.2"},
			"203.0.113.7",
		},
		{
			"x-real-ip",
			"10.0.0.1:1234",
			map[string]string{"X-Real-IP": "203.0.113.8"},
			"203.0.113.8",
		},
		{
			"remote addr fallback",
			"203.0.113.9:5678",
			nil,
			"203.0.113.9",
		},
		{
			"ipv6 remote addr",
			"[2001:db8::1]:5678",
			nil,
			"2001:db8::1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/r/1", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, extractIPAddress(r))
		})
	}
}

func TestSettingsResponse_MasksSecrets(t *testing.T) {
	resp := newSettingsResponse(&domain.AffiliateSettings{
		ID:          1,
		APIToken:    "secret-token",
		PublisherID: "PUB1",
		APIURL:      "https://api.provider.example",
		LinkMode:    domain.LinkModeAPI,
		IsActive:    true,
	})

	assert.True(t, resp.HasAPIToken)
	assert.True(t, resp.HasPublisherID)
	assert.Equal(t, "https://api.provider.example", resp.APIURL)
	assert.Equal(t, "api", resp.LinkMode)
}

func newRedirectFixture(t *testing.T) (*RedirectHandler, *memory.MemStorage) {
	t.Helper()
	storage := memory.New()
	box, err := crypto.NewSecretBox("test-master-key")
	require.NoError(t, err)
	settingsSvc := service.NewSettingsService(storage, box, 5*time.Second, zap.NewNop())
	linkSvc := service.NewAffiliateLinkService(storage, settingsSvc, nil, zap.NewNop())
	return NewRedirectHandler(linkSvc, zap.NewNop()), storage
}

func TestRedirectHandler(t *testing.T) {
	handler, storage := newRedirectFixture(t)

	link := &domain.AffiliateLink{
		UserID:           1,
		MerchantID:       1,
		OriginalURL:      "https://shopee.vn/product/1",
		AffiliateURL:     "https://go.isclix.com/deep_link/PUB1/123?url=x",
		GenerationMethod: domain.MethodDeeplink,
		AffSid:           "1_1_1",
	}
	require.NoError(t, storage.SaveAffiliateLink(context.Background(), link))

	r := httptest.NewRequest(http.MethodGet, "/r/1", nil)
	r.Header.Set("User-Agent", "Mozilla/5.0 (iPhone) Mobile Safari")
	w := httptest.NewRecorder()
	handler.HandleRedirect(w, r)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, link.AffiliateURL, w.Header().Get("Location"))
}

func TestRedirectHandler_UnknownLink(t *testing.T) {
	handler, _ := newRedirectFixture(t)

	r := httptest.NewRequest(http.MethodGet, "/r/999", nil)
	w := httptest.NewRecorder()
	handler.HandleRedirect(w, r)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRedirectHandler_InvalidID(t *testing.T) {
	handler, _ := newRedirectFixture(t)

	r := httptest.NewRequest(http.MethodGet, "/r/not-a-number", nil)
	w := httptest.NewRecorder()
	handler.HandleRedirect(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
