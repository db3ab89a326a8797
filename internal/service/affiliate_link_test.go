package service

import (
	"AffLink-Backend/internal/crypto"
	"AffLink-Backend/internal/domain"
	"AffLink-Backend/internal/repository/memory"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubGenerator скриптуемая стратегия для проверки протокола fallback
type stubGenerator struct {
	method domain.GenerationMethod
	result *domain.GenerateResult
	err    error
	calls  int
}

func (g *stubGenerator) Method() domain.GenerationMethod {
	return g.method
}

func (g *stubGenerator) GenerateLink(_ context.Context, params *GenerateParams, _ *domain.AffiliateSettings) (*domain.GenerateResult, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	if g.result != nil {
		return g.result, nil
	}
	return &domain.GenerateResult{
		AffiliateURL:     "https://generated.example/" + string(g.method),
		AffSid:           domain.NewAffSid(params.UserID, params.Merchant.ID, params.Timestamp),
		GenerationMethod: g.method,
	}, nil
}

type orchestratorFixture struct {
	svc      *AffiliateLinkService
	storage  *memory.MemStorage
	api      *stubGenerator
	deeplink *stubGenerator
	merchant *domain.Merchant
}

func newOrchestrator(t *testing.T, settings *domain.AffiliateSettings) *orchestratorFixture {
	t.Helper()
	ctx := context.Background()

	storage := memory.New()
	require.NoError(t, storage.SaveAffiliateSettings(ctx, settings))

	merchant := &domain.Merchant{
		Name:       "Shopee VN",
		Domain:     "shopee.vn",
		Platform:   domain.PlatformShopee,
		CampaignID: "123",
		IsActive:   true,
	}
	require.NoError(t, storage.CreateMerchant(ctx, merchant))

	box, err := crypto.NewSecretBox("test-master-key")
	require.NoError(t, err)
	settingsSvc := NewSettingsService(storage, box, 5*time.Second, zap.NewNop())

	api := &stubGenerator{method: domain.MethodAPI}
	deeplink := &stubGenerator{method: domain.MethodDeeplink}
	svc := NewAffiliateLinkService(storage, settingsSvc, []LinkGenerator{api, deeplink}, zap.NewNop())

	return &orchestratorFixture{svc: svc, storage: storage, api: api, deeplink: deeplink, merchant: merchant}
}

func apiModeSettings() *domain.AffiliateSettings {
	return &domain.AffiliateSettings{
		APIToken:    "secret-token",
		APIURL:      "https://api.provider.example",
		LinkMode:    domain.LinkModeAPI,
		PublisherID: "PUB1",
		IsActive:    true,
	}
}

func deeplinkModeSettings() *domain.AffiliateSettings {
	return &domain.AffiliateSettings{
		LinkMode:        domain.LinkModeDeeplink,
		PublisherID:     "PUB1",
		DeeplinkBaseURL: "https://go.isclix.com/deep_link",
		IsActive:        true,
	}
}

func TestCreateLink_APIModePrefersAPI(t *testing.T) {
	f := newOrchestrator(t, apiModeSettings())

	link, err := f.svc.CreateLink(context.Background(), &domain.GenerateRequest{
		UserID:      42,
		MerchantID:  f.merchant.ID,
		OriginalURL: "https://shopee.vn/product/12345",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.MethodAPI, link.GenerationMethod)
	assert.Equal(t, 1, f.api.calls)
	assert.Equal(t, 0, f.deeplink.calls)
	assert.NotZero(t, link.ID)
	assert.Equal(t, domain.LinkTypeProduct, link.LinkType)
}

func TestCreateLink_DeeplinkModeSkipsAPI(t *testing.T) {
	f := newOrchestrator(t, deeplinkModeSettings())

	link, err := f.svc.CreateLink(context.Background(), &domain.GenerateRequest{
		UserID:      42,
		MerchantID:  f.merchant.ID,
		OriginalURL: "https://shopee.vn/product/12345",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.MethodDeeplink, link.GenerationMethod)
	assert.Equal(t, 0, f.api.calls)
}

func TestCreateLink_APIFailureFallsBackToDeeplink(t *testing.T) {
	f := newOrchestrator(t, apiModeSettings())
	f.api.err = errors.New("provider timeout")

	link, err := f.svc.CreateLink(context.Background(), &domain.GenerateRequest{
		UserID:      42,
		MerchantID:  f.merchant.ID,
		OriginalURL: "https://shopee.vn/product/12345",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.MethodDeeplink, link.GenerationMethod)
	assert.Equal(t, 1, f.api.calls)
	assert.Equal(t, 1, f.deeplink.calls)
}

func TestCreateLink_BothMethodsFail(t *testing.T) {
	f := newOrchestrator(t, apiModeSettings())
	f.api.err = errors.New("provider timeout")
	f.deeplink.err = errors.New("no publisher id")

	_, err := f.svc.CreateLink(context.Background(), &domain.GenerateRequest{
		UserID:      42,
		MerchantID:  f.merchant.ID,
		OriginalURL: "https://shopee.vn/product/12345",
	})
	assert.ErrorIs(t, err, ErrAllMethodsFailed)
	assert.Equal(t, 1, f.api.calls)
	assert.Equal(t, 1, f.deeplink.calls)
}

func TestCreateLink_DeeplinkFailureWithoutAPIConfigReRaisesOriginal(t *testing.T) {
	f := newOrchestrator(t, deeplinkModeSettings())
	original := errors.New("malformed deeplink base url")
	f.deeplink.err = original

	_, err := f.svc.CreateLink(context.Background(), &domain.GenerateRequest{
		UserID:      42,
		MerchantID:  f.merchant.ID,
		OriginalURL: "https://shopee.vn/product/12345",
	})
	// API не настроен: возвращается исходная ошибка, не агрегат
	assert.ErrorIs(t, err, original)
	assert.Equal(t, 0, f.api.calls)
}

func TestCreateLink_ExplicitMethodFailureFallsBackToAPI(t *testing.T) {
	f := newOrchestrator(t, apiModeSettings())
	f.deeplink.err = errors.New("no publisher id")

	explicit := domain.MethodDeeplink
	link, err := f.svc.CreateLink(context.Background(), &domain.GenerateRequest{
		UserID:      42,
		MerchantID:  f.merchant.ID,
		OriginalURL: "https://shopee.vn/product/12345",
		Method:      &explicit,
	})
	require.NoError(t, err)

	// Явный deeplink провалился, но API сконфигурирован - fallback разрешен
	assert.Equal(t, domain.MethodAPI, link.GenerationMethod)
	assert.Equal(t, 1, f.deeplink.calls)
	assert.Equal(t, 1, f.api.calls)
}

func TestCreateLink_UnknownExplicitMethod(t *testing.T) {
	f := newOrchestrator(t, apiModeSettings())

	unknown := domain.MethodTikTokAPI
	_, err := f.svc.CreateLink(context.Background(), &domain.GenerateRequest{
		UserID:      42,
		MerchantID:  f.merchant.ID,
		OriginalURL: "https://shopee.vn/product/12345",
		Method:      &unknown,
	})
	assert.ErrorContains(t, err, "no generator registered")
}

func TestCreateLink_Validation(t *testing.T) {
	f := newOrchestrator(t, apiModeSettings())
	ctx := context.Background()

	_, err := f.svc.CreateLink(ctx, &domain.GenerateRequest{UserID: 42, MerchantID: f.merchant.ID})
	assert.ErrorContains(t, err, "original url is required")

	_, err = f.svc.CreateLink(ctx, &domain.GenerateRequest{UserID: 42, MerchantID: 999, OriginalURL: "https://x.example"})
	assert.Error(t, err)
}

func TestCreateLink_InactiveMerchant(t *testing.T) {
	f := newOrchestrator(t, apiModeSettings())
	ctx := context.Background()

	f.merchant.IsActive = false
	require.NoError(t, f.storage.UpdateMerchant(ctx, f.merchant))

	_, err := f.svc.CreateLink(ctx, &domain.GenerateRequest{
		UserID:      42,
		MerchantID:  f.merchant.ID,
		OriginalURL: "https://shopee.vn/product/12345",
	})
	assert.ErrorContains(t, err, "inactive")
}

func TestCreateLink_InactiveSettings(t *testing.T) {
	settings := apiModeSettings()
	settings.IsActive = false
	f := newOrchestrator(t, settings)

	_, err := f.svc.CreateLink(context.Background(), &domain.GenerateRequest{
		UserID:      42,
		MerchantID:  f.merchant.ID,
		OriginalURL: "https://shopee.vn/product/12345",
	})
	assert.ErrorContains(t, err, "not configured")
}

func TestCreateLink_DisplayOrderAssignment(t *testing.T) {
	f := newOrchestrator(t, apiModeSettings())
	ctx := context.Background()
	reviewID := int64(10)

	first, err := f.svc.CreateLink(ctx, &domain.GenerateRequest{
		UserID: 42, ReviewID: &reviewID, MerchantID: f.merchant.ID,
		OriginalURL: "https://shopee.vn/product/1",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, first.DisplayOrder)

	second, err := f.svc.CreateLink(ctx, &domain.GenerateRequest{
		UserID: 42, ReviewID: &reviewID, MerchantID: f.merchant.ID,
		OriginalURL: "https://shopee.vn/product/2",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, second.DisplayOrder)

	// Ссылка без обзора всегда получает порядок 0
	detached, err := f.svc.CreateLink(ctx, &domain.GenerateRequest{
		UserID: 42, MerchantID: f.merchant.ID,
		OriginalURL: "https://shopee.vn/product/3",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, detached.DisplayOrder)
}

func TestReorderLinks(t *testing.T) {
	f := newOrchestrator(t, apiModeSettings())
	ctx := context.Background()
	reviewID := int64(10)

	var ids []int64
	for _, u := range []string{"https://shopee.vn/product/1", "https://shopee.vn/product/2", "https://shopee.vn/product/3"} {
		link, err := f.svc.CreateLink(ctx, &domain.GenerateRequest{
			UserID: 42, ReviewID: &reviewID, MerchantID: f.merchant.ID, OriginalURL: u,
		})
		require.NoError(t, err)
		ids = append(ids, link.ID)
	}

	err := f.svc.ReorderLinks(ctx, reviewID, []int64{ids[2], ids[0], ids[1]})
	require.NoError(t, err)

	links, err := f.svc.ListByReview(ctx, reviewID)
	require.NoError(t, err)
	require.Len(t, links, 3)
	assert.Equal(t, ids[2], links[0].ID)
	assert.Equal(t, ids[0], links[1].ID)
	assert.Equal(t, ids[1], links[2].ID)

	// Пустой список - ошибка, а не no-op
	err = f.svc.ReorderLinks(ctx, reviewID, nil)
	assert.ErrorContains(t, err, "empty")
}

func TestUpdateLink_LabelAndOrderOnly(t *testing.T) {
	f := newOrchestrator(t, apiModeSettings())
	ctx := context.Background()

	link, err := f.svc.CreateLink(ctx, &domain.GenerateRequest{
		UserID: 42, MerchantID: f.merchant.ID, OriginalURL: "https://shopee.vn/product/1",
	})
	require.NoError(t, err)

	label := "Main product"
	order := 5
	updated, err := f.svc.UpdateLink(ctx, link.ID, &UpdateLinkInput{Label: &label, DisplayOrder: &order})
	require.NoError(t, err)
	require.NotNil(t, updated.Label)
	assert.Equal(t, "Main product", *updated.Label)
	assert.Equal(t, 5, updated.DisplayOrder)
	// Сгенерированные URL неизменяемы
	assert.Equal(t, link.AffiliateURL, updated.AffiliateURL)
}

func TestStats(t *testing.T) {
	f := newOrchestrator(t, apiModeSettings())
	ctx := context.Background()

	_, err := f.svc.CreateLink(ctx, &domain.GenerateRequest{
		UserID: 42, MerchantID: f.merchant.ID, OriginalURL: "https://shopee.vn/product/1",
	})
	require.NoError(t, err)

	f.api.err = errors.New("down")
	_, err = f.svc.CreateLink(ctx, &domain.GenerateRequest{
		UserID: 42, MerchantID: f.merchant.ID, OriginalURL: "https://shopee.vn/product/2",
	})
	require.NoError(t, err)

	stats, err := f.svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Total)
	assert.Equal(t, int64(1), stats.ByMethod["api"])
	assert.Equal(t, int64(1), stats.ByMethod["deeplink"])
	assert.Equal(t, int64(2), stats.ByMerchant["Shopee VN"])
}

func TestTrackClick(t *testing.T) {
	f := newOrchestrator(t, apiModeSettings())
	ctx := context.Background()

	link, err := f.svc.CreateLink(ctx, &domain.GenerateRequest{
		UserID: 42, MerchantID: f.merchant.ID, OriginalURL: "https://shopee.vn/product/1",
	})
	require.NoError(t, err)

	got, err := f.svc.TrackClick(ctx, link.ID, "203.0.113.7", "Mozilla/5.0 (iPhone)", "https://reviews.example/r/1", "mobile")
	require.NoError(t, err)
	assert.Equal(t, link.AffiliateURL, got.AffiliateURL)

	_, err = f.svc.TrackClick(ctx, 9999, "", "", "", "")
	assert.Error(t, err)
}

func TestNewAffSid_UniquePerInstant(t *testing.T) {
	first := domain.NewAffSid(42, 7, time.UnixMilli(1700000000000))
	second := domain.NewAffSid(42, 7, time.UnixMilli(1700000000001))
	assert.Equal(t, "42_7_1700000000000", first)
	assert.NotEqual(t, first, second)
}
