package service

import (
	"AffLink-Backend/internal/domain"
	"AffLink-Backend/internal/repository"
	"AffLink-Backend/internal/repository/memory"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMerchantService() (*MerchantService, *memory.MemStorage) {
	storage := memory.New()
	return NewMerchantService(storage, zap.NewNop()), storage
}

func TestMerchantService_Create(t *testing.T) {
	svc, _ := newMerchantService()

	merchant, err := svc.Create(context.Background(), &CreateMerchantInput{
		Name:       "Shopee",
		Domain:     "  Shopee.VN  ",
		Platform:   domain.PlatformShopee,
		CampaignID: "123",
	})
	require.NoError(t, err)
	assert.NotZero(t, merchant.ID)
	assert.Equal(t, "shopee.vn", merchant.Domain)
	assert.True(t, merchant.IsActive)
}

func TestMerchantService_Create_Validation(t *testing.T) {
	svc, _ := newMerchantService()
	ctx := context.Background()

	_, err := svc.Create(ctx, &CreateMerchantInput{Domain: "shopee.vn", Platform: domain.PlatformShopee})
	assert.ErrorContains(t, err, "name is required")

	_, err = svc.Create(ctx, &CreateMerchantInput{Name: "Shopee", Platform: domain.PlatformShopee})
	assert.ErrorContains(t, err, "domain is required")

	_, err = svc.Create(ctx, &CreateMerchantInput{Name: "Shopee", Domain: "shopee.vn", Platform: "myspace"})
	assert.ErrorContains(t, err, "unsupported platform")
}

func TestMerchantService_Create_DomainConflict(t *testing.T) {
	svc, _ := newMerchantService()
	ctx := context.Background()

	_, err := svc.Create(ctx, &CreateMerchantInput{
		Name:     "Shopee",
		Domain:   "shopee.vn",
		Platform: domain.PlatformShopee,
	})
	require.NoError(t, err)

	// Конфликт домена проверяется до записи, регистр не важен
	_, err = svc.Create(ctx, &CreateMerchantInput{
		Name:     "Shopee Clone",
		Domain:   "SHOPEE.VN",
		Platform: domain.PlatformShopee,
	})
	assert.ErrorIs(t, err, repository.ErrDomainExists)
	assert.ErrorContains(t, err, `"shopee.vn"`)
}

func TestMerchantService_Update_DomainConflict(t *testing.T) {
	svc, _ := newMerchantService()
	ctx := context.Background()

	first, err := svc.Create(ctx, &CreateMerchantInput{Name: "Shopee", Domain: "shopee.vn", Platform: domain.PlatformShopee})
	require.NoError(t, err)
	second, err := svc.Create(ctx, &CreateMerchantInput{Name: "Lazada", Domain: "lazada.vn", Platform: domain.PlatformLazada})
	require.NoError(t, err)

	conflicting := first.Domain
	_, err = svc.Update(ctx, second.ID, &UpdateMerchantInput{Domain: &conflicting})
	assert.ErrorIs(t, err, repository.ErrDomainExists)

	// Обновление мерчанта с его же доменом конфликтом не считается
	same := second.Domain
	updated, err := svc.Update(ctx, second.ID, &UpdateMerchantInput{Domain: &same})
	require.NoError(t, err)
	assert.Equal(t, "lazada.vn", updated.Domain)
}

func TestMerchantService_Delete_GuardedByLinks(t *testing.T) {
	svc, storage := newMerchantService()
	ctx := context.Background()

	merchant, err := svc.Create(ctx, &CreateMerchantInput{Name: "Shopee", Domain: "shopee.vn", Platform: domain.PlatformShopee})
	require.NoError(t, err)

	require.NoError(t, storage.SaveAffiliateLink(ctx, &domain.AffiliateLink{
		UserID:           1,
		MerchantID:       merchant.ID,
		OriginalURL:      "https://shopee.vn/product/1",
		AffiliateURL:     "https://go.example/x",
		GenerationMethod: domain.MethodDeeplink,
		AffSid:           "1_1_1",
	}))

	err = svc.Delete(ctx, merchant.ID)
	require.Error(t, err)
	assert.ErrorContains(t, err, "1 affiliate link(s) reference it")
	assert.ErrorContains(t, err, "deactivate the merchant instead")

	// Деактивация - рекомендованный путь
	deactivated, err := svc.SetActive(ctx, merchant.ID, false)
	require.NoError(t, err)
	assert.False(t, deactivated.IsActive)
}

func TestMerchantService_Delete_WithoutLinks(t *testing.T) {
	svc, _ := newMerchantService()
	ctx := context.Background()

	merchant, err := svc.Create(ctx, &CreateMerchantInput{Name: "Tiki", Domain: "tiki.vn", Platform: domain.PlatformTiki})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, merchant.ID))

	_, err = svc.Get(ctx, merchant.ID)
	assert.ErrorIs(t, err, repository.ErrMerchantNotFound)
}

func TestMerchantService_List_ActiveOnly(t *testing.T) {
	svc, _ := newMerchantService()
	ctx := context.Background()

	active, err := svc.Create(ctx, &CreateMerchantInput{Name: "Shopee", Domain: "shopee.vn", Platform: domain.PlatformShopee})
	require.NoError(t, err)
	inactive, err := svc.Create(ctx, &CreateMerchantInput{Name: "Lazada", Domain: "lazada.vn", Platform: domain.PlatformLazada})
	require.NoError(t, err)
	_, err = svc.SetActive(ctx, inactive.ID, false)
	require.NoError(t, err)

	all, err := svc.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	activeList, err := svc.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, activeList, 1)
	assert.Equal(t, active.ID, activeList[0].ID)
}
