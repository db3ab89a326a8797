package memory

import (
	"AffLink-Backend/internal/domain"
	"AffLink-Backend/internal/repository"
	"context"
	"sort"
	"sync"
	"time"
)

// MemStorage is an in-memory Storage implementation used in tests and
// local development. It mirrors the semantics of the gorm-backed storage.
type MemStorage struct {
	mu           sync.RWMutex
	settings     *domain.AffiliateSettings
	merchants    map[int64]*domain.Merchant
	links        map[int64]*domain.AffiliateLink
	clicks       []*domain.LinkClick
	merchantSeq  int64
	linkSeq      int64
	clickSeq     int64
	settingsSeen bool
}

func New() *MemStorage {
	return &MemStorage{
		merchants: make(map[int64]*domain.Merchant),
		links:     make(map[int64]*domain.AffiliateLink),
	}
}

// --- Settings Methods ---

func (s *MemStorage) GetAffiliateSettings(_ context.Context) (*domain.AffiliateSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.settings == nil {
		return nil, repository.ErrSettingsNotFound
	}
	cp := *s.settings
	return &cp, nil
}

func (s *MemStorage) SaveAffiliateSettings(_ context.Context, settings *domain.AffiliateSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if settings.ID == 0 {
		settings.ID = 1
		settings.CreatedAt = time.Now()
	}
	settings.UpdatedAt = time.Now()
	cp := *settings
	s.settings = &cp
	s.settingsSeen = true
	return nil
}

// --- Merchant Methods ---

func (s *MemStorage) CreateMerchant(_ context.Context, merchant *domain.Merchant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.merchantSeq++
	merchant.ID = s.merchantSeq
	merchant.CreatedAt = time.Now()
	merchant.UpdatedAt = merchant.CreatedAt
	cp := *merchant
	s.merchants[merchant.ID] = &cp
	return nil
}

func (s *MemStorage) GetMerchant(_ context.Context, id int64) (*domain.Merchant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	merchant, ok := s.merchants[id]
	if !ok {
		return nil, repository.ErrMerchantNotFound
	}
	cp := *merchant
	return &cp, nil
}

func (s *MemStorage) GetMerchantByDomain(_ context.Context, merchantDomain string) (*domain.Merchant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, merchant := range s.merchants {
		if merchant.Domain == merchantDomain {
			cp := *merchant
			return &cp, nil
		}
	}
	return nil, repository.ErrMerchantNotFound
}

func (s *MemStorage) ListMerchants(_ context.Context, activeOnly bool) ([]*domain.Merchant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var merchants []*domain.Merchant
	for _, merchant := range s.merchants {
		if activeOnly && !merchant.IsActive {
			continue
		}
		cp := *merchant
		merchants = append(merchants, &cp)
	}
	sort.Slice(merchants, func(i, j int) bool {
		if merchants[i].DisplayOrder != merchants[j].DisplayOrder {
			return merchants[i].DisplayOrder < merchants[j].DisplayOrder
		}
		return merchants[i].ID < merchants[j].ID
	})
	return merchants, nil
}

func (s *MemStorage) UpdateMerchant(_ context.Context, merchant *domain.Merchant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.merchants[merchant.ID]; !ok {
		return repository.ErrMerchantNotFound
	}
	merchant.UpdatedAt = time.Now()
	cp := *merchant
	s.merchants[merchant.ID] = &cp
	return nil
}

func (s *MemStorage) DeleteMerchant(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.merchants[id]; !ok {
		return repository.ErrMerchantNotFound
	}
	delete(s.merchants, id)
	return nil
}

func (s *MemStorage) CountLinksByMerchant(_ context.Context, merchantID int64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var count int64
	for _, link := range s.links {
		if link.MerchantID == merchantID {
			count++
		}
	}
	return count, nil
}

// --- Affiliate Link Methods ---

func (s *MemStorage) SaveAffiliateLink(_ context.Context, link *domain.AffiliateLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.linkSeq++
	link.ID = s.linkSeq
	link.CreatedAt = time.Now()
	link.UpdatedAt = link.CreatedAt
	cp := *link
	s.links[link.ID] = &cp
	return nil
}

func (s *MemStorage) GetAffiliateLink(_ context.Context, id int64) (*domain.AffiliateLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	link, ok := s.links[id]
	if !ok {
		return nil, repository.ErrLinkNotFound
	}
	cp := *link
	return &cp, nil
}

func (s *MemStorage) ListLinksByReview(_ context.Context, reviewID int64) ([]*domain.AffiliateLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var links []*domain.AffiliateLink
	for _, link := range s.links {
		if link.ReviewID != nil && *link.ReviewID == reviewID {
			cp := *link
			links = append(links, &cp)
		}
	}
	sort.Slice(links, func(i, j int) bool {
		if links[i].DisplayOrder != links[j].DisplayOrder {
			return links[i].DisplayOrder < links[j].DisplayOrder
		}
		return links[i].ID < links[j].ID
	})
	return links, nil
}

func (s *MemStorage) ListLinksByUser(_ context.Context, userID int64) ([]*domain.AffiliateLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var links []*domain.AffiliateLink
	for _, link := range s.links {
		if link.UserID == userID {
			cp := *link
			links = append(links, &cp)
		}
	}
	sort.Slice(links, func(i, j int) bool {
		return links[i].CreatedAt.After(links[j].CreatedAt)
	})
	return links, nil
}

func (s *MemStorage) UpdateAffiliateLink(_ context.Context, link *domain.AffiliateLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.links[link.ID]; !ok {
		return repository.ErrLinkNotFound
	}
	link.UpdatedAt = time.Now()
	cp := *link
	s.links[link.ID] = &cp
	return nil
}

func (s *MemStorage) DeleteAffiliateLink(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.links[id]; !ok {
		return repository.ErrLinkNotFound
	}
	delete(s.links, id)
	return nil
}

func (s *MemStorage) MaxDisplayOrder(_ context.Context, reviewID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	maxOrder := -1
	for _, link := range s.links {
		if link.ReviewID != nil && *link.ReviewID == reviewID && link.DisplayOrder > maxOrder {
			maxOrder = link.DisplayOrder
		}
	}
	return maxOrder, nil
}

func (s *MemStorage) ReorderLinks(_ context.Context, reviewID int64, orderedIDs []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Валидация перед записью: все ID должны принадлежать обзору
	for _, id := range orderedIDs {
		link, ok := s.links[id]
		if !ok || link.ReviewID == nil || *link.ReviewID != reviewID {
			return repository.ErrLinkNotFound
		}
	}
	for position, id := range orderedIDs {
		s.links[id].DisplayOrder = position
		s.links[id].UpdatedAt = time.Now()
	}
	return nil
}

// --- Stats and Click Methods ---

func (s *MemStorage) CountLinksByMethod(_ context.Context) (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[string]int64)
	for _, link := range s.links {
		counts[string(link.GenerationMethod)]++
	}
	return counts, nil
}

func (s *MemStorage) CountLinksPerMerchant(_ context.Context) (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[string]int64)
	for _, link := range s.links {
		if merchant, ok := s.merchants[link.MerchantID]; ok {
			counts[merchant.Name]++
		}
	}
	return counts, nil
}

func (s *MemStorage) CountLinks(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.links)), nil
}

func (s *MemStorage) RecordLinkClick(_ context.Context, click *domain.LinkClick) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clickSeq++
	click.ID = s.clickSeq
	if click.ClickedAt.IsZero() {
		click.ClickedAt = time.Now()
	}
	cp := *click
	s.clicks = append(s.clicks, &cp)
	return nil
}
