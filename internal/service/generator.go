package service

import (
	"AffLink-Backend/internal/domain"
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrPermissionDenied = errors.New("permission denied")
	ErrAllMethodsFailed = errors.New("all link generation methods failed")
)

// GenerateParams is the per-request input shared by both strategies.
// Timestamp is fixed by the orchestrator so that aff_sid and the tracking
// parameters of one generation event agree.
type GenerateParams struct {
	UserID      int64
	Merchant    *domain.Merchant
	OriginalURL string
	ContentType string
	Timestamp   time.Time
}

// LinkGenerator is one link-generation strategy. Implementations perform
// no persistence; the orchestrator owns the resulting record.
type LinkGenerator interface {
	// Method returns the strategy tag the generator implements.
	Method() domain.GenerationMethod
	// GenerateLink produces a tracked link from the request parameters
	// and the decrypted provider settings.
	GenerateLink(ctx context.Context, params *GenerateParams, settings *domain.AffiliateSettings) (*domain.GenerateResult, error)
}
