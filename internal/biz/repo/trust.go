package repo

import (
	"context"

	"github.com/anthropics/telegram-neurocat/internal/biz/domain"
)

// TrustRepo persists the moderation allow-list as one JSON document.
// Load reads the latest persisted state every time (no caching), Save
// rewrites the whole document. Concurrent saves are last-writer-wins.
type TrustRepo interface {
	Load(ctx context.Context) (*domain.TrustList, error)
	Save(ctx context.Context, list *domain.TrustList) error
}
