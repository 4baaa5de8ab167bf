package listening

import (
	"context"

	"github.com/mvaldes/encore/internal/domain"
)

// Service is one external source of listening history. FetchPage returns
// one page of raw events plus an opaque cursor for the next page; an
// empty cursor means the history is exhausted. The first call passes an
// empty cursor.
type Service interface {
	Name() string
	FetchPage(ctx context.Context, cursor string) ([]domain.RawListeningEvent, string, error)
}
