package app

import (
	"context"

	"github.com/mvaldes/encore/internal/domain"
	"github.com/mvaldes/encore/internal/suggest"
)

// SuggestService is a thin seam between the HTTP layer and the
// suggestion engine.
type SuggestService struct {
	Engine *suggest.Engine
}

func NewSuggestService(engine *suggest.Engine) *SuggestService {
	return &SuggestService{Engine: engine}
}

func (s *SuggestService) Initial(ctx context.Context, sctx domain.SuggestionContext) (*domain.SuggestionBatch, error) {
	return s.Engine.LoadInitial(ctx, sctx)
}

func (s *SuggestService) More(ctx context.Context, sctx domain.SuggestionContext, alreadyShown []string) (*domain.SuggestionBatch, error) {
	return s.Engine.LoadMore(ctx, sctx, alreadyShown)
}
