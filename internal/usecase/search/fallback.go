package search

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/shopdex/internal/domain/search/result"
)

// fallback runs a lenient prefix and infix search. Failures yield no hits.
func (s *Service) fallback(ctx context.Context, p *plan) []result.Scored {
	q, err := fallbackQuery(p.collection, p.text, p.req.TopK())
	if err != nil {
		p.log.Warn("Fallback query rejected", zap.Error(err))
		return []result.Scored{}
	}
	hits, err := s.backend.TextSearch(ctx, q)
	if err != nil {
		p.log.Warn("Fallback search failed",
			zap.Error(err),
		)
		return []result.Scored{}
	}
	return result.FromHits(hits, 1)
}
