package search

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/shopdex/internal/domain"
	"github.com/kailas-cloud/shopdex/internal/domain/search/result"
)

// keyword is the strategy of last resort: its backend failures are fatal.
func (s *Service) keyword(ctx context.Context, p *plan) ([]result.Scored, error) {
	q, err := keywordQuery(p.collection, p.text, p.req.Filters(), p.req.TopK())
	if err != nil {
		return nil, fmt.Errorf("keyword query: %w", err)
	}
	hits, err := s.backend.TextSearch(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: keyword search: %w", domain.ErrBackendUnavailable, err)
	}
	return result.FromHits(hits, 1), nil
}
