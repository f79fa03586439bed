package search

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/shopdex/internal/domain/search/result"
	"github.com/kailas-cloud/shopdex/internal/domain/search/strategy"
)

// searchExact looks the identifier up and falls back to a lenient search
// when nothing matches or the lookup fails. Never errors.
func (s *Service) searchExact(ctx context.Context, p *plan) ([]result.Scored, strategy.Strategy) {
	out := runLadder(ctx, []rung{
		{name: string(strategy.Exact), run: func(ctx context.Context) ([]result.Scored, error) {
			return s.exactHits(ctx, p)
		}, descend: onErrorOrEmpty},
		{name: string(strategy.Fallback), run: func(ctx context.Context) ([]result.Scored, error) {
			return s.fallback(ctx, p), nil
		}},
	})
	return out.hits, strategy.Strategy(out.rung)
}

func (s *Service) exactHits(ctx context.Context, p *plan) ([]result.Scored, error) {
	q, err := exactQuery(p.collection, p.req.Query(), p.req.Limit())
	if err != nil {
		return nil, err
	}
	hits, err := s.backend.TextSearch(ctx, q)
	if err != nil {
		p.log.Warn("Exact lookup failed, falling back",
			zap.Error(err),
		)
		return nil, err
	}
	scored := result.FromHits(hits, 0)
	for i := range scored {
		scored[i].Score = exactScore
	}
	return scored, nil
}
