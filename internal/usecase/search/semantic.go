package search

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/shopdex/internal/domain/search/query"
	"github.com/kailas-cloud/shopdex/internal/domain/search/result"
	"github.com/kailas-cloud/shopdex/internal/domain/search/strategy"
)

// Branch labels, also used as fusion weight keys.
const (
	BranchVector  = "vector"
	BranchKeyword = "keyword"
	BranchConcept = "concept"
)

// Branch outcomes reported to the Recorder.
const (
	outcomeHits    = "hits"
	outcomeEmpty   = "empty"
	outcomeFailed  = "failed"
	outcomeRetried = "retried"
)

// branch is the settled outcome of one semantic sub-search.
type branch struct {
	hits   []result.Scored
	report result.BranchReport
}

func newBranch(name string) branch {
	return branch{report: result.BranchReport{Name: name}}
}

func (b branch) fail(err error) branch {
	b.hits = nil
	b.report.Failed = true
	b.report.Error = err.Error()
	return b
}

func (b branch) done(hits []result.Scored) branch {
	b.hits = hits
	b.report.Hits = len(hits)
	return b
}

// searchSemantic runs the vector, concept-aware and concept-combination
// branches concurrently and fuses whatever they return. A failed branch
// contributes nothing. When every branch ends empty, keyword runs instead.
func (s *Service) searchSemantic(
	ctx context.Context, p *plan,
) ([]result.Scored, []result.BranchReport, strategy.Strategy, error) {
	tasks := []func(context.Context, *plan) branch{s.vectorBranch, s.conceptBranch}
	if p.concepts.IsMultiConcept() {
		tasks = append(tasks, s.combinationBranch)
	}

	bctx := ctx
	if s.opts.BranchTimeout > 0 {
		var cancel context.CancelFunc
		bctx, cancel = context.WithTimeout(ctx, s.opts.BranchTimeout)
		defer cancel()
	}

	settled := make([]branch, len(tasks))
	var g errgroup.Group
	for i, task := range tasks {
		g.Go(func() error {
			settled[i] = task(bctx, p)
			return nil
		})
	}
	_ = g.Wait() // branches never return errors

	sets := make([]Labeled, 0, len(settled))
	reports := make([]result.BranchReport, 0, len(settled))
	for _, b := range settled {
		reports = append(reports, b.report)
		s.recorder.ObserveBranch(b.report.Name, branchOutcome(b.report))
		if len(b.hits) > 0 {
			sets = append(sets, Labeled{Label: b.report.Name, Products: b.hits})
		}
	}

	if len(sets) == 0 {
		p.log.Info("Semantic branches empty, running keyword",
			zap.Int("branches", len(settled)),
		)
		hits, err := s.keyword(ctx, p)
		return hits, reports, strategy.Keyword, err
	}

	return Fuse(sets, s.opts.Policy.For(p.concepts), p.req.SalesBoost()), reports, strategy.Semantic, nil
}

// vectorBranch climbs full embedding, then the truncated one on a size rejection.
func (s *Service) vectorBranch(ctx context.Context, p *plan) branch {
	b := newBranch(BranchVector)
	q, err := vectorQuery(p.collection, p.req.Embedding(), p.req.TopK(), p.req.Filters())
	if err != nil {
		return b.fail(err)
	}

	rungs := []rung{{name: "full", run: s.vectorRun(q), descend: onEmbeddingRejected}}
	if short, ok := q.Truncated(s.opts.TruncateDimensions); ok {
		rungs = append(rungs, rung{name: "truncated", run: s.vectorRun(short)})
	}

	out := runLadder(ctx, rungs)
	b.report.Retried = out.steps > 1
	if out.err != nil {
		p.log.Warn("Vector branch failed",
			zap.String("branch", BranchVector),
			zap.String("rung", out.rung),
			zap.Error(out.err),
		)
		return b.fail(out.err)
	}
	return b.done(out.hits)
}

func (s *Service) vectorRun(q query.Vector) func(context.Context) ([]result.Scored, error) {
	return func(ctx context.Context) ([]result.Scored, error) {
		hits, err := s.backend.VectorSearch(ctx, q)
		if err != nil {
			return nil, err
		}
		return result.FromHits(hits, 1), nil
	}
}

// conceptBranch is the concept-aware keyword search. Popularity is folded
// into its scores here.
func (s *Service) conceptBranch(ctx context.Context, p *plan) branch {
	b := newBranch(BranchKeyword)
	q, err := conceptQuery(p.collection, p.text, p.concepts, p.req.Filters(), p.req.TopK())
	if err != nil {
		return b.fail(err)
	}
	hits, err := s.backend.TextSearch(ctx, q)
	if err != nil {
		p.log.Warn("Concept-aware branch failed",
			zap.String("branch", BranchKeyword),
			zap.Error(err),
		)
		return b.fail(err)
	}

	scored := make([]result.Scored, len(hits))
	for i := range hits {
		h := &hits[i]
		boost := s.extractor.Boost(p.concepts, &h.Product)
		scored[i] = result.Scored{
			Product:           h.Product,
			Score:             h.Score * boost * popularity(h.Product.SalesCount, p.req.SalesBoost()),
			PopularityApplied: true,
		}
	}
	return b.done(scored)
}

// combinationBranch searches the curated alternatives of a diet and occasion pair.
func (s *Service) combinationBranch(ctx context.Context, p *plan) branch {
	b := newBranch(BranchConcept)
	terms := s.extractor.AlternativeTerms(p.concepts)
	if len(terms) == 0 {
		return b.done(nil)
	}
	q, err := combinationQuery(p.collection, terms, p.req.Filters())
	if err != nil {
		return b.fail(err)
	}
	hits, err := s.backend.TextSearch(ctx, q)
	if err != nil {
		p.log.Warn("Concept-combination branch failed",
			zap.String("branch", BranchConcept),
			zap.Error(err),
		)
		return b.fail(err)
	}
	if len(hits) > combinationLimit {
		hits = hits[:combinationLimit]
	}
	return b.done(result.FromHits(hits, combinationBoost))
}

func branchOutcome(r result.BranchReport) string {
	switch {
	case r.Failed:
		return outcomeFailed
	case r.Retried:
		return outcomeRetried
	case r.Hits == 0:
		return outcomeEmpty
	}
	return outcomeHits
}
