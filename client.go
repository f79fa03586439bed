// Package shopdex embeds shopping query routing and product search over a
// Redis product index.
package shopdex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/shopdex/internal/db"
	dbRedis "github.com/kailas-cloud/shopdex/internal/db/redis"
	"github.com/kailas-cloud/shopdex/internal/domain/search/analysis"
	"github.com/kailas-cloud/shopdex/internal/domain/search/strategy"
	"github.com/kailas-cloud/shopdex/internal/domain/vocabulary"
	searchrepo "github.com/kailas-cloud/shopdex/internal/repository/search"
	"github.com/kailas-cloud/shopdex/internal/usecase/classify"
	"github.com/kailas-cloud/shopdex/internal/usecase/concept"
	searchuc "github.com/kailas-cloud/shopdex/internal/usecase/search"
)

const defaultReadinessTimeout = 10 * time.Second

// Client is the shopdex SDK entry point.
type Client struct {
	store     db.Store
	searchSvc *searchuc.Service
}

// New creates a shopdex Client and connects to Redis.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("shopdex: database address required (use WithRedis)")
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Username: cfg.username,
		Password: cfg.password,
	})
	if err != nil {
		return nil, fmt.Errorf("shopdex: create redis store: %w", err)
	}

	ctx := context.Background()
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("shopdex: database not ready: %w", err)
	}

	c, err := wireClient(searchrepo.New(store), cfg)
	if err != nil {
		store.Close()
		return nil, err
	}
	c.store = store
	return c, nil
}

func wireClient(backend searchuc.Backend, cfg *clientConfig) (*Client, error) {
	vocab := vocabulary.Default()
	if cfg.vocabularyPath != "" {
		v, err := vocabulary.LoadFile(cfg.vocabularyPath)
		if err != nil {
			return nil, fmt.Errorf("shopdex: %w", err)
		}
		vocab = v
	}

	opts := searchuc.Options{
		DefaultCollection: cfg.collection,
		BranchTimeout:     cfg.branchTimeout,
	}
	if cfg.fusionMulti != "" || cfg.fusionDefault != "" {
		multi, def := cfg.fusionMulti, cfg.fusionDefault
		if multi == "" {
			multi = searchuc.PresetMultiConcept
		}
		if def == "" {
			def = searchuc.PresetDefault
		}
		policy, err := searchuc.PolicyFromPresets(multi, def)
		if err != nil {
			return nil, fmt.Errorf("shopdex: %w", err)
		}
		opts.Policy = policy
	}

	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	svc := searchuc.New(backend, classify.New(vocab), concept.New(vocab), opts, logger)
	if cfg.analyzer != nil {
		svc.WithAnalyzer(&analyzerAdapter{inner: cfg.analyzer})
	}
	return &Client{searchSvc: svc}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if c.store == nil {
		return errors.New("shopdex: no database configured")
	}
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Search starts a query against a collection. An empty name uses the
// client's default collection.
func (c *Client) Search(collection string) *SearchBuilder {
	return &SearchBuilder{svc: c.searchSvc, collection: collection}
}

// Classify returns how a query would be routed. It never contacts the backend.
func (c *Client) Classify(ctx context.Context, query string) Analysis {
	return fromAnalysis(c.searchSvc.Analyze(ctx, query))
}

// Concepts extracts dietary and occasion concepts with their alternative terms.
func (c *Client) Concepts(query string) Concepts {
	cs := c.searchSvc.Concepts(query)
	return Concepts{
		Dietary:          cs.Dietary,
		Occasions:        cs.Occasions,
		TraditionalFoods: cs.TraditionalFoods,
		Modifiers:        cs.Modifiers,
		Alternatives:     c.searchSvc.Alternatives(cs),
	}
}

// analyzerAdapter wraps a public IntentAnalyzer to satisfy the service contract.
type analyzerAdapter struct {
	inner IntentAnalyzer
}

func (a *analyzerAdapter) Analyze(ctx context.Context, query string) (analysis.Analysis, error) {
	r, err := a.inner.Analyze(ctx, query)
	if err != nil {
		return analysis.Analysis{}, fmt.Errorf("analyze: %w", err)
	}
	return analysis.Analysis{
		Strategy:       strategy.Strategy(r.Strategy),
		Confidence:     r.Confidence,
		IdentifierType: r.IdentifierType,
		SuggestedChips: r.SuggestedChips,
		QueryTerms:     r.QueryTerms,
		CleanQuery:     r.CleanQuery,
	}, nil
}

func fromAnalysis(a analysis.Analysis) Analysis {
	return Analysis{
		Strategy:       Strategy(a.Strategy),
		Confidence:     a.Confidence,
		IdentifierType: a.IdentifierType,
		SuggestedChips: a.SuggestedChips,
		QueryTerms:     a.QueryTerms,
		CleanQuery:     a.CleanQuery,
		Source:         a.Source,
	}
}
