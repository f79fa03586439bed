package search

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/shopdex/internal/domain/search/analysis"
	"github.com/kailas-cloud/shopdex/internal/domain/search/request"
	"github.com/kailas-cloud/shopdex/internal/domain/search/result"
	"github.com/kailas-cloud/shopdex/internal/domain/search/strategy"
	logpkg "github.com/kailas-cloud/shopdex/internal/logger"
	"github.com/kailas-cloud/shopdex/internal/usecase/classify"
	"github.com/kailas-cloud/shopdex/internal/usecase/concept"
)

// DefaultTruncateDimensions is the embedding length of the truncated retry.
const DefaultTruncateDimensions = 768

// Options tune the service.
type Options struct {
	// DefaultCollection is searched when the request names none.
	DefaultCollection string
	// BranchTimeout bounds the semantic branches together. Zero means no bound.
	BranchTimeout time.Duration
	// TruncateDimensions is the embedding length retried after a size rejection.
	TruncateDimensions int
	Policy             Policy
}

// Service routes queries to a strategy, fuses and ranks the results.
type Service struct {
	backend    Backend
	classifier *classify.Classifier
	extractor  *concept.Extractor
	analyzer   IntentAnalyzer
	reporter   ErrorReporter
	recorder   Recorder
	opts       Options
	logger     *zap.Logger
}

// New creates a search service.
func New(
	backend Backend, classifier *classify.Classifier, extractor *concept.Extractor,
	opts Options, logger *zap.Logger,
) *Service {
	if opts.TruncateDimensions <= 0 {
		opts.TruncateDimensions = DefaultTruncateDimensions
	}
	if opts.Policy.MultiConcept == nil && opts.Policy.Default == nil {
		opts.Policy = DefaultPolicy()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		backend:    backend,
		classifier: classifier,
		extractor:  extractor,
		recorder:   nopRecorder{},
		opts:       opts,
		logger:     logger,
	}
}

// WithAnalyzer attaches an intent analyzer consulted before the rules classifier.
func (s *Service) WithAnalyzer(a IntentAnalyzer) *Service {
	s.analyzer = a
	return s
}

// WithReporter attaches a reporter for fatal failures.
func (s *Service) WithReporter(r ErrorReporter) *Service {
	s.reporter = r
	return s
}

// WithRecorder attaches a metrics recorder.
func (s *Service) WithRecorder(r Recorder) *Service {
	if r != nil {
		s.recorder = r
	}
	return s
}

// plan is the per-request state shared by the executors.
type plan struct {
	id         string
	req        *request.Request
	collection string
	// text is what text searches look for: the analyzer's clean query or the raw query.
	text     string
	analysis analysis.Analysis
	concepts concept.Concepts
	log      *zap.Logger
}

// Analyze classifies a query, consulting the analyzer first when attached.
// Analyzer failures and invalid replies fall back to the rules classifier.
func (s *Service) Analyze(ctx context.Context, query string) analysis.Analysis {
	return s.analyze(ctx, query, logpkg.FromContext(ctx, s.logger))
}

func (s *Service) analyze(ctx context.Context, query string, log *zap.Logger) analysis.Analysis {
	if s.analyzer != nil {
		a, err := s.analyzer.Analyze(ctx, query)
		if err == nil {
			err = a.Validate()
		}
		if err == nil {
			a.Source = analysis.SourceLLM
			return a
		}
		log.Warn("Intent analyzer unavailable, using rules", zap.Error(err))
	}
	return s.classifier.Classify(query)
}

// Concepts extracts the dietary and occasion concepts of a query.
func (s *Service) Concepts(query string) concept.Concepts {
	return s.extractor.Extract(query)
}

// Alternatives lists the alternative product terms implied by extracted concepts.
func (s *Service) Alternatives(c concept.Concepts) []string {
	return s.extractor.AlternativeTerms(c)
}

// Search runs one query end to end. It never fails past its boundary:
// a fatal keyword failure is reported as an unsuccessful response.
func (s *Service) Search(ctx context.Context, req *request.Request) result.Response {
	start := time.Now()
	id := uuid.NewString()

	if req.IsEmpty() {
		return result.Response{
			Success:        true,
			Products:       []result.Scored{},
			SuggestedChips: []string{},
			SearchID:       id,
			Elapsed:        time.Since(start),
		}
	}

	log := logpkg.FromContext(ctx, s.logger).With(zap.String("search_id", id))
	a := s.analyze(ctx, req.Query(), log)
	p := &plan{
		id:         id,
		req:        req,
		collection: req.Collection(),
		text:       req.Query(),
		analysis:   a,
		concepts:   s.extractor.Extract(req.Query()),
		log:        log,
	}
	if p.collection == "" {
		p.collection = s.opts.DefaultCollection
	}
	if a.CleanQuery != "" {
		p.text = a.CleanQuery
	}

	log.Debug("Search dispatched",
		zap.String("strategy", string(a.Strategy)),
		zap.Float64("confidence", a.Confidence),
		zap.String("source", a.Source),
		zap.String("collection", p.collection),
	)

	var (
		products []result.Scored
		branches []result.BranchReport
		used     strategy.Strategy
		err      error
	)
	switch {
	case a.Strategy == strategy.Exact:
		products, used = s.searchExact(ctx, p)
	case a.Strategy == strategy.Semantic && req.HasEmbedding():
		products, branches, used, err = s.searchSemantic(ctx, p)
	default:
		used = strategy.Keyword
		products, err = s.keyword(ctx, p)
	}

	if err != nil {
		log.Error("Search failed",
			zap.String("strategy", string(used)),
			zap.Error(err),
		)
		if s.reporter != nil {
			s.reporter.CaptureError(ctx, err)
		}
		resp := result.Failed(err)
		resp.Strategy = used
		resp.SuggestedChips = chipsOf(a)
		resp.SearchID = id
		resp.AnalysisSource = a.Source
		resp.Branches = branches
		resp.Elapsed = time.Since(start)
		s.recorder.ObserveSearch(string(used), false, resp.Elapsed)
		return resp
	}

	ranked := Rank(products, req.SalesBoost(), req.StockPriority())
	if len(ranked) > req.Limit() {
		ranked = ranked[:req.Limit()]
	}

	resp := result.Response{
		Success:        true,
		Products:       ranked,
		Count:          len(ranked),
		Strategy:       used,
		SuggestedChips: chipsOf(a),
		SearchID:       id,
		AnalysisSource: a.Source,
		Branches:       branches,
		Elapsed:        time.Since(start),
	}
	s.recorder.ObserveSearch(string(used), true, resp.Elapsed)
	return resp
}

func chipsOf(a analysis.Analysis) []string {
	if a.SuggestedChips == nil {
		return []string{}
	}
	return a.SuggestedChips
}
