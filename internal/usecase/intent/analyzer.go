package intent

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/shopdex/internal/domain/search/analysis"
	"github.com/kailas-cloud/shopdex/internal/metrics"
)

// Client is a remote intent model.
type Client interface {
	Analyze(ctx context.Context, query string) (analysis.Reply, error)
}

// BudgetChecker is the local interface for budget enforcement.
type BudgetChecker interface {
	Check(ctx context.Context) error
	Record(tokens int64)
	Remaining(period string) int64
}

// Analyzer wraps a Client with budget enforcement and logging.
// Transport metrics (requests, duration, tokens) are recorded in transport/openai.
type Analyzer struct {
	inner  Client
	model  string
	budget BudgetChecker
	logger *zap.Logger
}

// NewAnalyzer wraps a client. budget may be nil.
func NewAnalyzer(inner Client, model string, budget BudgetChecker, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{inner: inner, model: model, budget: budget, logger: logger}
}

// Analyze checks the budget, asks the model and records the tokens spent.
func (a *Analyzer) Analyze(ctx context.Context, query string) (analysis.Analysis, error) {
	if a.budget != nil {
		if err := a.budget.Check(ctx); err != nil {
			a.logger.Warn("Intent budget exceeded", zap.String("model", a.model), zap.Error(err))
			return analysis.Analysis{}, fmt.Errorf("budget check: %w", err)
		}
	}

	start := time.Now()
	reply, err := a.inner.Analyze(ctx, query)
	duration := time.Since(start)

	if reply.TotalTokens() > 0 && a.budget != nil {
		// Tokens are billed even when the reply turns out unusable.
		a.budget.Record(int64(reply.TotalTokens()))
		for _, period := range []string{PeriodDaily, PeriodMonthly} {
			metrics.IntentBudgetTokensRemaining.WithLabelValues(period).Set(float64(a.budget.Remaining(period)))
		}
	}

	if err != nil {
		a.logger.Warn("Intent analysis failed",
			zap.String("model", a.model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return analysis.Analysis{}, fmt.Errorf("analyze: %w", err)
	}

	a.logger.Debug("Intent analysis completed",
		zap.String("model", a.model),
		zap.String("strategy", string(reply.Analysis.Strategy)),
		zap.Duration("duration", duration),
		zap.Int("prompt_tokens", reply.PromptTokens),
		zap.Int("completion_tokens", reply.CompletionTokens),
	)
	return reply.Analysis, nil
}
