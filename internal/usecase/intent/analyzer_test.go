package intent

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/shopdex/internal/domain"
	"github.com/kailas-cloud/shopdex/internal/domain/search/analysis"
	"github.com/kailas-cloud/shopdex/internal/domain/search/strategy"
	"github.com/kailas-cloud/shopdex/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterIntentMetrics()
	os.Exit(m.Run())
}

// --- Mocks ---

type mockClient struct {
	reply analysis.Reply
	err   error
	calls int
}

func (m *mockClient) Analyze(_ context.Context, _ string) (analysis.Reply, error) {
	m.calls++
	return m.reply, m.err
}

func keywordReply(prompt, completion int) analysis.Reply {
	return analysis.Reply{
		Analysis:         analysis.Analysis{Strategy: strategy.Keyword, Confidence: 0.8, Source: analysis.SourceLLM},
		PromptTokens:     prompt,
		CompletionTokens: completion,
	}
}

// --- Tests ---

func TestAnalyzer_Success(t *testing.T) {
	inner := &mockClient{reply: keywordReply(0, 0)}
	a := NewAnalyzer(inner, "gpt-4o-mini", nil, zap.NewNop())

	got, err := a.Analyze(context.Background(), "paper plates")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Strategy != strategy.Keyword {
		t.Errorf("strategy = %q", got.Strategy)
	}
}

func TestAnalyzer_RecordsTokens(t *testing.T) {
	b := NewBudget(1000, 10000, BudgetActionReject, zap.NewNop())
	a := NewAnalyzer(&mockClient{reply: keywordReply(120, 30)}, "m", b, zap.NewNop())

	if _, err := a.Analyze(context.Background(), "q"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := b.Used(PeriodDaily); got != 150 {
		t.Errorf("daily used = %d, want 150", got)
	}
	if got := testutil.ToFloat64(metrics.IntentBudgetTokensRemaining.WithLabelValues(PeriodDaily)); got != 850 {
		t.Errorf("remaining gauge = %f, want 850", got)
	}
}

func TestAnalyzer_BudgetRejection(t *testing.T) {
	b := NewBudget(10, 0, BudgetActionReject, zap.NewNop())
	b.Record(10)
	inner := &mockClient{reply: keywordReply(1, 1)}
	a := NewAnalyzer(inner, "m", b, zap.NewNop())

	_, err := a.Analyze(context.Background(), "q")
	if !errors.Is(err, domain.ErrBudgetExceeded) {
		t.Fatalf("expected ErrBudgetExceeded, got %v", err)
	}
	if inner.calls != 0 {
		t.Error("model should not be called over budget")
	}
}

func TestAnalyzer_ErrorStillBillsTokens(t *testing.T) {
	b := NewBudget(0, 0, BudgetActionWarn, zap.NewNop())
	reply := keywordReply(90, 10)
	a := NewAnalyzer(&mockClient{reply: reply, err: domain.ErrMalformedAnalysis}, "m", b, zap.NewNop())

	_, err := a.Analyze(context.Background(), "q")
	if !errors.Is(err, domain.ErrMalformedAnalysis) {
		t.Fatalf("expected ErrMalformedAnalysis, got %v", err)
	}
	if got := b.Used(PeriodMonthly); got != 100 {
		t.Errorf("monthly used = %d, want 100", got)
	}
}

func TestAnalyzer_TransportError(t *testing.T) {
	a := NewAnalyzer(&mockClient{err: domain.ErrAnalyzerUnavailable}, "m", nil, nil)

	if _, err := a.Analyze(context.Background(), "q"); !errors.Is(err, domain.ErrAnalyzerUnavailable) {
		t.Fatalf("expected ErrAnalyzerUnavailable, got %v", err)
	}
}
