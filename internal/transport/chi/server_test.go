package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/shopdex/internal/domain/product"
	"github.com/kailas-cloud/shopdex/internal/domain/search/query"
	"github.com/kailas-cloud/shopdex/internal/domain/search/result"
	"github.com/kailas-cloud/shopdex/internal/domain/vocabulary"
	"github.com/kailas-cloud/shopdex/internal/usecase/classify"
	"github.com/kailas-cloud/shopdex/internal/usecase/concept"
	healthuc "github.com/kailas-cloud/shopdex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/shopdex/internal/usecase/search"
	usageuc "github.com/kailas-cloud/shopdex/internal/usecase/usage"
)

// --- Mocks ---

type mockBackend struct {
	mu     sync.Mutex
	textFn func(q query.Text) ([]result.Hit, error)
	texts  []query.Text
}

func (m *mockBackend) TextSearch(_ context.Context, q query.Text) ([]result.Hit, error) {
	m.mu.Lock()
	m.texts = append(m.texts, q)
	m.mu.Unlock()
	if m.textFn != nil {
		return m.textFn(q)
	}
	return nil, nil
}

func (m *mockBackend) VectorSearch(_ context.Context, _ query.Vector) ([]result.Hit, error) {
	return nil, nil
}

func (m *mockBackend) lastText() query.Text {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.texts) == 0 {
		return query.Text{}
	}
	return m.texts[len(m.texts)-1]
}

type mockBudget struct{}

func (mockBudget) Limit(p string) int64 {
	if p == "daily" {
		return 1000
	}
	return 0
}

func (mockBudget) Used(string) int64 { return 400 }

func (mockBudget) Remaining(p string) int64 {
	if p == "daily" {
		return 600
	}
	return -1
}

type mockPinger struct{ err error }

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

// --- Helpers ---

func newTestRouter(b *mockBackend, dbErr error) http.Handler {
	v := vocabulary.Default()
	search := searchuc.New(b, classify.New(v), concept.New(v),
		searchuc.Options{DefaultCollection: "grocery"}, nil)
	health := healthuc.New(&mockPinger{err: dbErr}, nil)
	usage := usageuc.New(mockBudget{})
	return NewRouter(NewServer(search, health, usage, zap.NewNop()), zap.NewNop())
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rr.Body.String())
	}
	return v
}

// --- Tests ---

func TestSearch_PostExactIdentifier(t *testing.T) {
	mb := &mockBackend{textFn: func(q query.Text) ([]result.Hit, error) {
		return []result.Hit{{
			Product: product.Product{SKU: "SKU123456", Name: "Chinet Plates", InStock: true},
			Score:   1,
		}}, nil
	}}
	h := newTestRouter(mb, nil)

	rr := do(t, h, http.MethodPost, "/v1/search", `{"query":"SKU123456","limit":10}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}

	resp := decode[SearchResponse](t, rr)
	if !resp.Success || resp.Strategy != "exact" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.Count != 1 || resp.Results[0].SKU != "SKU123456" {
		t.Errorf("results = %+v", resp.Results)
	}
	if resp.SearchID == "" {
		t.Error("search_id should be set")
	}
	if mb.lastText().Collection != "grocery" {
		t.Errorf("collection = %q, want default", mb.lastText().Collection)
	}
}

func TestSearch_PostMalformedBody(t *testing.T) {
	h := newTestRouter(&mockBackend{}, nil)

	rr := do(t, h, http.MethodPost, "/v1/search", `{"query":`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if e := decode[ErrorResponse](t, rr); e.Code != codeBadRequest {
		t.Errorf("code = %q", e.Code)
	}
}

func TestSearch_PostValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"limit zero", `{"query":"plates","limit":0}`},
		{"limit too high", `{"query":"plates","limit":1000}`},
		{"top_k too high", `{"query":"plates","top_k":1000}`},
		{"filter match and range", `{"query":"plates","filters":{"must":[{"key":"price","match":"1","range":{"lt":5}}]}}`},
		{"empty filter condition", `{"query":"plates","filters":{"must":[{"key":"brand"}]}}`},
		{"query too long", `{"query":"` + strings.Repeat("a", 5000) + `"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, newTestRouter(&mockBackend{}, nil), http.MethodPost, "/v1/search", tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rr.Code, rr.Body.String())
			}
			if e := decode[ErrorResponse](t, rr); e.Code != codeValidationFailed {
				t.Errorf("code = %q", e.Code)
			}
		})
	}
}

func TestSearch_BackendFailureIsStill200(t *testing.T) {
	mb := &mockBackend{textFn: func(query.Text) ([]result.Hit, error) {
		return nil, errors.New("connection refused")
	}}
	h := newTestRouter(mb, nil)

	rr := do(t, h, http.MethodPost, "/v1/search", `{"query":"paper plates"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	resp := decode[SearchResponse](t, rr)
	if resp.Success {
		t.Error("expected success=false")
	}
	if resp.Error == "" {
		t.Error("expected error message")
	}
	if resp.Results == nil || len(resp.Results) != 0 {
		t.Errorf("results = %v, want empty array", resp.Results)
	}
}

func TestSearch_GetBindsQueryParameters(t *testing.T) {
	mb := &mockBackend{textFn: func(query.Text) ([]result.Hit, error) {
		return []result.Hit{
			{Product: product.Product{SKU: "A", InStock: false}, Score: 5},
			{Product: product.Product{SKU: "B", InStock: true}, Score: 1},
		}, nil
	}}
	h := newTestRouter(mb, nil)

	rr := do(t, h, http.MethodGet,
		"/v1/search?q=paper+plates&limit=5&sales_boost=0&stock_priority=true&collection=party", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decode[SearchResponse](t, rr)
	if resp.Strategy != "keyword" {
		t.Errorf("strategy = %q", resp.Strategy)
	}
	if len(resp.Results) != 2 || resp.Results[0].SKU != "B" {
		t.Errorf("stock priority not applied: %+v", resp.Results)
	}
	if got := mb.lastText().Collection; got != "party" {
		t.Errorf("collection = %q, want party", got)
	}
}

func TestSearch_GetInvalidParameter(t *testing.T) {
	h := newTestRouter(&mockBackend{}, nil)

	rr := do(t, h, http.MethodGet, "/v1/search?q=plates&limit=ten", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "limit") {
		t.Errorf("error should name the parameter: %s", rr.Body.String())
	}
}

func TestSearch_EmptyQuerySucceeds(t *testing.T) {
	mb := &mockBackend{}
	rr := do(t, newTestRouter(mb, nil), http.MethodGet, "/v1/search", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	resp := decode[SearchResponse](t, rr)
	if !resp.Success || resp.Count != 0 {
		t.Errorf("unexpected response: %+v", resp)
	}
	if len(mb.texts) != 0 {
		t.Error("empty query must not reach the backend")
	}
}

func TestClassify(t *testing.T) {
	mb := &mockBackend{}
	h := newTestRouter(mb, nil)

	rr := do(t, h, http.MethodGet, "/v1/classify?q=vegan+thanksgiving+options", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decode[ClassifyResponse](t, rr)
	if resp.Analysis.Strategy != "semantic" {
		t.Errorf("strategy = %q, want semantic", resp.Analysis.Strategy)
	}
	if len(resp.Concepts.Dietary) == 0 || len(resp.Concepts.Occasions) == 0 {
		t.Errorf("concepts = %+v", resp.Concepts)
	}
	if len(resp.Alternatives) == 0 {
		t.Error("expected alternative terms for vegan thanksgiving")
	}
	if len(mb.texts) != 0 {
		t.Error("classify must not call the backend")
	}
}

func TestClassify_MissingQuery(t *testing.T) {
	rr := do(t, newTestRouter(&mockBackend{}, nil), http.MethodGet, "/v1/classify", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestGetUsage(t *testing.T) {
	h := newTestRouter(&mockBackend{}, nil)

	rr := do(t, h, http.MethodGet, "/v1/usage?period=day", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decode[UsageResponse](t, rr)
	if resp.Period != "day" || resp.TokensUsed != 400 {
		t.Errorf("unexpected usage: %+v", resp)
	}
	if resp.Budget.TokensLimit != 1000 || resp.Budget.TokensRemaining != 600 || resp.Budget.IsExhausted {
		t.Errorf("unexpected budget: %+v", resp.Budget)
	}
	if !resp.PeriodEndAt.After(resp.PeriodStartAt) {
		t.Errorf("period = %v .. %v", resp.PeriodStartAt, resp.PeriodEndAt)
	}

	rr = do(t, h, http.MethodGet, "/v1/usage", "")
	if resp := decode[UsageResponse](t, rr); resp.Period != "month" || resp.Budget.TokensRemaining != -1 {
		t.Errorf("default period: %+v", resp)
	}
}

func TestGetUsage_InvalidPeriod(t *testing.T) {
	rr := do(t, newTestRouter(&mockBackend{}, nil), http.MethodGet, "/v1/usage?period=total", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	rr := do(t, newTestRouter(&mockBackend{}, nil), http.MethodGet, "/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	resp := decode[HealthResponse](t, rr)
	if resp.Status != "ok" || resp.Checks["database"] != "ok" {
		t.Errorf("unexpected health: %+v", resp)
	}

	rr = do(t, newTestRouter(&mockBackend{}, errors.New("down")), http.MethodGet, "/health", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}

func TestNotFound_IsJSON(t *testing.T) {
	rr := do(t, newTestRouter(&mockBackend{}, nil), http.MethodGet, "/v2/search", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestRouter(&mockBackend{}, nil)
	_ = do(t, h, http.MethodGet, "/health", "")

	rr := do(t, h, http.MethodGet, "/metrics", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "shopdex_http_requests_total") {
		t.Error("expected http metrics in exposition")
	}
}
