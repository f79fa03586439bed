package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/shopdex/internal/domain"
	"github.com/kailas-cloud/shopdex/internal/domain/search/analysis"
	"github.com/kailas-cloud/shopdex/internal/domain/search/strategy"
	"github.com/kailas-cloud/shopdex/internal/metrics"
)

const systemPrompt = `You route shopping search queries for a grocery and household catalog.
Reply with one JSON object and nothing else:
{
  "strategy": "exact" | "semantic" | "keyword",
  "confidence": number between 0 and 1,
  "identifier_type": "sku" | "upc" | "mpn" | "item_number" (only for exact),
  "suggested_terms": up to 8 short refinement terms,
  "query_terms": the meaningful words of the query,
  "clean_query": the query with typos fixed and filler words removed
}
Use "exact" for product codes, "semantic" for descriptive or occasion-driven requests
(diets, holidays, "ideas", "options", questions), "keyword" for plain product names.`

// IntentAnalyzer classifies queries with an OpenAI-compatible chat model.
type IntentAnalyzer struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

// Config holds the intent model settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	Logger  *zap.Logger
}

// NewIntentAnalyzer creates an analyzer for an OpenAI-compatible API.
func NewIntentAnalyzer(cfg *Config) *IntentAnalyzer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &IntentAnalyzer{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  logger,
	}
}

// Analyze asks the model for a routing decision. The returned reply carries
// token usage even when the content is rejected.
func (a *IntentAnalyzer) Analyze(ctx context.Context, query string) (analysis.Reply, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	req := openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: query},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0,
	}

	start := time.Now()
	resp, err := a.client.CreateChatCompletion(ctx, req)
	duration := time.Since(start)

	if err != nil {
		metrics.IntentRequestsTotal.WithLabelValues(a.model, "error").Inc()
		return analysis.Reply{}, parseAPIError(err)
	}
	metrics.IntentRequestDuration.WithLabelValues(a.model).Observe(duration.Seconds())

	reply := analysis.Reply{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}
	if reply.PromptTokens > 0 {
		metrics.IntentTokensTotal.WithLabelValues(a.model, "prompt").Add(float64(reply.PromptTokens))
	}
	if reply.CompletionTokens > 0 {
		metrics.IntentTokensTotal.WithLabelValues(a.model, "completion").Add(float64(reply.CompletionTokens))
	}

	if len(resp.Choices) == 0 {
		metrics.IntentRequestsTotal.WithLabelValues(a.model, "malformed").Inc()
		return reply, fmt.Errorf("empty completion: %w", domain.ErrMalformedAnalysis)
	}

	parsed, err := decodeAnalysis(resp.Choices[0].Message.Content)
	if err != nil {
		metrics.IntentRequestsTotal.WithLabelValues(a.model, "malformed").Inc()
		a.logger.Debug("Rejected intent reply",
			zap.String("query", query),
			zap.String("content", resp.Choices[0].Message.Content),
			zap.Error(err),
		)
		return reply, err
	}

	metrics.IntentRequestsTotal.WithLabelValues(a.model, "success").Inc()
	reply.Analysis = parsed
	return reply, nil
}

// HealthCheck verifies API availability via ListModels.
func (a *IntentAnalyzer) HealthCheck(ctx context.Context) error {
	if _, err := a.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// wireAnalysis is the model's JSON reply. Filters are never read from it.
type wireAnalysis struct {
	Strategy       string   `json:"strategy"`
	Confidence     *float64 `json:"confidence"`
	IdentifierType string   `json:"identifier_type"`
	SuggestedTerms []string `json:"suggested_terms"`
	QueryTerms     []string `json:"query_terms"`
	CleanQuery     string   `json:"clean_query"`
}

func decodeAnalysis(content string) (analysis.Analysis, error) {
	raw, ok := extractJSON(content)
	if !ok {
		return analysis.Analysis{}, fmt.Errorf("%w: no JSON object in reply", domain.ErrMalformedAnalysis)
	}

	var w wireAnalysis
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return analysis.Analysis{}, fmt.Errorf("%w: %w", domain.ErrMalformedAnalysis, err)
	}
	if w.Confidence == nil {
		return analysis.Analysis{}, fmt.Errorf("%w: confidence missing", domain.ErrMalformedAnalysis)
	}

	out := analysis.Analysis{
		Strategy:       strategy.Strategy(strings.ToLower(strings.TrimSpace(w.Strategy))),
		Confidence:     *w.Confidence,
		IdentifierType: w.IdentifierType,
		SuggestedChips: nonNil(w.SuggestedTerms),
		QueryTerms:     nonNil(w.QueryTerms),
		CleanQuery:     strings.TrimSpace(w.CleanQuery),
		Source:         analysis.SourceLLM,
	}
	if out.Strategy != strategy.Exact {
		out.IdentifierType = ""
	}
	if err := out.Validate(); err != nil {
		return analysis.Analysis{}, err
	}
	return out, nil
}

// extractJSON finds the JSON object in a model reply: the whole content,
// then a fenced code block, then the first balanced {...}.
func extractJSON(content string) (string, bool) {
	s := strings.TrimSpace(content)
	if json.Valid([]byte(s)) && strings.HasPrefix(s, "{") {
		return s, true
	}

	if i := strings.Index(s, "```"); i >= 0 {
		rest := s[i+3:]
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			rest = rest[nl+1:] // skip the language tag line
		}
		if end := strings.Index(rest, "```"); end >= 0 {
			block := strings.TrimSpace(rest[:end])
			if json.Valid([]byte(block)) && strings.HasPrefix(block, "{") {
				return block, true
			}
		}
	}

	return firstObject(s)
}

// firstObject returns the first brace-balanced object, skipping braces in strings.
func firstObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				obj := s[start : i+1]
				return obj, json.Valid([]byte(obj))
			}
		}
	}
	return "", false
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// parseAPIError wraps every transport failure with domain.ErrAnalyzerUnavailable.
func parseAPIError(err error) error {
	wrap := domain.ErrAnalyzerUnavailable

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if detail := extractDetail(reqErr.Body); detail != "" {
			return fmt.Errorf("intent API error %d: %s: %w", reqErr.HTTPStatusCode, detail, wrap)
		}
		return fmt.Errorf("intent API error %d: %w", reqErr.HTTPStatusCode, wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("intent API error %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("intent request failed: %w: %w", wrap, err)
}

// extractDetail reads the "detail" field some compatible providers return.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil {
		return parsed.Detail
	}
	return ""
}
