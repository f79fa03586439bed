package redis

import (
	"cmp"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/shopdex/internal/db"
	"github.com/kailas-cloud/shopdex/internal/domain/search/filter"
)

const (
	defaultVectorField = "vector"
	distanceField      = "__vector_score"
	// minAffixLen is the shortest term that gets prefix/infix expansion.
	minAffixLen = 2
)

// Server replies that mean the query vector itself was refused.
var vectorRejections = []string{"blob size", "too large", "too big", "dimension"}

// SearchText runs a weighted full-text search via FT.SEARCH WITHSCORES.
func (s *Store) SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if q.Limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}
	if q.Offset < 0 {
		return nil, fmt.Errorf("offset must not be negative")
	}

	args := []string{q.IndexName, buildTextQuery(q)}

	if len(q.ReturnFields) > 0 {
		args = append(args, "RETURN", strconv.Itoa(len(q.ReturnFields)))
		args = append(args, q.ReturnFields...)
	}

	var inPage []db.SortKey
	if len(q.Sort) > 0 {
		if q.Sort[0].Field != db.ScoreField {
			args = append(args, "SORTBY", q.Sort[0].Field, direction(q.Sort[0].Desc))
		}
		if len(q.Sort) > 1 || q.Sort[0].Field != db.ScoreField {
			inPage = q.Sort
		}
	}

	args = append(args,
		"WITHSCORES",
		"LIMIT", strconv.Itoa(q.Offset), strconv.Itoa(q.Limit),
		"DIALECT", "2",
	)

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		if isRedisErr(err, "no such index", "unknown index") {
			return nil, &db.Error{Op: db.OpSearch, Err: db.ErrIndexNotFound}
		}
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	res, err := parseScoredResult(raw)
	if err != nil {
		return nil, err
	}
	if len(inPage) > 0 {
		sortEntries(res.Entries, inPage)
	}
	return res, nil
}

// SearchKNN runs a KNN vector similarity search via FT.SEARCH.
// Entries carry the raw distance reported by the server.
func (s *Store) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if len(q.Vector) == 0 {
		return nil, fmt.Errorf("vector is required")
	}
	if q.K <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}

	field := q.VectorField
	if field == "" {
		field = defaultVectorField
	}

	filterStr := buildFilter(q.Filters)
	knnPart := fmt.Sprintf("[KNN %d @%s $BLOB AS %s]", q.K, field, distanceField)
	var queryStr string
	if filterStr != "" {
		queryStr = fmt.Sprintf("(%s)=>%s", filterStr, knnPart)
	} else {
		queryStr = "*=>" + knnPart
	}

	args := []string{q.IndexName, queryStr}

	if len(q.ReturnFields) > 0 {
		args = append(args, "RETURN", strconv.Itoa(len(q.ReturnFields)+1))
		args = append(args, q.ReturnFields...)
		args = append(args, distanceField)
	}

	args = append(args,
		"SORTBY", distanceField, "ASC",
		"LIMIT", "0", strconv.Itoa(q.K),
		"PARAMS", "2", "BLOB", vectorToBytes(q.Vector),
		"DIALECT", "2",
	)

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		switch {
		case isRedisErr(err, vectorRejections...):
			return nil, &db.Error{Op: db.OpSearch, Err: fmt.Errorf("%w: %w", db.ErrVectorRejected, err)}
		case isRedisErr(err, "no such index", "unknown index"):
			return nil, &db.Error{Op: db.OpSearch, Err: db.ErrIndexNotFound}
		}
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	return parseKNNResult(raw)
}

// --- Query rendering ---

// buildTextQuery renders the filter followed by the weighted text clause.
func buildTextQuery(q *db.TextQuery) string {
	filterStr := buildFilter(q.Filters)
	text := buildTextClause(q)

	switch {
	case filterStr == "" && text == "":
		return "*"
	case filterStr == "":
		return text
	case text == "":
		return filterStr
	}
	return filterStr + " " + text
}

func buildTextClause(q *db.TextQuery) string {
	var parts []string
	if t := termsExpr(q.Terms, q.Prefix, q.Infix, q.AnyTerm); t != "" {
		parts = append(parts, t)
	}
	if p := phrasesExpr(q.Phrases); p != "" {
		parts = append(parts, p)
	}
	if len(parts) == 0 {
		return ""
	}
	expr := strings.Join(parts, " ")
	if len(parts) > 1 {
		expr = "(" + expr + ")"
	}

	if len(q.Fields) == 0 {
		return expr
	}

	clauses := make([]string, 0, len(q.Fields))
	for _, f := range q.Fields {
		clauses = append(clauses, fmt.Sprintf("(@%s:%s) => { $weight: %s; }",
			f.Name, expr, strconv.FormatFloat(f.Weight, 'f', -1, 64)))
	}
	if len(clauses) == 1 {
		return clauses[0]
	}
	return "(" + strings.Join(clauses, " | ") + ")"
}

// termsExpr renders "(a b)" or "(a|b)", expanding each term for prefix
// ("a*"), infix ("*a*") or both ("(a*|*a*)").
func termsExpr(terms []string, prefix, infix, anyTerm bool) string {
	out := make([]string, 0, len(terms))
	for _, raw := range terms {
		for _, tok := range strings.Fields(raw) {
			out = append(out, affix(escapeQuery(tok), prefix, infix))
		}
	}
	if len(out) == 0 {
		return ""
	}
	sep := " "
	if anyTerm {
		sep = "|"
	}
	return "(" + strings.Join(out, sep) + ")"
}

func affix(tok string, prefix, infix bool) string {
	if len(tok) < minAffixLen {
		return tok
	}
	switch {
	case prefix && infix:
		return "(" + tok + "*|*" + tok + "*)"
	case prefix:
		return tok + "*"
	case infix:
		return "*" + tok + "*"
	}
	return tok
}

func phrasesExpr(phrases []string) string {
	out := make([]string, 0, len(phrases))
	for _, p := range phrases {
		p = strings.Join(strings.Fields(p), " ")
		if p == "" {
			continue
		}
		out = append(out, `"`+phraseEscaper.Replace(p)+`"`)
	}
	if len(out) == 0 {
		return ""
	}
	return "(" + strings.Join(out, "|") + ")"
}

func direction(desc bool) string {
	if desc {
		return "DESC"
	}
	return "ASC"
}

// sortEntries stable-sorts one page of hits by every key in order.
// Missing or non-numeric values compare as zero; score keys use the hit score.
func sortEntries(entries []db.SearchEntry, keys []db.SortKey) {
	slices.SortStableFunc(entries, func(a, b db.SearchEntry) int {
		for _, k := range keys {
			c := cmp.Compare(sortValue(a, k.Field), sortValue(b, k.Field))
			if k.Desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	})
}

func sortValue(e db.SearchEntry, field string) float64 {
	if field == db.ScoreField {
		return e.Score
	}
	v, err := strconv.ParseFloat(e.Fields[field], 64)
	if err != nil {
		return 0
	}
	return v
}

// --- Result parsing ---

func parseKNNResult(raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return &db.SearchResult{}, nil
	}

	entries := make([]db.SearchEntry, 0, len(raw)/2)
	// 2-stride: [total, key1, fields1, key2, fields2, ...]
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		fields, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}

		entry := db.SearchEntry{
			Key:    key,
			Fields: parseFieldPairs(fields),
		}
		if d, ok := entry.Fields[distanceField]; ok {
			if f, err := strconv.ParseFloat(d, 64); err == nil {
				entry.Distance = f
			}
			delete(entry.Fields, distanceField)
		}

		entries = append(entries, entry)
	}

	return &db.SearchResult{Total: int(total), Entries: entries}, nil
}

func parseScoredResult(raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return &db.SearchResult{}, nil
	}

	entries := make([]db.SearchEntry, 0, len(raw)/3)
	// 3-stride: [total, key1, score1, fields1, key2, score2, fields2, ...]
	for i := 1; i+2 < len(raw); i += 3 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		scoreStr, err := raw[i+1].ToString()
		if err != nil {
			continue
		}
		score, err := strconv.ParseFloat(scoreStr, 64)
		if err != nil {
			continue
		}

		fields, err := raw[i+2].ToArray()
		if err != nil {
			continue
		}

		entries = append(entries, db.SearchEntry{
			Key:    key,
			Score:  score,
			Fields: parseFieldPairs(fields),
		})
	}

	return &db.SearchResult{Total: int(total), Entries: entries}, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

// --- Filter building ---

// buildFilter translates filter.Expression into an FT.SEARCH pre-filter query string.
func buildFilter(expr filter.Expression) string {
	if expr.IsEmpty() {
		return ""
	}

	var parts []string

	for _, cond := range expr.Must() {
		parts = append(parts, buildCondition(cond))
	}

	if shouldParts := buildShouldGroup(expr.Should()); shouldParts != "" {
		parts = append(parts, shouldParts)
	}

	for _, cond := range expr.MustNot() {
		parts = append(parts, "-"+buildCondition(cond))
	}

	return strings.Join(parts, " ")
}

func buildCondition(cond filter.Condition) string {
	if cond.IsMatch() {
		return buildTagFilter(cond.Key(), cond.Match())
	}
	if cond.IsRange() {
		return buildNumericFilter(cond.Key(), *cond.Range())
	}
	return ""
}

func buildShouldGroup(conditions []filter.Condition) string {
	if len(conditions) == 0 {
		return ""
	}
	parts := make([]string, 0, len(conditions))
	for _, cond := range conditions {
		parts = append(parts, buildCondition(cond))
	}
	return "(" + strings.Join(parts, " | ") + ")"
}

func buildTagFilter(key, value string) string {
	return fmt.Sprintf("@%s:{%s}", key, tagEscaper.Replace(value))
}

func buildNumericFilter(key string, r filter.Range) string {
	minBound := "-inf"
	maxBound := "+inf"

	if r.GT() != nil {
		minBound = fmt.Sprintf("(%g", *r.GT())
	} else if r.GTE() != nil {
		minBound = fmt.Sprintf("%g", *r.GTE())
	}

	if r.LT() != nil {
		maxBound = fmt.Sprintf("(%g", *r.LT())
	} else if r.LTE() != nil {
		maxBound = fmt.Sprintf("%g", *r.LTE())
	}

	return fmt.Sprintf("@%s:[%s %s]", key, minBound, maxBound)
}

// --- Escaping ---

var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	"/", "\\/",
	" ", "\\ ",
)

func escapeQuery(s string) string {
	return queryEscaper.Replace(s)
}

var queryEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	`@`, `\@`,
	`{`, `\{`,
	`}`, `\}`,
	`(`, `\(`,
	`)`, `\)`,
	`|`, `\|`,
	`-`, `\-`,
	`~`, `\~`,
	`*`, `\*`,
	`[`, `\[`,
	`]`, `\]`,
	`!`, `\!`,
	`%`, `\%`,
	`^`, `\^`,
	`$`, `\$`,
	`<`, `\<`,
	`>`, `\>`,
	`=`, `\=`,
	`;`, `\;`,
	`+`, `\+`,
	`.`, `\.`,
	`/`, `\/`,
	`:`, `\:`,
	`,`, `\,`,
)

var phraseEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
