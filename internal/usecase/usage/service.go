package usage

import (
	"context"
	"time"

	domusage "github.com/kailas-cloud/shopdex/internal/domain/usage"
	"github.com/kailas-cloud/shopdex/internal/domain/usage/budget"
)

// Budget period names understood by BudgetReader.
const (
	budgetDaily   = "daily"
	budgetMonthly = "monthly"
)

// Service handles usage reporting.
type Service struct {
	br  BudgetReader
	now func() time.Time
}

// New creates a Service. br can be nil (analyzer disabled or unlimited).
func New(br BudgetReader) *Service {
	return &Service{br: br, now: time.Now}
}

// GetReport builds a usage report for the given period.
func (s *Service) GetReport(_ context.Context, period domusage.Period) domusage.Report {
	now := s.now().UTC()

	var (
		start, end time.Time
		name       string
	)
	switch period {
	case domusage.PeriodDay:
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 0, 1)
		name = budgetDaily
	default:
		period = domusage.PeriodMonth
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 1, 0)
		name = budgetMonthly
	}

	limit, used, remaining := int64(0), int64(0), int64(-1)
	if s.br != nil {
		limit = s.br.Limit(name)
		used = s.br.Used(name)
		remaining = s.br.Remaining(name)
	}

	exhausted := limit > 0 && remaining <= 0
	b := budget.New(limit, remaining, exhausted, end.UnixMilli())

	return domusage.NewReport(period, start.UnixMilli(), end.UnixMilli(), used, b)
}
