package intent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/shopdex/internal/domain"
)

// BudgetAction defines behavior when the token budget is spent.
type BudgetAction string

const (
	// BudgetActionWarn logs a warning but lets the analyzer run.
	BudgetActionWarn BudgetAction = "warn"
	// BudgetActionReject skips the analyzer; search falls back to the rules classifier.
	BudgetActionReject BudgetAction = "reject"
)

// Budget periods, also used as metric labels.
const (
	PeriodDaily   = "daily"
	PeriodMonthly = "monthly"
)

// BudgetStore persists token counters across restarts and replicas.
type BudgetStore interface {
	IncrBy(ctx context.Context, key string, val int64) error
	Get(ctx context.Context, key string) (int64, error)
}

// window is one budget period. A zero limit is unlimited.
type window struct {
	period string
	layout string
	limit  int64
	used   int64
	start  time.Time
	floor  func(time.Time) time.Time
}

func (w *window) roll(now time.Time) {
	if s := w.floor(now); s.After(w.start) {
		w.start = s
		w.used = 0
	}
}

func (w *window) exceeded() bool { return w.limit > 0 && w.used >= w.limit }

func (w *window) remaining() int64 {
	if w.limit == 0 {
		return -1
	}
	return max(w.limit-w.used, 0)
}

// Budget tracks tokens spent on intent analysis per day and month.
// Check is in-memory; Record writes behind to the store when one is attached.
type Budget struct {
	mu      sync.Mutex
	daily   window
	monthly window
	action  BudgetAction
	store   BudgetStore
	now     func() time.Time
	logger  *zap.Logger
}

// NewBudget creates a budget with the given limits. Zero means unlimited.
func NewBudget(dailyLimit, monthlyLimit int64, action BudgetAction, logger *zap.Logger) *Budget {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Budget{
		daily:   window{period: PeriodDaily, layout: "2006-01-02", limit: dailyLimit, floor: startOfDay},
		monthly: window{period: PeriodMonthly, layout: "2006-01", limit: monthlyLimit, floor: startOfMonth},
		action:  action,
		now:     func() time.Time { return time.Now().UTC() },
		logger:  logger,
	}
	now := b.now()
	b.daily.start = startOfDay(now)
	b.monthly.start = startOfMonth(now)
	return b
}

// WithStore attaches a persistence store and loads the current counters.
func (b *Budget) WithStore(ctx context.Context, store BudgetStore) *Budget {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.store = store
	now := b.now()
	for _, w := range b.windows() {
		w.roll(now)
		val, err := store.Get(ctx, budgetKey(w, now))
		if err != nil {
			b.logger.Warn("Failed to load intent budget", zap.String("period", w.period), zap.Error(err))
			continue
		}
		w.used = val
	}

	b.logger.Info("Intent budget loaded",
		zap.Int64("daily_used", b.daily.used),
		zap.Int64("monthly_used", b.monthly.used),
	)
	return b
}

func (b *Budget) windows() []*window { return []*window{&b.daily, &b.monthly} }

func budgetKey(w *window, t time.Time) string {
	return fmt.Sprintf("%sbudget:intent:%s:%s", domain.KeyPrefix, w.period, t.Format(w.layout))
}

// Check reports whether another analyzer call is allowed.
func (b *Budget) Check(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	var spent []string
	for _, w := range b.windows() {
		w.roll(now)
		if w.exceeded() {
			spent = append(spent, w.period)
		}
	}
	if len(spent) == 0 {
		return nil
	}

	if b.action == BudgetActionReject {
		return fmt.Errorf("%w: %v", domain.ErrBudgetExceeded, spent)
	}

	b.logger.Warn("Intent token budget exceeded",
		zap.Strings("periods", spent),
		zap.Int64("daily_used", b.daily.used),
		zap.Int64("daily_limit", b.daily.limit),
		zap.Int64("monthly_used", b.monthly.used),
		zap.Int64("monthly_limit", b.monthly.limit),
	)
	return nil
}

// Record adds consumed tokens and persists them if a store is attached.
func (b *Budget) Record(tokens int64) {
	if tokens <= 0 {
		return
	}

	b.mu.Lock()
	now := b.now()
	keys := make([]string, 0, 2)
	for _, w := range b.windows() {
		w.roll(now)
		w.used += tokens
		keys = append(keys, budgetKey(w, now))
	}
	store := b.store
	b.mu.Unlock()

	if store == nil {
		return
	}

	// Detached from the request: a cancelled search must still be billed.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for _, key := range keys {
		if err := store.IncrBy(ctx, key, tokens); err != nil {
			b.logger.Warn("Failed to persist intent budget", zap.String("key", key), zap.Error(err))
		}
	}
}

// Remaining returns tokens left in a period, -1 when unlimited.
func (b *Budget) Remaining(period string) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	for _, w := range b.windows() {
		if w.period == period {
			w.roll(now)
			return w.remaining()
		}
	}
	return -1
}

// Limit returns the configured cap of a period, 0 when unlimited.
func (b *Budget) Limit(period string) int64 {
	for _, w := range b.windows() {
		if w.period == period {
			return w.limit
		}
	}
	return 0
}

// Used returns tokens consumed in a period.
func (b *Budget) Used(period string) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	for _, w := range b.windows() {
		if w.period == period {
			w.roll(now)
			return w.used
		}
	}
	return 0
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
