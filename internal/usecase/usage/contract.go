package usage

// BudgetReader provides read-only access to the intent token budget.
// Periods are "daily" and "monthly".
type BudgetReader interface {
	Limit(period string) int64
	Used(period string) int64
	Remaining(period string) int64
}
