package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// IntentChecker checks the intent analyzer's upstream model.
type IntentChecker interface {
	HealthCheck(ctx context.Context) error
}
