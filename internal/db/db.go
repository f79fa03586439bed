package db

import (
	"context"
	"time"
)

// Store is the database facade the server wires up.
// Consumers depend on the narrow sub-interfaces.
type Store interface {
	Pinger
	Searcher
	Counter
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Searcher runs read-only queries over FT indexes.
type Searcher interface {
	SearchText(ctx context.Context, q *TextQuery) (*SearchResult, error)
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
}

// Counter keeps integer counters with expiry.
type Counter interface {
	Get(ctx context.Context, key string) ([]byte, error)
	IncrBy(ctx context.Context, key string, val int64) error
	// Expire sets a TTL. With nx it only applies to keys without one.
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}
