package search

import (
	"context"
	"errors"

	"github.com/kailas-cloud/shopdex/internal/domain"
	"github.com/kailas-cloud/shopdex/internal/domain/search/result"
)

// rung is one attempt on a degradation ladder.
type rung struct {
	name string
	run  func(ctx context.Context) ([]result.Scored, error)
	// descend reports whether the outcome falls through to the next rung.
	// A nil descend stops the ladder.
	descend func(hits []result.Scored, err error) bool
}

// climb is where a ladder stopped.
type climb struct {
	hits  []result.Scored
	err   error
	rung  string
	steps int
}

// runLadder evaluates rungs in order until one does not fall through.
// The last rung's outcome is returned as is.
func runLadder(ctx context.Context, rungs []rung) climb {
	var out climb
	for i, r := range rungs {
		hits, err := r.run(ctx)
		out = climb{hits: hits, err: err, rung: r.name, steps: i + 1}
		if r.descend == nil || !r.descend(hits, err) {
			break
		}
	}
	return out
}

func onErrorOrEmpty(hits []result.Scored, err error) bool {
	return err != nil || len(hits) == 0
}

func onEmbeddingRejected(_ []result.Scored, err error) bool {
	return errors.Is(err, domain.ErrEmbeddingRejected)
}
