package engine

import (
	"fmt"
	"time"

	"github.com/chazu/spool/pkg/catalog"
)

// DefaultTimeout is the hard limit for a single evaluation.
const DefaultTimeout = 5 * time.Second

// Option configures an Engine.
type Option func(*Engine)

// WithTimeout bounds each evaluation. Non-positive durations keep
// DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// evalResult passes evaluation results through channels.
type evalResult struct {
	catalog *catalog.Catalog
	errors  []EvalError
	err     error
}

// wait returns the result from ch unless the evaluation outlives the
// engine timeout or a newer evaluation has started in the meantime.
//
// On timeout the evaluating goroutine may still be running; its result is
// dropped into the buffered channel and never read.
func (e *Engine) wait(ch <-chan evalResult, gen uint64) (*catalog.Catalog, []EvalError, error) {
	timer := time.NewTimer(e.timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		e.mu.Lock()
		current := e.generation
		e.mu.Unlock()

		if gen != current {
			return nil, nil, fmt.Errorf("evaluation superseded by newer request")
		}
		return res.catalog, res.errors, res.err

	case <-timer.C:
		return nil, nil, fmt.Errorf("evaluation timed out after %s", e.timeout)
	}
}
