package resilience

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrNoStrategies is returned by First when called with no strategies.
var ErrNoStrategies = eris.New("resilience: no strategies")

// Strategy is one named way of producing a value.
type Strategy[T any] struct {
	Name string
	Run  func(ctx context.Context) (T, error)
}

// First runs strategies in order, never concurrently, and returns the value
// and name of the first one that succeeds. If all fail, the last failure is
// returned. A cancelled context stops the chain.
func First[T any](ctx context.Context, strategies ...Strategy[T]) (T, string, error) {
	var zero T
	if len(strategies) == 0 {
		return zero, "", ErrNoStrategies
	}

	var lastErr error
	for _, s := range strategies {
		if err := ctx.Err(); err != nil {
			return zero, "", eris.Wrap(err, "resilience: chain cancelled")
		}
		val, err := s.Run(ctx)
		if err == nil {
			return val, s.Name, nil
		}
		zap.L().Debug("resilience: strategy failed, trying next",
			zap.String("strategy", s.Name),
			zap.Error(err),
		)
		lastErr = err
	}
	return zero, "", lastErr
}
