package ingest

import (
	"context"
	"fmt"

	"github.com/techbeetle/news-router/internal/logger"
)

// sideEffect is a follow-up write that must never fail the caller.
type sideEffect struct {
	name string
	run  func(ctx context.Context) error
}

// runSideEffects executes each task in its own error boundary and returns how many failed.
func runSideEffects(ctx context.Context, log logger.Logger, scope map[string]any, effects ...sideEffect) int {
	failed := 0
	for _, eff := range effects {
		if err := runIsolated(ctx, eff); err != nil {
			failed++
			fields := map[string]any{"task": eff.name, "error": err.Error()}
			for k, v := range scope {
				fields[k] = v
			}
			log.WarnObj("side effect failed", "side_effect_error", fields)
		}
	}
	return failed
}

func runIsolated(ctx context.Context, eff sideEffect) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return eff.run(ctx)
}
