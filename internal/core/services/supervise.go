package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/studypipe/internal/core/domain"
	"github.com/custodia-labs/studypipe/internal/logger"
)

type stageOutcome[T any] struct {
	value T
	err   error
}

// stageDrainTimeout bounds how long a timed-out stage may take to return.
var stageDrainTimeout = 5 * time.Second

// supervise runs fn in its own goroutine bounded by timeout.
// A panic becomes domain.ErrStagePanic and an exceeded deadline becomes
// domain.ErrTimeout. Every error is attributed to stage.
//
// On timeout or cancellation supervise waits up to stageDrainTimeout for fn
// to return, so a late stage cannot write artifacts after the caller has
// started cleaning up. Whatever fn returns then is discarded.
func supervise[T any](
	ctx context.Context,
	stage string,
	timeout time.Duration,
	fn func(context.Context) (T, error),
) (T, error) {
	var zero T

	var (
		sctx   context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		sctx, cancel = context.WithTimeout(ctx, timeout)
	} else {
		sctx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	done := make(chan stageOutcome[T], 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- stageOutcome[T]{err: fmt.Errorf("%w: %v", domain.ErrStagePanic, r)}
			}
		}()
		v, err := fn(sctx)
		done <- stageOutcome[T]{value: v, err: err}
	}()

	select {
	case out := <-done:
		if out.err == nil {
			return out.value, nil
		}
		err := out.err
		if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, domain.ErrTimeout) && ctx.Err() == nil {
			err = fmt.Errorf("%w: %v", domain.ErrTimeout, err)
		}
		return zero, domain.NewStageError(stage, err)
	case <-sctx.Done():
		drain(done, stage)
		if err := ctx.Err(); err != nil {
			return zero, domain.NewStageError(stage, err)
		}
		return zero, domain.NewStageError(stage, fmt.Errorf("%w: stage exceeded %s", domain.ErrTimeout, timeout))
	}
}

// drain waits for an abandoned stage goroutine to finish.
func drain[T any](done <-chan stageOutcome[T], stage string) {
	t := time.NewTimer(stageDrainTimeout)
	defer t.Stop()
	select {
	case <-done:
	case <-t.C:
		logger.Warn("stage %s still running %s after its deadline", stage, stageDrainTimeout)
	}
}
