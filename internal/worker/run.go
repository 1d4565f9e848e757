package worker

import (
	"context"
	"time"

	"preflight/internal/pkg/logger"
)

// Run consumes preflight requests until ctx is canceled.
func Run(ctx context.Context, d Deps) error {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}
	log = log.WithComponent("worker")

	popTimeout := d.PopTimeout
	if popTimeout <= 0 {
		popTimeout = 5 * time.Second
	}
	retryDelay := d.RetryDelay
	if retryDelay <= 0 {
		retryDelay = time.Second
	}

	for {
		select {
		case <-ctx.Done():
			log.Info("worker context canceled, stopping")
			return ctx.Err()
		default:
		}

		sceneID, err := d.Queue.Pop(ctx, popTimeout)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("worker stopping due to context cancellation")
				return ctx.Err()
			}

			log.Warn("queue pop error, retrying",
				"error", err.Error(),
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryDelay):
			}
			continue
		}

		if sceneID == "" {
			continue
		}

		sceneCtx := logger.ContextWithSceneID(ctx, sceneID)
		sceneLog := log.WithSceneID(sceneID)

		sceneLog.Info("processing preflight request")
		startTime := time.Now()

		if err := d.Processor.Process(sceneCtx, sceneID); err != nil {
			sceneLog.Error("preflight request failed",
				"error", err.Error(),
				"duration_ms", time.Since(startTime).Milliseconds(),
			)
		} else {
			sceneLog.Info("preflight request completed",
				"duration_ms", time.Since(startTime).Milliseconds(),
			)
		}
	}
}
