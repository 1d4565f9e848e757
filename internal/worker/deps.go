package worker

import (
	"context"
	"time"

	"preflight/internal/pkg/logger"
)

// Queue hands out scene ids to validate.
type Queue interface {
	Pop(ctx context.Context, timeout time.Duration) (string, error)
}

// SceneProcessor validates one scene and publishes its report.
type SceneProcessor interface {
	Process(ctx context.Context, sceneID string) error
}

type Deps struct {
	Queue     Queue
	Processor SceneProcessor
	Log       *logger.Logger
	// PopTimeout bounds each blocking read; defaults to 5s.
	PopTimeout time.Duration
	// RetryDelay is the pause after a queue error; defaults to 1s.
	RetryDelay time.Duration
}
