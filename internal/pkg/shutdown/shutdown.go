// Package shutdown coordinates graceful shutdown of the preflight services.
package shutdown

import (
	"context"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/sourcegraph/conc"

	"preflight/internal/pkg/logger"
)

// Manager runs registered cleanup handlers once, under a shared deadline.
type Manager struct {
	log      *logger.Logger
	timeout  time.Duration
	handlers []Handler
	mu       sync.Mutex
	once     sync.Once
	done     chan struct{}
	failed   atomic.Int32
}

// Handler is a named cleanup step.
type Handler struct {
	Name    string
	Cleanup func(ctx context.Context) error
}

// NewManager creates a manager. A zero timeout means 30s.
func NewManager(log *logger.Logger, timeout time.Duration) *Manager {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Manager{
		log:     log.WithComponent("shutdown"),
		timeout: timeout,
		done:    make(chan struct{}),
	}
}

// Register adds a cleanup handler.
func (m *Manager) Register(name string, cleanup func(ctx context.Context) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, Handler{Name: name, Cleanup: cleanup})
	m.log.Debug("registered shutdown handler", "name", name)
}

// RegisterSimple adds a cleanup handler that cannot fail.
func (m *Manager) RegisterSimple(name string, cleanup func()) {
	m.Register(name, func(context.Context) error {
		cleanup()
		return nil
	})
}

// Wait blocks until SIGINT, SIGTERM or SIGHUP, then shuts down.
func (m *Manager) Wait() {
	m.WaitWithContext(context.Background())
}

// WaitWithContext blocks until a signal arrives or ctx is done, then shuts down.
func (m *Manager) WaitWithContext(ctx context.Context) {
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	<-sigCtx.Done()
	if ctx.Err() != nil {
		m.log.Info("context canceled, initiating shutdown")
	} else {
		m.log.Info("shutdown signal received")
	}
	m.Shutdown()
}

// Shutdown runs every handler concurrently and waits for them or the timeout.
// Calls after the first are no-ops.
func (m *Manager) Shutdown() {
	m.once.Do(m.shutdown)
}

func (m *Manager) shutdown() {
	defer close(m.done)

	m.mu.Lock()
	handlers := append([]Handler(nil), m.handlers...)
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	m.log.Info("starting graceful shutdown", "handlers", len(handlers), "timeout", m.timeout.String())

	var wg conc.WaitGroup
	for _, h := range handlers {
		wg.Go(func() {
			start := time.Now()
			if err := h.Cleanup(ctx); err != nil {
				m.failed.Add(1)
				m.log.Error("shutdown handler failed",
					"name", h.Name,
					"error", err.Error(),
					"duration_ms", time.Since(start).Milliseconds(),
				)
				return
			}
			m.log.Debug("shutdown handler completed",
				"name", h.Name,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}

	finished := make(chan struct{})
	go func() {
		// conc re-panics a handler panic here; recover it so shutdown still completes.
		defer func() {
			if r := recover(); r != nil {
				m.log.Error("shutdown handler panicked", "panic", r)
			}
			close(finished)
		}()
		wg.Wait()
	}()

	select {
	case <-finished:
		m.log.Info("graceful shutdown completed")
	case <-ctx.Done():
		m.log.Warn("shutdown timeout exceeded, forcing exit")
	}
}

// Failed reports how many handlers returned an error. Valid after Done is closed.
func (m *Manager) Failed() int {
	return int(m.failed.Load())
}

// Done is closed when shutdown has finished.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// Context returns a context that is canceled once shutdown has finished.
func (m *Manager) Context() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-m.done
		cancel()
	}()
	return ctx
}
