package shutdown

import (
	"context"
	"sync"

	"github.com/mindlabs/gomarket/pkg/logger"
)

type Handler func(ctx context.Context)

// Manager runs registered shutdown callbacks concurrently, bounded by
// the caller's context deadline.
type Manager struct {
	callbacks []Handler
	mu        sync.Mutex
}

func NewManager() *Manager {
	return &Manager{}
}

func (m *Manager) OnShutdown(handler Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, handler)
}

func (m *Manager) Shutdown(ctx context.Context) {
	m.mu.Lock()
	callbacks := m.callbacks
	m.mu.Unlock()

	if len(callbacks) == 0 {
		return
	}
	logger.Infof("shutting down, %d callbacks", len(callbacks))

	var wg sync.WaitGroup
	wg.Add(len(callbacks))
	for _, cb := range callbacks {
		go func(handler Handler) {
			defer wg.Done()
			handler(ctx)
		}(cb)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("shutdown complete")
	case <-ctx.Done():
		logger.Warnf("shutdown timed out: %v", ctx.Err())
	}
}
