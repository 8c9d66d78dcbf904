// Package netwatch tracks server reachability by probing the ping endpoint
// and reports transitions between online and offline.
package netwatch

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/formrelay/internal/logging"
)

// Pinger is the probe the watcher runs against the server.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Watcher polls the server on a fixed interval. It starts offline, so the
// first successful probe counts as a connectivity-restoration transition;
// that way submissions queued in a previous run are drained shortly after
// startup.
type Watcher struct {
	pinger       Pinger
	logger       logging.Logger
	interval     time.Duration
	probeTimeout time.Duration

	mu       sync.RWMutex
	online   bool
	onOnline func()
}

func New(pinger Pinger, logger logging.Logger, interval time.Duration, probeTimeout time.Duration) *Watcher {
	return &Watcher{
		pinger:       pinger,
		logger:       logger,
		interval:     interval,
		probeTimeout: probeTimeout,
	}
}

// OnOnline registers the callback invoked on every offline-to-online
// transition. Must be called before Start.
func (w *Watcher) OnOnline(fn func()) {
	w.onOnline = fn
}

// Online reports the last observed connectivity state.
func (w *Watcher) Online() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.online
}

// Start launches the probe loop. It exits when ctx is canceled.
func (w *Watcher) Start(ctx context.Context) {
	go func() {
		w.probe(ctx)

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				w.probe(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (w *Watcher) probe(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, w.probeTimeout)
	err := w.pinger.Ping(probeCtx)
	cancel()

	w.setOnline(ctx, err == nil)
}

func (w *Watcher) setOnline(ctx context.Context, online bool) {
	w.mu.Lock()
	changed := w.online != online
	w.online = online
	w.mu.Unlock()

	if !changed {
		return
	}

	if online {
		w.logger.Info(ctx, "connectivity restored")
		if w.onOnline != nil {
			w.onOnline()
		}
	} else {
		w.logger.Info(ctx, "connectivity lost")
	}
}
