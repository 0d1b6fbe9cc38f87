package connectivity

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ikkim/restaurant-reviews/pkg/logger"
)

// Checker answers "is the backend reachable right now". The answer is a
// point-in-time observation; it can be stale by the time a request is sent.
type Checker interface {
	IsOnline() bool
}

// Prober performs one reachability check.
type Prober interface {
	Ping(ctx context.Context) error
}

// Monitor probes the backend on an interval and tells subscribers when it
// comes back after being unreachable.
type Monitor struct {
	prober   Prober
	interval time.Duration
	timeout  time.Duration

	online    atomic.Bool
	checkedAt atomic.Int64

	mu        sync.Mutex
	listeners []func()
}

func NewMonitor(prober Prober, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Monitor{
		prober:   prober,
		interval: interval,
		timeout:  5 * time.Second,
	}
}

func (m *Monitor) IsOnline() bool {
	return m.online.Load()
}

// LastChecked is the time of the most recent probe.
func (m *Monitor) LastChecked() time.Time {
	ns := m.checkedAt.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// OnRestored registers fn to run (in its own goroutine) on every
// offline -> online transition.
func (m *Monitor) OnRestored(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Check probes once and records the result.
func (m *Monitor) Check(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	err := m.prober.Ping(ctx)
	m.Set(err == nil)
	if err != nil {
		logger.Debug("Backend unreachable", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return err == nil
}

// Set records a connectivity observation, e.g. from a failed request.
func (m *Monitor) Set(online bool) {
	m.checkedAt.Store(time.Now().UnixNano())
	was := m.online.Swap(online)
	if was == online {
		return
	}

	if online {
		logger.Info("Backend connectivity restored", nil)
		m.mu.Lock()
		listeners := append([]func(){}, m.listeners...)
		m.mu.Unlock()
		for _, fn := range listeners {
			go fn()
		}
	} else {
		logger.Warn("Backend connectivity lost", nil)
	}
}

// Run probes until ctx ends.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	logger.Info("Connectivity monitor started", map[string]interface{}{
		"interval": m.interval.String(),
	})
	m.Check(ctx)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Connectivity monitor stopped", nil)
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}

// Static is a fixed answer, for tests and for forcing offline mode.
type Static bool

func (s Static) IsOnline() bool {
	return bool(s)
}
