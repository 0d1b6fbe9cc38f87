package connectivity

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeProber struct {
	fail atomic.Bool
}

func (p *fakeProber) Ping(ctx context.Context) error {
	if p.fail.Load() {
		return errors.New("connection refused")
	}
	return nil
}

func TestMonitor_CheckTracksState(t *testing.T) {
	prober := &fakeProber{}
	m := NewMonitor(prober, time.Second)

	assert.False(t, m.IsOnline(), "offline until proven otherwise")
	assert.True(t, m.Check(context.Background()))
	assert.True(t, m.IsOnline())
	assert.False(t, m.LastChecked().IsZero())

	prober.fail.Store(true)
	assert.False(t, m.Check(context.Background()))
	assert.False(t, m.IsOnline())
}

func TestMonitor_OnRestoredFiresOnTransitionOnly(t *testing.T) {
	m := NewMonitor(&fakeProber{}, time.Second)

	fired := make(chan struct{}, 4)
	m.OnRestored(func() { fired <- struct{}{} })

	m.Set(true)
	m.Set(true)
	m.Set(false)
	m.Set(true)

	for i := 0; i < 2; i++ {
		select {
		case <-fired:
		case <-time.After(time.Second):
			t.Fatalf("expected restore notification %d", i+1)
		}
	}
	select {
	case <-fired:
		t.Fatal("unexpected extra notification")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMonitor_RunStopsWithContext(t *testing.T) {
	m := NewMonitor(&fakeProber{}, 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, m.IsOnline, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop")
	}
}

func TestStatic(t *testing.T) {
	assert.True(t, Static(true).IsOnline())
	assert.False(t, Static(false).IsOnline())
}
