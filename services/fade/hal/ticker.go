//go:build !tinygo

package hal

import (
	"sync"
	"time"

	"fadecode-go/errcode"
)

// TickerSource is the PeriodicSource of ordinary Go builds. One goroutine
// owns the ticker and calls the handler, so invocations never overlap; if the
// handler overruns, missed ticks are dropped by time.Ticker rather than
// queued.
type TickerSource struct {
	mu      sync.Mutex
	period  time.Duration
	handler func()
	stop    chan struct{}
	done    chan struct{}
}

func NewTickerSource() *TickerSource { return &TickerSource{} }

func (s *TickerSource) Configure(period time.Duration, handler func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return errcode.New(errcode.InvalidParams, "hal.TickerSource", "already enabled")
	}
	if period <= 0 || handler == nil {
		return errcode.New(errcode.InvalidParams, "hal.TickerSource", "period and handler required")
	}
	s.period, s.handler = period, handler
	return nil
}

// Enable starts the ticker goroutine. Everything written before Enable is
// visible to the handler.
func (s *TickerSource) Enable() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handler == nil {
		return errcode.New(errcode.Misconfigured, "hal.TickerSource", "enable before configure")
	}
	if s.stop != nil {
		return nil
	}
	s.stop, s.done = make(chan struct{}), make(chan struct{})
	go s.run(s.period, s.handler, s.stop, s.done)
	return nil
}

func (s *TickerSource) run(period time.Duration, handler func(), stop, done chan struct{}) {
	defer close(done)
	t := time.NewTicker(period)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			handler()
		}
	}
}

// Close stops event delivery and waits for an in-flight handler to return.
func (s *TickerSource) Close() error {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()
	if stop == nil {
		return nil
	}
	close(stop)
	<-done
	return nil
}
