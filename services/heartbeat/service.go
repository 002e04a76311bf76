package heartbeat

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"fadecode-go/bus"
	"fadecode-go/types"
	"fadecode-go/x/mathx"
)

var (
	topicConfigHeartbeat = bus.T("config", "heartbeat")
	topicHeartbeat       = bus.T("system", "heartbeat")
)

// Interval bounds, in seconds.
const (
	minIntervalS = 1
	maxIntervalS = 3600
)

type Service struct {
	// unit scales configured intervals; one second outside tests.
	unit     time.Duration
	interval int64 // current interval in units, atomic
	seq      uint32
	started  time.Time
}

func New() *Service {
	return &Service{unit: time.Second, interval: 1}
}

// Interval returns the current tick interval.
func (s *Service) Interval() time.Duration {
	return time.Duration(atomic.LoadInt64(&s.interval)) * s.unit
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection, cfgSub *bus.Subscription) {
	defer conn.Unsubscribe(cfgSub)

	tick := time.NewTicker(s.Interval())
	defer tick.Stop()

	// loop until context is cancelled, respond to tick and config changes
	for {
		select {
		case <-ctx.Done():
			println("Info: heartbeat service stopping")
			return
		case t := <-tick.C:
			println("Info:", t.Format("15:04:05"), "Heartbeat")
			s.seq++
			conn.Publish(conn.NewMessage(topicHeartbeat, types.Heartbeat{
				Seq:      s.seq,
				UptimeMs: time.Since(s.started).Milliseconds(),
			}, false))
		case msg, ok := <-cfgSub.Channel():
			if !ok {
				return
			}
			iv, ok := intervalOf(msg.Payload)
			if !ok {
				println("Error: heartbeat config ignored")
				continue
			}
			iv = mathx.Clamp(iv, minIntervalS, maxIntervalS)
			atomic.StoreInt64(&s.interval, iv)
			tick.Reset(s.Interval())
			println("Info:", "Heartbeat interval set to", iv, "seconds")
		}
	}
}

// intervalOf accepts a typed config or a decoded JSON object.
func intervalOf(payload any) (int64, bool) {
	switch p := payload.(type) {
	case types.HeartbeatConfig:
		return int64(p.IntervalS), true
	case *types.HeartbeatConfig:
		if p == nil {
			return 0, false
		}
		return int64(p.IntervalS), true
	case map[string]any:
		switch v := p["interval"].(type) {
		case float64:
			if math.IsNaN(v) {
				return 0, false
			}
			return int64(mathx.Clamp(v, minIntervalS, maxIntervalS)), true
		case int:
			return int64(v), true
		}
	}
	return 0, false
}

// Start the heartbeat service. The config subscription is in place when
// Start returns, so a config published right after is not lost.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	s.started = time.Now()
	cfgSub := conn.Subscribe(topicConfigHeartbeat)
	go s.serviceLoop(ctx, conn, cfgSub)
	return nil
}
