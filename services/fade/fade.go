// Package fade runs the breathing-LED controller on a hal.Platform and
// reports its transitions on the bus.
//
// The controller itself lives in interrupt context. The only things that
// leave it are atomic counters and snapshots pushed into an SPSC ring at
// each direction change; a goroutine drains the ring and publishes.
package fade

import (
	"context"
	"sync/atomic"

	"fadecode-go/bus"
	"fadecode-go/errcode"
	"fadecode-go/services/fade/hal"
	"fadecode-go/services/fade/internal/ramp"
	"fadecode-go/types"
	"fadecode-go/x/ring"
	"fadecode-go/x/timex"
)

var (
	topicInfo  = bus.T("fade", "info")
	topicState = bus.T("fade", "state")
	topicValue = bus.T("fade", "value")
	topicStats = bus.T("fade", "stats")
)

// ringSize bounds the snapshots waiting for the publisher. Flips arrive once
// per second, so the ring only fills if the publisher stalls.
const ringSize = 8

type Service struct {
	p    hal.Platform
	ctrl *ramp.Controller
	q    *ring.Ring[ramp.Snapshot]

	started uint32

	// Written by the handler.
	events uint32
	flips  uint32
	drops  uint32
}

// New validates p and builds the controller with the fixed ramp
// configuration. Nothing is written to the peripherals until Start.
func New(p hal.Platform) (*Service, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	ctrl, err := ramp.New(ramp.DefaultConfig(), p.Ramp, p.Companion)
	if err != nil {
		return nil, err
	}
	return &Service{p: p, ctrl: ctrl, q: ring.New[ramp.Snapshot](ringSize)}, nil
}

// Start brings the peripherals up with interrupts masked, enables the
// periodic event and starts the publisher. It returns once event delivery
// is running; ctx only stops the publisher.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	if !atomic.CompareAndSwapUint32(&s.started, 0, 1) {
		return errcode.New(errcode.InvalidParams, "fade.Start", "already started")
	}
	if err := s.bringUp(conn); err != nil {
		// a failed start may be retried
		atomic.StoreUint32(&s.started, 0)
		s.publishState(conn, "failed", string(errcode.Of(err)))
		println("Error: fade start failed:", err.Error())
		return err
	}
	s.publishState(conn, "running", "ok")
	println("Info: fade running on", s.p.Name)
	go s.drain(ctx, conn)
	return nil
}

// bringUp is the one-time start-up sequence. Enable is the last step taken
// under the mask.
func (s *Service) bringUp(conn *bus.Connection) error {
	cfg := s.ctrl.Config()

	restore := s.p.Mask.Mask()
	defer restore()

	if err := s.p.Ramp.ConfigurePulseWidth(cfg.Max); err != nil {
		return errcode.Wrap(errcode.Of(err), "fade.pulse_width", err)
	}
	if err := s.p.Companion.ConfigureOutput(true); err != nil {
		return errcode.Wrap(errcode.Of(err), "fade.companion", err)
	}
	if err := s.p.Source.Configure(cfg.Period, s.onEvent); err != nil {
		return errcode.Wrap(errcode.Of(err), "fade.source", err)
	}
	s.ctrl.Reset()

	conn.Publish(conn.NewMessage(topicInfo, types.Info{
		SchemaVersion: 1,
		Driver:        "fade",
		Detail: types.FadeInfo{
			Platform:  s.p.Name,
			PeriodMs:  uint32(cfg.Period.Milliseconds()),
			Max:       uint8(cfg.Max),
			Threshold: cfg.Threshold,
		},
	}, true))
	s.publishValue(conn, s.ctrl.Snapshot())

	if err := s.p.Source.Enable(); err != nil {
		return errcode.Wrap(errcode.Of(err), "fade.enable", err)
	}
	return nil
}

// onEvent is the periodic handler. It must not block or allocate.
func (s *Service) onEvent() {
	tr := s.ctrl.OnPeriodicEvent()
	atomic.AddUint32(&s.events, 1)
	if tr == ramp.None {
		return
	}
	atomic.AddUint32(&s.flips, 1)
	if !s.q.TryPush(s.ctrl.Snapshot()) {
		atomic.AddUint32(&s.drops, 1)
	}
}

func (s *Service) drain(ctx context.Context, conn *bus.Connection) {
	for {
		select {
		case <-ctx.Done():
			println("Info: fade publisher stopping")
			return
		case <-s.q.Readable():
			for {
				snap, ok := s.q.TryPop()
				if !ok {
					break
				}
				s.publishValue(conn, snap)
				conn.Publish(conn.NewMessage(topicStats, s.Stats(), false))
			}
		}
	}
}

// Stats returns the handler counters.
func (s *Service) Stats() types.FadeStats {
	return types.FadeStats{
		Events: atomic.LoadUint32(&s.events),
		Flips:  atomic.LoadUint32(&s.flips),
		Drops:  atomic.LoadUint32(&s.drops),
	}
}

func (s *Service) publishValue(conn *bus.Connection, snap ramp.Snapshot) {
	conn.Publish(conn.NewMessage(topicValue, types.FadeValue{
		Duty:      uint8(snap.Duty),
		Direction: int8(snap.Direction),
		Companion: snap.Companion,
		TS:        timex.NowMs(),
	}, true))
}

func (s *Service) publishState(conn *bus.Connection, level, status string) {
	conn.Publish(conn.NewMessage(topicState, types.ServiceState{
		Level:  level,
		Status: status,
		TS:     timex.NowMs(),
	}, true))
}
