package fade

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"fadecode-go/bus"
	"fadecode-go/errcode"
	"fadecode-go/services/fade/hal"
	"fadecode-go/types"
)

// recorder collects the order in which the fake peripherals are touched.
type recorder struct {
	mu  sync.Mutex
	log []string
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	r.log = append(r.log, s)
	r.mu.Unlock()
}

func (r *recorder) steps() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.log...)
}

type fakeMask struct{ r *recorder }

func (m fakeMask) Mask() func() {
	m.r.add("mask")
	return func() { m.r.add("restore") }
}

type fakeSource struct {
	r         *recorder
	period    time.Duration
	handler   func()
	enableErr error
}

func (s *fakeSource) Configure(period time.Duration, h func()) error {
	s.r.add("source.configure")
	s.period, s.handler = period, h
	return nil
}

func (s *fakeSource) Enable() error {
	s.r.add("source.enable")
	return s.enableErr
}

func (s *fakeSource) fire(n int) {
	for i := 0; i < n; i++ {
		s.handler()
	}
}

type fakePWM struct {
	r    *recorder
	top  hal.Duty
	duty hal.Duty
	err  error
}

func (p *fakePWM) ConfigurePulseWidth(top hal.Duty) error {
	p.r.add("pwm.configure")
	p.top = top
	return p.err
}

func (p *fakePWM) SetPulseWidth(d hal.Duty) { p.duty = d }

type fakeOut struct {
	r  *recorder
	on bool
}

func (o *fakeOut) ConfigureOutput(initial bool) error {
	o.r.add("out.configure")
	o.on = initial
	return nil
}

func (o *fakeOut) Set(on bool) { o.on = on }

type rig struct {
	rec *recorder
	src *fakeSource
	pwm *fakePWM
	out *fakeOut
	p   hal.Platform
}

func newRig() *rig {
	r := &recorder{}
	g := &rig{
		rec: r,
		src: &fakeSource{r: r},
		pwm: &fakePWM{r: r},
		out: &fakeOut{r: r},
	}
	g.p = hal.Platform{Name: "fake", Source: g.src, Ramp: g.pwm, Companion: g.out, Mask: fakeMask{r}}
	return g
}

func expectMessage(t *testing.T, sub *bus.Subscription) *bus.Message {
	t.Helper()
	select {
	case m := <-sub.Channel():
		return m
	case <-time.After(time.Second):
		t.Fatalf("no message on %s", sub.Topic())
		return nil
	}
}

func TestNewRejectsIncompletePlatform(t *testing.T) {
	g := newRig()
	g.p.Mask = nil
	if _, err := New(g.p); !errors.Is(err, errcode.InvalidParams) {
		t.Fatalf("want invalid_params, got %v", err)
	}
}

func TestStartOrdering(t *testing.T) {
	g := newRig()
	s, err := New(g.p)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if len(g.rec.steps()) != 0 {
		t.Fatalf("New touched peripherals: %v", g.rec.steps())
	}

	b := bus.NewBus(4)
	conn := b.NewConnection("test")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Start(ctx, conn); err != nil {
		t.Fatalf("Start: %v", err)
	}

	want := []string{"mask", "pwm.configure", "out.configure", "source.configure", "source.enable", "restore"}
	if got := g.rec.steps(); !reflect.DeepEqual(got, want) {
		t.Fatalf("start-up order\n got %v\nwant %v", got, want)
	}
	if g.pwm.top != 125 || g.src.period != 8*time.Millisecond {
		t.Fatalf("configured top=%d period=%v", g.pwm.top, g.src.period)
	}
	if g.pwm.duty != 0 || !g.out.on {
		t.Fatalf("initial outputs duty=%d companion=%v", g.pwm.duty, g.out.on)
	}

	info := expectMessage(t, conn.Subscribe(topicInfo))
	fi, ok := info.Payload.(types.Info).Detail.(types.FadeInfo)
	if !ok || fi != (types.FadeInfo{Platform: "fake", PeriodMs: 8, Max: 125, Threshold: 125}) {
		t.Fatalf("fade/info payload %+v", info.Payload)
	}
	st := expectMessage(t, conn.Subscribe(topicState)).Payload.(types.ServiceState)
	if st.Level != "running" {
		t.Fatalf("state %+v", st)
	}

	if err := s.Start(ctx, conn); err == nil {
		t.Fatal("second Start should fail")
	}
}

func TestStartFailureRestoresMask(t *testing.T) {
	g := newRig()
	g.src.enableErr = errcode.Timeout
	s, _ := New(g.p)
	conn := bus.NewBus(4).NewConnection("test")
	err := s.Start(context.Background(), conn)
	if errcode.Of(err) != errcode.Timeout {
		t.Fatalf("want timeout, got %v", err)
	}
	steps := g.rec.steps()
	if steps[len(steps)-1] != "restore" {
		t.Fatalf("mask not restored: %v", steps)
	}
	st := expectMessage(t, conn.Subscribe(topicState)).Payload.(types.ServiceState)
	if st.Level != "failed" || st.Status != string(errcode.Timeout) {
		t.Fatalf("state %+v", st)
	}
}

func TestStartRetriesAfterFailure(t *testing.T) {
	g := newRig()
	g.src.enableErr = errcode.Timeout
	s, _ := New(g.p)
	conn := bus.NewBus(4).NewConnection("test")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Start(ctx, conn); errcode.Of(err) != errcode.Timeout {
		t.Fatalf("want timeout, got %v", err)
	}

	g.src.enableErr = nil
	if err := s.Start(ctx, conn); err != nil {
		t.Fatalf("retry: %v", err)
	}
	st := expectMessage(t, conn.Subscribe(topicState)).Payload.(types.ServiceState)
	if st.Level != "running" {
		t.Fatalf("state %+v", st)
	}
	if err := s.Start(ctx, conn); errcode.Of(err) != errcode.InvalidParams {
		t.Fatalf("third Start: %v", err)
	}
}

func TestConfigureErrorStopsBeforeEnable(t *testing.T) {
	g := newRig()
	g.pwm.err = errors.New("no pwm")
	s, _ := New(g.p)
	if err := s.Start(context.Background(), bus.NewBus(4).NewConnection("test")); err == nil {
		t.Fatal("expected error")
	}
	want := []string{"mask", "pwm.configure", "restore"}
	if got := g.rec.steps(); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestFlipsReachBus(t *testing.T) {
	g := newRig()
	s, _ := New(g.p)
	b := bus.NewBus(8)
	conn := b.NewConnection("test")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Start(ctx, conn); err != nil {
		t.Fatalf("Start: %v", err)
	}

	values := conn.Subscribe(topicValue)
	stats := conn.Subscribe(topicStats)
	initial := expectMessage(t, values).Payload.(types.FadeValue)
	if initial.Duty != 0 || initial.Direction != 1 || !initial.Companion {
		t.Fatalf("retained initial value %+v", initial)
	}

	g.src.fire(125)
	v := expectMessage(t, values).Payload.(types.FadeValue)
	if v.Duty != 125 || v.Direction != -1 || v.Companion {
		t.Fatalf("after rise %+v", v)
	}
	if st := expectMessage(t, stats).Payload.(types.FadeStats); st != (types.FadeStats{Events: 125, Flips: 1}) {
		t.Fatalf("stats %+v", st)
	}
	if g.pwm.duty != 125 || g.out.on {
		t.Fatalf("outputs duty=%d companion=%v", g.pwm.duty, g.out.on)
	}

	g.src.fire(125)
	v = expectMessage(t, values).Payload.(types.FadeValue)
	if v.Duty != 0 || v.Direction != 1 || !v.Companion {
		t.Fatalf("after fall %+v", v)
	}
}

func TestFullRingCountsDrops(t *testing.T) {
	g := newRig()
	s, _ := New(g.p)
	conn := bus.NewBus(32).NewConnection("test")
	// Bring up without the publisher so nothing drains the ring.
	if err := s.bringUp(conn); err != nil {
		t.Fatalf("bringUp: %v", err)
	}

	const flips = ringSize + 5
	g.src.fire(flips * 125)
	if got := s.Stats(); got != (types.FadeStats{Events: flips * 125, Flips: flips, Drops: 5}) {
		t.Fatalf("stats %+v", got)
	}

	values := conn.Subscribe(topicValue)
	expectMessage(t, values) // retained
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	// Wake the publisher: the ring already holds ringSize snapshots.
	go s.drain(ctx, conn)
	for i := 0; i < ringSize; i++ {
		expectMessage(t, values)
	}
	select {
	case m := <-values.Channel():
		t.Fatalf("unexpected extra value %+v", m.Payload)
	case <-time.After(20 * time.Millisecond):
	}
}
