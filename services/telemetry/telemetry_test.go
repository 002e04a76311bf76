package telemetry

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"fadecode-go/bus"
	"fadecode-go/types"
)

type sent struct {
	topic    string
	payload  string
	retained bool
}

type chanSink struct {
	ch  chan sent
	err error
}

func (s *chanSink) Send(topic string, payload []byte, retained bool) error {
	s.ch <- sent{topic, string(payload), retained}
	return s.err
}

func expectSent(t *testing.T, ch <-chan sent) sent {
	t.Helper()
	select {
	case m := <-ch:
		return m
	case <-time.After(time.Second):
		t.Fatal("nothing sent")
		return sent{}
	}
}

func TestForwardsMatchingTopics(t *testing.T) {
	b := bus.NewBus(8)
	conn := b.NewConnection("test")
	sink := &chanSink{ch: make(chan sent, 8)}
	s := New(sink)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Start(ctx, conn); err != nil {
		t.Fatalf("Start: %v", err)
	}

	conn.Publish(conn.NewMessage(bus.T("fade", "value"),
		types.FadeValue{Duty: 125, Direction: -1, TS: 42}, true))
	got := expectSent(t, sink.ch)
	want := sent{"fade/value", `{"duty":125,"direction":-1,"companion":false,"ts_ms":42}`, true}
	if got != want {
		t.Fatalf("got %+v\nwant %+v", got, want)
	}

	conn.Publish(conn.NewMessage(bus.T("config", "heartbeat"), "ignored", false))
	conn.Publish(conn.NewMessage(bus.T("system", "heartbeat"), types.Heartbeat{Seq: 3, UptimeMs: 3000}, false))
	got = expectSent(t, sink.ch)
	if got.topic != "system/heartbeat" || got.payload != `{"seq":3,"uptime_ms":3000}` || got.retained {
		t.Fatalf("heartbeat forwarded as %+v", got)
	}

	deadline := time.Now().Add(time.Second)
	for {
		if n, f := s.Counts(); n == 2 && f == 0 {
			break
		}
		if time.Now().After(deadline) {
			n, f := s.Counts()
			t.Fatalf("counts sent=%d failed=%d", n, f)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestSinkErrorsAreCounted(t *testing.T) {
	conn := bus.NewBus(8).NewConnection("test")
	sink := &chanSink{ch: make(chan sent, 8), err: errors.New("link down")}
	s := New(sink)
	s.Topics = []bus.Topic{bus.T("x")}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_ = s.Start(ctx, conn)

	conn.Publish(conn.NewMessage(bus.T("x"), []byte("raw"), false))
	if got := expectSent(t, sink.ch); got.payload != "raw" {
		t.Fatalf("raw payload re-encoded: %q", got.payload)
	}
	deadline := time.Now().Add(time.Second)
	for {
		if _, f := s.Counts(); f == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("failure not counted")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestWriterSinkLineFormat(t *testing.T) {
	var buf bytes.Buffer
	s := NewWriterSink(&buf)
	_ = s.Send("fade/stats", []byte(`{"events":1}`), false)
	_ = s.Send("system/heartbeat", []byte(`{}`), false)
	want := "fade/stats {\"events\":1}\nsystem/heartbeat {}\n"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}
}
