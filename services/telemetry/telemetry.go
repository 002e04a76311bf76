// Package telemetry forwards bus traffic to an outside observer: a serial
// line on the microcontrollers, an MQTT broker on hosts.
package telemetry

import (
	"context"
	"encoding/json"
	"sync/atomic"

	"fadecode-go/bus"
)

// Sink receives one encoded message.
type Sink interface {
	Send(topic string, payload []byte, retained bool) error
}

// DefaultTopics are forwarded when Service.Topics is empty.
var DefaultTopics = []bus.Topic{
	bus.T("fade", bus.MultiLevel),
	bus.T("system", bus.MultiLevel),
}

type Service struct {
	sink   Sink
	Topics []bus.Topic

	sent   uint32
	failed uint32
}

func New(sink Sink) *Service { return &Service{sink: sink} }

// Start subscribes and forwards until ctx is cancelled. Sink errors are
// logged and counted; they never stop the service.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	topics := s.Topics
	if len(topics) == 0 {
		topics = DefaultTopics
	}
	merged := make(chan *bus.Message, 8)
	subs := make([]*bus.Subscription, 0, len(topics))
	for _, t := range topics {
		subs = append(subs, conn.Subscribe(t))
	}
	for _, sub := range subs {
		go func(sub *bus.Subscription) {
			for m := range sub.Channel() {
				select {
				case merged <- m:
				case <-ctx.Done():
					return
				}
			}
		}(sub)
	}
	go func() {
		defer func() {
			for _, sub := range subs {
				conn.Unsubscribe(sub)
			}
		}()
		for {
			select {
			case <-ctx.Done():
				println("Info: telemetry stopping")
				return
			case m := <-merged:
				s.forward(m)
			}
		}
	}()
	return nil
}

func (s *Service) forward(m *bus.Message) {
	b, err := encode(m.Payload)
	if err == nil {
		err = s.sink.Send(m.Topic.String(), b, m.Retained)
	}
	if err != nil {
		atomic.AddUint32(&s.failed, 1)
		println("Error: telemetry", m.Topic.String(), err.Error())
		return
	}
	atomic.AddUint32(&s.sent, 1)
}

func encode(payload any) ([]byte, error) {
	switch p := payload.(type) {
	case []byte:
		return p, nil
	case string:
		return []byte(p), nil
	}
	return json.Marshal(payload)
}

// Counts returns the number of forwarded and failed messages.
func (s *Service) Counts() (sent, failed uint32) {
	return atomic.LoadUint32(&s.sent), atomic.LoadUint32(&s.failed)
}
