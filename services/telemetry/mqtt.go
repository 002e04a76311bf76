//go:build !tinygo

package telemetry

import (
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"fadecode-go/errcode"

	mqtt "github.com/soypat/natiu-mqtt"
)

// MQTTConfig describes the broker connection.
type MQTTConfig struct {
	Broker   string // host:port
	ClientID string
	Prefix   string // prepended to every bus topic, e.g. "lab/uno1/"
	Username string
	Password string
	Timeout  time.Duration
}

// MQTTSink publishes at QoS0, connecting lazily and reconnecting after any
// failed publish.
type MQTTSink struct {
	cfg  MQTTConfig
	dial func() (net.Conn, error)

	mu     sync.Mutex
	client *mqtt.Client
	conn   net.Conn
	pid    uint16
}

func NewMQTTSink(cfg MQTTConfig) *MQTTSink {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "fadecode"
	}
	s := &MQTTSink{cfg: cfg}
	s.dial = func() (net.Conn, error) { return net.DialTimeout("tcp", cfg.Broker, cfg.Timeout) }
	return s
}

func (s *MQTTSink) Send(topic string, payload []byte, retained bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil || !s.client.IsConnected() {
		if err := s.connect(); err != nil {
			return err
		}
	}
	flags, err := mqtt.NewPublishFlags(mqtt.QoS0, false, retained)
	if err != nil {
		return errcode.Wrap(errcode.InvalidParams, "telemetry.mqtt", err)
	}
	s.pid++
	vp := mqtt.VariablesPublish{
		TopicName:        []byte(s.cfg.Prefix + topic),
		PacketIdentifier: s.pid,
	}
	_ = s.conn.SetDeadline(time.Now().Add(s.cfg.Timeout))
	if err := s.client.PublishPayload(flags, vp, payload); err != nil {
		s.closeLocked()
		return errcode.Wrap(errcode.NotConnected, "telemetry.mqtt", err)
	}
	return nil
}

// caller holds lock
func (s *MQTTSink) connect() error {
	s.closeLocked()
	conn, err := s.dial()
	if err != nil {
		return errcode.Wrap(errcode.NotConnected, "telemetry.mqtt", err)
	}

	client := mqtt.NewClient(mqtt.ClientConfig{
		Decoder: mqtt.DecoderNoAlloc{UserBuffer: make([]byte, 1024)},
		OnPub: func(_ mqtt.Header, _ mqtt.VariablesPublish, r io.Reader) error {
			_, err := io.Copy(io.Discard, r)
			return err
		},
	})
	var varconn mqtt.VariablesConnect
	varconn.SetDefaultMQTT([]byte(s.cfg.ClientID))
	if s.cfg.Username != "" {
		varconn.Username = []byte(s.cfg.Username)
		if s.cfg.Password != "" {
			varconn.Password = []byte(s.cfg.Password)
		}
	}

	_ = conn.SetDeadline(time.Now().Add(s.cfg.Timeout))
	if err := client.StartConnect(conn, &varconn); err != nil {
		_ = conn.Close()
		return errcode.Wrap(errcode.NotConnected, "telemetry.mqtt", err)
	}
	for !client.IsConnected() {
		if err := client.HandleNext(); err != nil {
			_ = conn.Close()
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				return errcode.Wrap(errcode.Timeout, "telemetry.mqtt", err)
			}
			return errcode.Wrap(errcode.NotConnected, "telemetry.mqtt", err)
		}
	}
	s.client, s.conn = client, conn
	return nil
}

// caller holds lock
func (s *MQTTSink) closeLocked() {
	if s.conn != nil {
		_ = s.conn.Close()
	}
	s.client, s.conn = nil, nil
}

// Close drops the broker connection.
func (s *MQTTSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
	return nil
}
