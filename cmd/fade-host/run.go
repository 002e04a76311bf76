package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"fadecode-go/bus"
	"fadecode-go/cmd/fade-host/config"
	"fadecode-go/services/fade"
	"fadecode-go/services/fade/hal"
	"fadecode-go/services/heartbeat"
	"fadecode-go/services/telemetry"
	"fadecode-go/services/web"
	"fadecode-go/types"

	"github.com/womat/debug"
)

func platform(cfg *config.Config) (hal.Platform, error) {
	if cfg.Sim {
		var console *hal.Console
		if cfg.Console {
			console = hal.NewConsole(nil, nil)
		}
		p, _ := hal.Simulated(console)
		return p, nil
	}
	return hal.Host(cfg.HostConfig())
}

// run wires the services onto one bus and blocks until a signal arrives.
func run(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p, err := platform(cfg)
	if err != nil {
		debug.ErrorLog.Printf("can't build platform: %v", err)
		return err
	}
	defer func() {
		if p.Release != nil {
			if err := p.Release(); err != nil {
				debug.ErrorLog.Printf("releasing %s: %v", p.Name, err)
			}
		}
	}()

	b := bus.NewBus(16)
	logBus(ctx, b.NewConnection("log"))

	hbConn := b.NewConnection("heartbeat")
	if err := heartbeat.New().Start(ctx, hbConn); err != nil {
		return err
	}
	if cfg.Heartbeat.Interval != 1 {
		hbConn.Publish(hbConn.NewMessage(bus.T("config", "heartbeat"),
			types.HeartbeatConfig{IntervalS: cfg.Heartbeat.Interval}, true))
	}

	if cfg.MQTT.Broker != "" {
		sink := telemetry.NewMQTTSink(cfg.MQTTSinkConfig())
		defer func() { _ = sink.Close() }()
		if err := telemetry.New(sink).Start(ctx, b.NewConnection("telemetry")); err != nil {
			return err
		}
		debug.InfoLog.Printf("forwarding telemetry to %s", cfg.MQTT.Broker)
	}

	if cfg.Webserver.URL != "" {
		w, err := web.New(web.Config{
			URL:         cfg.Webserver.URL,
			Webservices: cfg.Webserver.Webservices,
			Module:      MODULE,
			Version:     VERSION,
		})
		if err != nil {
			debug.ErrorLog.Printf("error parsing url %q: %v", cfg.Webserver.URL, err)
			return err
		}
		if err := w.Start(ctx, b.NewConnection("web")); err != nil {
			return err
		}
	}

	svc, err := fade.New(p)
	if err != nil {
		debug.ErrorLog.Printf("can't create fade service: %v", err)
		return err
	}
	if err := svc.Start(ctx, b.NewConnection("fade")); err != nil {
		return err
	}
	debug.InfoLog.Printf("%s %s running on %s", MODULE, VERSION, p.Name)

	// capture exit signals to ensure resources are released on exit.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	sig := <-quit
	st := svc.Stats()
	debug.InfoLog.Printf("got %s signal after %d events, %d flips, %d drops", sig, st.Events, st.Flips, st.Drops)
	return nil
}

// logBus writes every fade message to the debug log.
func logBus(ctx context.Context, conn *bus.Connection) {
	sub := conn.Subscribe(bus.T("fade", bus.MultiLevel))
	go func() {
		defer conn.Disconnect()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-sub.Channel():
				if !ok {
					return
				}
				debug.DebugLog.Printf("%s %+v", m.Topic, m.Payload)
			}
		}
	}()
}
