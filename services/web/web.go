//go:build !tinygo

// Package web serves the host's view of the bus over HTTP: the latest
// message on every fade and system topic, plus version and health.
package web

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"runtime"
	"sync"
	"time"

	"fadecode-go/bus"

	"github.com/gofiber/fiber/v2"
	"github.com/womat/debug"
)

var watched = []bus.Topic{
	bus.T("fade", bus.MultiLevel),
	bus.T("system", bus.MultiLevel),
}

// Config selects the listen address and which routes are served.
type Config struct {
	URL         string
	Webservices map[string]bool // "version", "health", "state"
	Module      string
	Version     string
}

type Service struct {
	cfg Config
	web *fiber.App

	mu    sync.RWMutex
	state map[string]any
}

// New parses the listen URL and registers the enabled routes.
func New(cfg Config) (*Service, error) {
	if _, err := url.Parse(cfg.URL); err != nil {
		return nil, err
	}
	s := &Service{
		cfg:   cfg,
		web:   fiber.New(fiber.Config{DisableStartupMessage: true}),
		state: map[string]any{},
	}
	s.initRoutes()
	return s, nil
}

// App exposes the fiber instance, mainly for app.Test.
func (s *Service) App() *fiber.App { return s.web }

func (s *Service) initRoutes() {
	api := s.web.Group("/")
	if s.cfg.Webservices["version"] {
		api.Get("/version", s.handleVersion())
	}
	if s.cfg.Webservices["health"] {
		api.Get("/health", s.handleHealth())
	}
	if s.cfg.Webservices["state"] {
		api.Get("/state", s.handleState())
	}
}

// Start records bus traffic and listens until ctx is cancelled.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	u, err := url.Parse(s.cfg.URL)
	if err != nil {
		return err
	}
	s.watch(ctx, conn)
	go func() {
		if err := s.web.Listen(u.Host); err != nil {
			debug.ErrorLog.Printf("web server %s: %v", u.Host, err)
		}
	}()
	go func() {
		<-ctx.Done()
		_ = s.web.Shutdown()
	}()
	return nil
}

// watch keeps the latest payload of every watched topic until ctx ends.
// The returned channel closes once the subscriptions are gone.
func (s *Service) watch(ctx context.Context, conn *bus.Connection) <-chan struct{} {
	var wg sync.WaitGroup
	for _, t := range watched {
		sub := conn.Subscribe(t)
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer conn.Unsubscribe(sub)
			for {
				select {
				case <-ctx.Done():
					return
				case m, ok := <-sub.Channel():
					if !ok {
						return
					}
					s.record(m)
				}
			}
		}()
	}
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	return done
}

func (s *Service) record(m *bus.Message) {
	s.mu.Lock()
	s.state[m.Topic.String()] = m.Payload
	s.mu.Unlock()
}

func (s *Service) handleState() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		debug.DebugLog.Print("web request state")
		s.mu.RLock()
		defer s.mu.RUnlock()
		return ctx.JSON(s.state)
	}
}

func (s *Service) handleVersion() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		debug.DebugLog.Print("web request version")
		return ctx.JSON(fiber.Map{
			"version":     s.cfg.Version,
			"description": s.cfg.Module,
		})
	}
}

func (s *Service) handleHealth() fiber.Handler {
	host, _ := os.Hostname()
	return func(ctx *fiber.Ctx) error {
		debug.DebugLog.Print("web request health")

		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		health := struct {
			NumGoroutines      int
			HeapAllocatedBytes uint64
			SysMemoryBytes     uint64
			Version            string
			ProgLang           string
			HostName           string
			Time               string
		}{
			NumGoroutines:      runtime.NumGoroutine(),
			HeapAllocatedBytes: m.Alloc,
			SysMemoryBytes:     m.Sys,
			Version:            s.cfg.Version,
			ProgLang:           runtime.Version(),
			HostName:           host,
			Time:               time.Now().Format(time.RFC3339),
		}
		ctx.Status(http.StatusOK)
		return ctx.JSON(health)
	}
}
