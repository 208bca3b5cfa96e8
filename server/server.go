// Package server owns the TCP listener and the per-connection sessions of
// the excerpt service.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"soundbite/services"
	"soundbite/websocket"
	"sync/atomic"
)

// Stats holds process-lifetime counters, exposed via the admin surface.
type Stats struct {
	Connections atomic.Int64
	Commands    atomic.Int64
	Excerpts    atomic.Int64
	Errors      atomic.Int64
}

// StatsSnapshot is a point-in-time copy of the counters.
type StatsSnapshot struct {
	Connections int64 `json:"connections"`
	Commands    int64 `json:"commands"`
	Excerpts    int64 `json:"excerpts"`
	Errors      int64 `json:"errors"`
}

// Snapshot copies the counters.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Connections: s.Connections.Load(),
		Commands:    s.Commands.Load(),
		Excerpts:    s.Excerpts.Load(),
		Errors:      s.Errors.Load(),
	}
}

// Options configures a Server.
type Options struct {
	Addr        string // host:port to bind
	LegacyPlain bool   // unframed LIST/error replies, original protocol
}

// Server accepts client connections and spawns one session per connection.
// The catalog is shared read-only across sessions; no locking is needed
// because nothing mutates it after startup.
type Server struct {
	opts      Options
	catalog   services.CatalogService
	engine    services.AudioEngine
	validator services.Validator
	hub       websocket.Hub // may be nil when the admin surface is off
	stats     *Stats

	ln net.Listener
}

// New creates a Server. The hub may be nil.
func New(opts Options, catalog services.CatalogService, engine services.AudioEngine, hub websocket.Hub) *Server {
	return &Server{
		opts:      opts,
		catalog:   catalog,
		engine:    engine,
		validator: services.NewValidator(catalog, engine),
		hub:       hub,
		stats:     &Stats{},
	}
}

// Stats exposes the server's counters.
func (s *Server) Stats() *Stats {
	return s.stats
}

// Addr returns the bound listener address. Only valid after Listen.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Listen binds the listening socket without accepting yet, so callers can
// learn the bound port before serving.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("bind %s: %w", s.opts.Addr, err)
	}
	s.ln = ln
	log.Printf("Server listening on %s", ln.Addr())
	return nil
}

// Serve accepts connections until the context is cancelled or the listener
// fails. In-flight sessions are not joined on shutdown; they end when their
// connection does.
func (s *Server) Serve(ctx context.Context) error {
	if s.ln == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	go func() {
		<-ctx.Done()
		s.ln.Close()
	}()

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				log.Printf("Server stopped accepting connections")
				return nil
			}
			log.Printf("Accept error: %v", err)
			continue
		}

		s.stats.Connections.Add(1)
		sess := newSession(conn, s)
		go sess.run(ctx)
	}
}
