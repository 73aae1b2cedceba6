// Package server hosts the document worker: it reads requests from a message
// channel, runs them concurrently, and answers resource requests of the
// engine through the same channel.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/akashicode/pdfworker/internal/engine"
	"github.com/akashicode/pdfworker/internal/logger"
	"github.com/akashicode/pdfworker/internal/resource"
	"github.com/akashicode/pdfworker/internal/rpc"
)

var (
	// ErrNoEngine is returned by New without a document engine.
	ErrNoEngine = errors.New("document engine is required")
	// ErrNoCache is returned by New without a resource cache.
	ErrNoCache = errors.New("resource cache is required")
)

// Config holds the worker configuration.
type Config struct {
	Engine engine.Engine
	// Cache is the process-wide resource store. Each connection fetches
	// misses from its host first.
	Cache *resource.Cache
	// Local answers resource requests the host has no payload for. Optional.
	Local resource.Fetcher
	// CORSOrigins lists the origins allowed on HTTP endpoints; empty allows any.
	CORSOrigins []string
}

// Server is the document worker.
type Server struct {
	dispatcher *Dispatcher
	cache      *resource.Cache
	local      resource.Fetcher
	origins    []string
	log        zerolog.Logger
	mux        *http.ServeMux
}

// New creates a worker server.
func New(cfg Config) (*Server, error) {
	if cfg.Engine == nil {
		return nil, ErrNoEngine
	}
	if cfg.Cache == nil {
		return nil, ErrNoCache
	}

	s := &Server{
		dispatcher: &Dispatcher{Engine: cfg.Engine},
		cache:      cfg.Cache,
		local:      cfg.Local,
		origins:    cfg.CORSOrigins,
		log:        logger.WithComponent("server"),
		mux:        http.NewServeMux(),
	}
	s.registerRoutes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return corsMiddleware(s.origins, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)

	// any origin may connect; the worker holds no browser credentials
	s.mux.Handle("/worker", websocket.Server{
		Handler:   s.handleWorker,
		Handshake: func(*websocket.Config, *http.Request) error { return nil },
	})
}

// ListenAndServe serves HTTP on addr until ctx ends.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve %s: %w", addr, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

// ServeConn runs the worker protocol on conn until its input ends or ctx is
// done. Requests run on their own goroutines; responses from the host are
// routed to the connection's bridge. Once input ends pending resource
// requests fail, and ServeConn waits for every request to be answered. A
// broken connection also cancels the running requests.
func (s *Server) ServeConn(ctx context.Context, conn rpc.Conn) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	bridge, err := rpc.NewBridge(conn)
	if err != nil {
		return err
	}
	fetcher := resource.Fallback{resource.BridgeFetcher{Sender: bridge}}
	if s.local != nil {
		fetcher = append(fetcher, s.local)
	}
	cache, err := s.cache.WithFetcher(fetcher)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	readErr := s.readLoop(gctx, conn, bridge, cache, g)

	bridge.Close(readErr)
	if readErr != nil {
		cancel()
	}
	if err := g.Wait(); err != nil && readErr == nil {
		return err
	}
	return readErr
}

func (s *Server) readLoop(ctx context.Context, conn rpc.Conn, bridge *rpc.Bridge, cache *resource.Cache, g *errgroup.Group) error {
	for {
		msg, err := conn.ReadMessage()
		if err != nil {
			if errors.Is(err, rpc.ErrMalformedMessage) {
				s.log.Warn().Err(err).Msg("dropping malformed message")
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		if msg.IsResponse() {
			if !bridge.Deliver(msg) {
				s.log.Debug().Uint64("responseID", msg.ResponseID).Msg("no pending call for response")
			}
			continue
		}
		if msg.ID == 0 {
			s.log.Warn().Str("action", msg.Action).Msg("dropping request without id")
			continue
		}

		g.Go(func() error {
			resp := s.dispatcher.Handle(ctx, cache, msg)
			if err := conn.WriteMessage(resp); err != nil {
				return fmt.Errorf("reply to request %d: %w", msg.ID, err)
			}
			return nil
		})
	}
}

func (s *Server) handleWorker(ws *websocket.Conn) {
	ctx := ws.Request().Context()
	conn := newWSConn(ws)
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	s.log.Info().Str("remote", ws.Request().RemoteAddr).Msg("worker connected")
	if err := s.ServeConn(ctx, conn); err != nil {
		s.log.Warn().Err(err).Msg("worker connection ended")
		return
	}
	s.log.Info().Str("remote", ws.Request().RemoteAddr).Msg("worker disconnected")
}

// handleHealth returns a simple health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status": "ok",
		"cmaps":  s.cache.Len(resource.KindCMap),
		"fonts":  s.cache.Len(resource.KindStandardFont),
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func corsMiddleware(origins []string, next http.Handler) http.Handler {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := "*"
		if len(allowed) > 0 {
			origin = r.Header.Get("Origin")
			if !allowed[origin] {
				origin = ""
			}
		}
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
