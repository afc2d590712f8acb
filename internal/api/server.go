package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"matchcore/internal/config"
	"matchcore/internal/engine"
	"matchcore/internal/transport"
)

// Server runs the REST + websocket surface over an engine.Context. It is a
// thin transport: every handler decodes, calls the engine, and encodes —
// all matching semantics live in internal/book and internal/product.
type Server struct {
	port     int
	hub      *transport.Hub
	handlers *Handlers
	server   *http.Server
	stop     chan struct{}
	logger   *slog.Logger
}

// NewServer builds the route table and wraps it in an *http.Server bound to
// cfg.Port. The returned Server also owns the websocket Hub's dispatch loop.
func NewServer(cfg config.DashboardConfig, ctx *engine.Context, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	hub := transport.NewHub(logger)
	handlers := NewHandlers(ctx, cfg, hub, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handlers.HandleHealth)
	mux.HandleFunc("POST /products", handlers.HandleCreateProduct)
	mux.HandleFunc("POST /users", handlers.HandleCreateUser)
	mux.HandleFunc("POST /orders", handlers.HandleSubmitOrder)
	mux.HandleFunc("POST /quotes", handlers.HandleSubmitQuote)
	mux.HandleFunc("DELETE /orders/{side}/{id}", handlers.HandleCancelOrder)
	mux.HandleFunc("DELETE /quotes/{user}", handlers.HandleCancelQuote)
	mux.HandleFunc("GET /products/{symbol}/depth", handlers.HandleDepth)
	mux.HandleFunc("GET /users/{id}/ledger", handlers.HandleUserLedger)
	mux.HandleFunc("GET /ws", handlers.HandleWebSocket)

	// The engine context is single-threaded: requests are served one at a
	// time so no two handlers touch it concurrently.
	var engineMu sync.Mutex
	serialized := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		engineMu.Lock()
		defer engineMu.Unlock()
		mux.ServeHTTP(w, r)
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      serialized,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		port:     cfg.Port,
		hub:      hub,
		handlers: handlers,
		server:   httpServer,
		logger:   logger.With("component", "api-server"),
	}
}

// Hub exposes the websocket fanout so callers can subscribe it to a
// publish.Publisher as an observer for symbols they care about.
func (s *Server) Hub() *transport.Hub {
	return s.hub
}

// Start runs the websocket hub's dispatch loop and blocks on ListenAndServe
// until Stop closes the listener.
func (s *Server) Start() error {
	stop := make(chan struct{})
	s.stop = stop
	go s.hub.Run(stop)

	s.logger.Info("api server starting", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}

// Stop gracefully shuts the HTTP server down and stops the hub loop.
func (s *Server) Stop() error {
	s.logger.Info("stopping api server")
	if s.stop != nil {
		close(s.stop)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}
