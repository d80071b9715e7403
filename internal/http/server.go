package http

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"

	"tally/internal/middleware/ratelimit"
	"tally/internal/service"
	appweb "tally/web"
)

// Options tunes the outer request surface of the server.
type Options struct {
	// AllowedOrigin is echoed in CORS headers; "*" allows any origin.
	AllowedOrigin string
	RateLimit     ratelimit.Config
}

// Server exposes the expense API over HTTP/JSON and serves the embedded web
// client.
type Server struct {
	http.Server
	expenses *service.ExpenseService
	limiter  *ratelimit.Limiter

	allowedOrigin string
	shutdownOnce  sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, expenses *service.ExpenseService, opts Options) *Server {
	if opts.AllowedOrigin == "" {
		opts.AllowedOrigin = "*"
	}

	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		expenses:      expenses,
		limiter:       ratelimit.NewLimiter(opts.RateLimit),
		allowedOrigin: opts.AllowedOrigin,
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /expenses", s.withRequestContext(s.handleCreateExpense))
	mux.HandleFunc("GET /expenses", s.withRequestContext(s.handleListExpenses))
	mux.HandleFunc("GET /expenses/summary", s.withRequestContext(s.handleSummary))
	mux.HandleFunc("PUT /expenses/{id}", s.withRequestContext(s.handleUpdateExpense))
	mux.HandleFunc("DELETE /expenses/{id}", s.withRequestContext(s.handleDeleteExpense))
	mux.HandleFunc("OPTIONS /expenses", s.withRequestContext(s.handlePreflight))
	mux.HandleFunc("OPTIONS /expenses/{id}", s.withRequestContext(s.handlePreflight))

	// Embedded web client (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.FileServer(http.FS(sub))
		mux.Handle("GET /", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600")
			static.ServeHTTP(w, r)
		}))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	return s
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handlePreflight(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.limiter != nil {
			s.limiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
