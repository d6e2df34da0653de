// Package api implements the taskchat HTTP API: registration/login,
// structured task CRUD, and the conversational chat endpoint.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/finchley/taskchat/internal/agent"
	"github.com/finchley/taskchat/internal/auth"
	"github.com/finchley/taskchat/internal/buildinfo"
	"github.com/finchley/taskchat/internal/store"
)

// Server is the HTTP API server.
type Server struct {
	address string
	port    int
	store   *store.Store
	auth    *auth.Service
	loop    *agent.Loop
	logger  *slog.Logger
	server  *http.Server
}

// NewServer creates a new API server.
func NewServer(address string, port int, st *store.Store, authSvc *auth.Service, loop *agent.Loop, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		address: address,
		port:    port,
		store:   st,
		auth:    authSvc,
		loop:    loop,
		logger:  logger,
	}
}

// Start builds the route table and serves until the listener fails or
// Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.address, s.port),
		Handler:      s.withLogging(s.Handler()),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // a chat turn spans several model calls
	}

	addr := s.address
	if addr == "" {
		addr = "0.0.0.0"
	}
	s.logger.Info("starting API server", "address", addr, "port", s.port)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// Handler assembles the full route table wrapped in the auth
// middleware. Exposed separately from Start so tests can drive the
// server through httptest without binding a port.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Public endpoints
	mux.HandleFunc("GET /", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /version", s.handleVersion)
	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)

	// Owner-scoped endpoints; the middleware verifies the token and
	// each handler checks subject == path owner.
	mux.HandleFunc("GET /api/{user_id}/tasks", s.handleListTasks)
	mux.HandleFunc("POST /api/{user_id}/tasks", s.handleCreateTask)
	mux.HandleFunc("GET /api/{user_id}/tasks/{task_id}", s.handleGetTask)
	mux.HandleFunc("PUT /api/{user_id}/tasks/{task_id}", s.handleUpdateTask)
	mux.HandleFunc("DELETE /api/{user_id}/tasks/{task_id}", s.handleDeleteTask)
	mux.HandleFunc("POST /api/{user_id}/chat", s.handleChat)

	return auth.Middleware(s.auth, isPublicRoute, mux)
}

// isPublicRoute returns true for routes that don't require a token.
func isPublicRoute(r *http.Request) bool {
	path := r.URL.Path
	switch {
	case path == "/" && r.Method == http.MethodGet:
		return true
	case path == "/health" && r.Method == http.MethodGet:
		return true
	case path == "/version" && r.Method == http.MethodGet:
		return true
	case path == "/api/auth/register" && r.Method == http.MethodPost:
		return true
	case path == "/api/auth/login" && r.Method == http.MethodPost:
		return true
	}
	return false
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}

// writeJSON encodes v as JSON to w. Encoding errors typically mean the
// client disconnected mid-response; logged at debug, not actionable.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("failed to write JSON response", "error", err)
	}
}

// errorResponse writes a {"detail": ...} error body. Internal detail
// never leaks: callers pass fixed, user-safe strings.
func (s *Server) errorResponse(w http.ResponseWriter, status int, detail string) {
	s.writeJSON(w, status, map[string]string{"detail": detail})
}

// requireOwner checks that the authenticated subject matches the
// path-addressed owner. A mismatch is an authorization failure and is
// rejected before any processing.
func (s *Server) requireOwner(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.PathValue("user_id")
	id := auth.IdentityFromContext(r.Context())
	if id == nil {
		s.errorResponse(w, http.StatusUnauthorized, "authentication required")
		return "", false
	}
	if id.UserID != userID {
		s.logger.Warn("ownership mismatch", "token_sub", id.UserID, "path_user", userID)
		s.errorResponse(w, http.StatusForbidden, "Not authorized to access this user's data")
		return "", false
	}
	return userID, true
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "Welcome to the taskchat API"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, buildinfo.Info())
}
