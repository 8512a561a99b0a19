// Package dashboard serves the JSON API consumed by the analysis dashboard:
// bundle listings, per-user summaries and clusters, and bulk avatar
// resolution. Session validation and page rendering live outside this
// service; the server only checks bearer tokens against a pluggable
// SessionValidator.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/aviary-app/aviary/internal/avatar"
	"github.com/aviary-app/aviary/internal/bundle"
)

// maxAvatarRequestIDs bounds a single avatar resolution request. The
// resolver chunks internally; the bound just keeps request bodies sane.
const maxAvatarRequestIDs = 1000

// SessionValidator checks a bearer token extracted from a request. The real
// OAuth/session provider implements this outside the repo.
type SessionValidator interface {
	Validate(ctx context.Context, token string) error
}

// AllowAll accepts every request, including ones with no token. It is the
// default validator for local use and tests.
type AllowAll struct{}

// Validate always succeeds.
func (AllowAll) Validate(context.Context, string) error { return nil }

// Server hosts the dashboard API over HTTP.
type Server struct {
	store    *bundle.Store
	resolver *avatar.Resolver
	sessions SessionValidator
	log      *zap.Logger
	http     *http.Server
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithSessionValidator replaces the default allow-all validator.
func WithSessionValidator(v SessionValidator) ServerOption {
	return func(s *Server) {
		s.sessions = v
	}
}

// WithServerLogger sets the request logger.
func WithServerLogger(l *zap.Logger) ServerOption {
	return func(s *Server) {
		s.log = l
	}
}

// NewServer creates a dashboard server over the given store and resolver.
func NewServer(store *bundle.Store, resolver *avatar.Resolver, opts ...ServerOption) *Server {
	s := &Server{
		store:    store,
		resolver: resolver,
		sessions: AllowAll{},
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the API route table. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/users", s.handleUsers)
	mux.HandleFunc("GET /api/users/{user}/summary", s.handleSummary)
	mux.HandleFunc("GET /api/users/{user}/clusters", s.handleClusters)
	mux.HandleFunc("POST /api/avatars", s.handleAvatars)

	return s.withRequestID(s.withSession(mux))
}

// Start begins serving on addr. It returns immediately after starting the
// server in a background goroutine.
func (s *Server) Start(ctx context.Context, addr string) error {
	s.http = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}

	go s.http.ListenAndServe()

	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.Users(r.Context())
	if err != nil {
		s.log.Error("dashboard: list users", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "cannot list users")
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"users": users})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	user := r.PathValue("user")
	sum, err := s.store.Summary(r.Context(), user)
	if errors.Is(err, bundle.ErrNotFound) {
		writeError(w, http.StatusNotFound, "unknown user: "+user)
		return
	}
	if err != nil {
		s.log.Error("dashboard: load summary", zap.String("user", user), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "cannot load summary")
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleClusters(w http.ResponseWriter, r *http.Request) {
	user := r.PathValue("user")
	clusters, err := s.store.Clusters(r.Context(), user)
	if errors.Is(err, bundle.ErrNotFound) {
		writeError(w, http.StatusNotFound, "unknown user: "+user)
		return
	}
	if err != nil {
		s.log.Error("dashboard: load clusters", zap.String("user", user), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "cannot load clusters")
		return
	}
	if clusters == nil {
		clusters = []bundle.Cluster{}
	}
	writeJSON(w, http.StatusOK, map[string][]bundle.Cluster{"clusters": clusters})
}

// avatarsRequest is the body of POST /api/avatars.
type avatarsRequest struct {
	IDs []string `json:"ids"`
}

func (s *Server) handleAvatars(w http.ResponseWriter, r *http.Request) {
	var req avatarsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.IDs) > maxAvatarRequestIDs {
		writeError(w, http.StatusBadRequest, "too many identifiers in one request")
		return
	}

	// Resolve is total and never errors; partial remote failures surface
	// as null entries.
	avatars := s.resolver.Resolve(r.Context(), req.IDs)
	writeJSON(w, http.StatusOK, map[string]map[string]*string{"avatars": avatars})
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error envelope.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
