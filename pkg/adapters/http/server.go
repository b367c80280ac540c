package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/murmur"
	"github.com/aretw0/murmur/internal/logging"
	"github.com/aretw0/murmur/pkg/domain"
	"github.com/aretw0/murmur/pkg/ports"
	"github.com/aretw0/murmur/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// Server exposes persisted dialogue sessions over HTTP.
type Server struct {
	Sessions *session.Manager
	Registry ports.NodeRegistry
	Streams  *StreamManager

	logger  *slog.Logger
	metrics http.Handler
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsHandler mounts h (usually promhttp.Handler()) on GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// NewHandler creates the HTTP handler for a session manager.
func NewHandler(sessions *session.Manager, registry ports.NodeRegistry, opts ...Option) http.Handler {
	s := &Server{
		Sessions: sessions,
		Registry: registry,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams = NewStreamManager(s.logger)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/graph", s.GetGraph)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Post("/", s.StartSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.DeleteSession)
			r.Post("/advance", s.Advance)
			r.Post("/select", s.SelectBranch)
			r.Post("/back", s.Back)
			r.Put("/language", s.SetLanguage)
			r.Get("/events", s.SubscribeEvents)
		})
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "murmur-http",
		"version": strings.TrimSpace(murmur.Version),
	})
}

// GetGraph handles GET /graph.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	nodes := s.Registry.ListNodes()
	out := make([]GraphNode, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, newGraphNode(n))
	}
	s.writeJSON(w, http.StatusOK, out)
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Sessions.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, ids)
}

// StartSession handles POST /sessions. A missing session_id gets a random one.
func (s *Server) StartSession(w http.ResponseWriter, r *http.Request) {
	var body startRequest
	if !s.decode(w, r, &body) {
		return
	}
	if body.NodeID == "" {
		s.writeJSON(w, http.StatusBadRequest, errorBody("node_id is required"))
		return
	}
	if body.SessionID == "" {
		body.SessionID = uuid.NewString()
	}

	opts := []murmur.StartOption{murmur.AtContent(body.ContentIndex)}
	if body.Slot != nil {
		opts = append(opts, murmur.InBranch(*body.Slot))
	}
	snap, err := s.Sessions.Create(r.Context(), body.SessionID, func(e *murmur.Engine) error {
		if body.Language != "" {
			e.SetLanguage(body.Language)
		}
		return e.StartDialogue(body.NodeID, opts...)
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("session started", "session_id", body.SessionID, "node_id", body.NodeID)
	s.respond(w, http.StatusCreated, newView(body.SessionID, snap, true))
}

// GetSession handles GET /sessions/{sessionID}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	snap, err := s.Sessions.Load(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newView(id, snap, false))
}

// DeleteSession handles DELETE /sessions/{sessionID}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if err := s.Sessions.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Advance handles POST /sessions/{sessionID}/advance.
func (s *Server) Advance(w http.ResponseWriter, r *http.Request) {
	var body advanceRequest
	if !s.decodeOptional(w, r, &body) {
		return
	}
	s.navigate(w, r, func(e *murmur.Engine) (bool, error) {
		if body.Separator != nil {
			return e.ConcatenateAdvance(*body.Separator)
		}
		return e.Advance()
	})
}

// SelectBranch handles POST /sessions/{sessionID}/select.
func (s *Server) SelectBranch(w http.ResponseWriter, r *http.Request) {
	var body selectRequest
	if !s.decode(w, r, &body) {
		return
	}
	s.navigate(w, r, func(e *murmur.Engine) (bool, error) {
		return e.SelectBranch(body.Slot)
	})
}

// Back handles POST /sessions/{sessionID}/back.
func (s *Server) Back(w http.ResponseWriter, r *http.Request) {
	var body backRequest
	if !s.decodeOptional(w, r, &body) {
		return
	}
	s.navigate(w, r, func(e *murmur.Engine) (bool, error) {
		if body.Reveal {
			return e.ReadPrevious()
		}
		return e.StepBack()
	})
}

// SetLanguage handles PUT /sessions/{sessionID}/language.
func (s *Server) SetLanguage(w http.ResponseWriter, r *http.Request) {
	var body languageRequest
	if !s.decode(w, r, &body) {
		return
	}
	if body.Language == "" {
		s.writeJSON(w, http.StatusBadRequest, errorBody("language is required"))
		return
	}
	s.navigate(w, r, func(e *murmur.Engine) (bool, error) {
		e.SetLanguage(body.Language)
		return false, nil
	})
}

// navigate applies op to the stored session. A move that is not possible (a
// dead end, an empty history) still answers 200 with moved=false.
func (s *Server) navigate(w http.ResponseWriter, r *http.Request, op func(*murmur.Engine) (bool, error)) {
	id := chi.URLParam(r, "sessionID")
	var moved bool
	snap, err := s.Sessions.Do(r.Context(), id, func(e *murmur.Engine) error {
		var err error
		moved, err = op(e)
		return err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, newView(id, snap, moved))
}

// SubscribeEvents handles GET /sessions/{sessionID}/events (SSE).
// Every change to the session is pushed as a View.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}
	id := chi.URLParam(r, "sessionID")

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(id)
	defer cancel()
	s.logger.Debug("SSE client subscribed", "session_id", id)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE client disconnected", "session_id", id)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// respond writes v and pushes it to the session's stream.
func (s *Server) respond(w http.ResponseWriter, status int, v View) {
	if data, err := json.Marshal(v); err == nil {
		s.Streams.Broadcast(v.SessionID, string(data))
	}
	s.writeJSON(w, status, v)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	return s.decodeBody(w, r, v, false)
}

// decodeOptional accepts an empty body, including an empty chunked one.
func (s *Server) decodeOptional(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}
	return s.decodeBody(w, r, v, true)
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any, optional bool) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || (optional && errors.Is(err, io.EOF)) {
		return true
	}
	s.logger.Warn("invalid request body", "path", r.URL.Path, "err", err)
	s.writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
	return false
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrNodeNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrIndexOutOfRange), errors.Is(err, domain.ErrNotBranch):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "err", err)
	}
	s.writeJSON(w, status, errorBody(err.Error()))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}
