package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/gashu"
	"github.com/aretw0/gashu/internal/logging"
	"github.com/aretw0/gashu/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Engine defines the subset of the gashu engine the server drives.
type Engine interface {
	HandleTurn(ctx context.Context, req gashu.TurnRequest) (gashu.Reply, error)
	Init(ctx context.Context, req gashu.TurnRequest) (gashu.Reply, error)
	Reset(ctx context.Context, userID string) error
	Session(ctx context.Context, userID string) (*domain.Session, error)
	List(ctx context.Context) ([]string, error)
}

// Server serves the chat endpoints and the session admin API.
type Server struct {
	Engine  Engine
	Streams *StreamManager
	logger  *slog.Logger
}

type options struct {
	corsOrigins []string
	metrics     http.Handler
	logger      *slog.Logger
}

// Option configures the handler.
type Option func(*options)

// WithCORSOrigins sets the allowed browser origins (default: any).
func WithCORSOrigins(origins ...string) Option {
	return func(o *options) {
		o.corsOrigins = origins
	}
}

// WithMetricsHandler mounts h on GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(o *options) {
		o.metrics = h
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	o := options{corsOrigins: []string{"*"}, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	server := &Server{
		Engine:  engine,
		Streams: NewStreamManager(o.logger),
		logger:  o.logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: o.corsOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	r.Post("/init", server.Init)
	r.Post("/message", server.Message)
	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)
	r.Get("/events", server.SubscribeEvents)
	if o.metrics != nil {
		r.Handle("/metrics", o.metrics)
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", server.ListSessions)
		r.Get("/{userID}", server.GetSession)
		r.Delete("/{userID}", server.DeleteSession)
	})
	return r
}

// MessageRequest is the body of /init and /message.
type MessageRequest struct {
	UserID      string   `json:"user_id"`
	UserMessage string   `json:"user_message"`
	UserLon     *float64 `json:"user_lon,omitempty"`
	UserLat     *float64 `json:"user_lat,omitempty"`
}

func (m MessageRequest) turn() gashu.TurnRequest {
	req := gashu.TurnRequest{UserID: m.UserID, Message: m.UserMessage}
	if m.UserLon != nil && m.UserLat != nil {
		req.GPS = &domain.Coord{Lon: *m.UserLon, Lat: *m.UserLat}
	}
	return req
}

// Init handles the POST /init request.
func (s *Server) Init(w http.ResponseWriter, r *http.Request) {
	s.turn(w, r, "Init", s.Engine.Init)
}

// Message handles the POST /message request.
func (s *Server) Message(w http.ResponseWriter, r *http.Request) {
	s.turn(w, r, "Message", s.Engine.HandleTurn)
}

func (s *Server) turn(w http.ResponseWriter, r *http.Request, op string, fn func(context.Context, gashu.TurnRequest) (gashu.Reply, error)) {
	var body MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn(op+": Invalid request body", "err", err)
		return
	}
	if strings.TrimSpace(body.UserID) == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	before, _ := s.Engine.Session(r.Context(), body.UserID)

	reply, err := fn(r.Context(), body.turn())
	if err != nil {
		if isInputErr(err) {
			http.Error(w, fmt.Sprintf("Invalid input: %v", err), http.StatusBadRequest)
			s.logger.Warn(op+": Input rejected", "err", err, "size", len(body.UserMessage))
			return
		}
		http.Error(w, fmt.Sprintf("%s error: %v", op, err), http.StatusInternalServerError)
		s.logger.Error(op+" failed", "err", err, "user_id", body.UserID)
		return
	}

	s.broadcastDiff(r.Context(), body.UserID, before)
	writeJSON(w, http.StatusOK, reply, s.logger)
}

func isInputErr(err error) bool {
	return errors.Is(err, domain.ErrEmptyInput) ||
		errors.Is(err, gashu.ErrInputTooLarge) ||
		errors.Is(err, gashu.ErrInvalidUTF8)
}

// broadcastDiff pushes the session change of the last turn to subscribers.
func (s *Server) broadcastDiff(ctx context.Context, userID string, before *domain.Session) {
	if !s.Streams.HasSubscribers(userID) {
		return
	}
	after, err := s.Engine.Session(ctx, userID)
	if err != nil {
		return
	}
	diff, err := domain.Diff(before, after)
	if err != nil || diff == nil {
		s.logger.Debug("No diff calculated", "user_id", userID)
		return
	}
	if bytes, err := json.Marshal(diff); err == nil {
		s.Streams.Broadcast(userID, string(bytes))
	}
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, s.logger)
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "gashu-http",
		"version": strings.TrimSpace(gashu.Version),
	}, s.logger)
}

// ListSessions handles the GET /sessions request.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Engine.List(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("List error: %v", err), http.StatusInternalServerError)
		s.logger.Error("List sessions failed", "err", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, ids, s.logger)
}

// GetSession handles the GET /sessions/{userID} request.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	sess, err := s.Engine.Session(r.Context(), userID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("Load error: %v", err), http.StatusInternalServerError)
		s.logger.Error("Load session failed", "err", err, "user_id", userID)
		return
	}
	writeJSON(w, http.StatusOK, sess, s.logger)
}

// DeleteSession handles the DELETE /sessions/{userID} request.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if err := s.Engine.Reset(r.Context(), userID); err != nil {
		http.Error(w, fmt.Sprintf("Reset error: %v", err), http.StatusInternalServerError)
		s.logger.Error("Reset session failed", "err", err, "user_id", userID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StreamManager handles active SSE connections
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // UserID -> Set of Channels
	logger      *slog.Logger
}

func NewStreamManager(logger *slog.Logger) *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logger,
	}
}

func (sm *StreamManager) Subscribe(userID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[userID]; !ok {
		sm.subscribers[userID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[userID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[userID]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, userID)
			}
		}
	}
}

// HasSubscribers reports whether anyone listens for the user.
func (sm *StreamManager) HasSubscribers(userID string) bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[userID]) > 0
}

func (sm *StreamManager) Broadcast(userID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[userID] {
		select {
		case ch <- msg:
		default:
			// Drop message if channel is full (slow client)
			sm.logger.Warn("SSE: Client buffer full, dropping message", "user_id", userID)
		}
	}
}

// SubscribeEvents handles the GET /events?user_id= request (SSE). Each
// event carries the session diff produced by one turn.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(userID)
	defer cancel()
	s.logger.Info("SSE: Subscribing to session updates", "user_id", userID)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
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

func writeJSON(w http.ResponseWriter, status int, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Response encode failed", "err", err)
	}
}
