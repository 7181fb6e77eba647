package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"event-panel/internal/application"
	"event-panel/internal/domain"
)

// Server is the operator surface: a JSON API over the panel plus a
// websocket that streams state changes.
type Server struct {
	addr        string
	authToken   string
	panel       *application.Panel
	hub         *Hub
	router      *mux.Router
	rateLimiter *RateLimiter
	upgrader    websocket.Upgrader
	logger      *slog.Logger

	mu      sync.Mutex
	running bool
	server  *http.Server
	baseCtx context.Context
}

// NewServer builds the router. rateLimit is the number of POST requests
// allowed per client IP per minute; zero disables the limit.
func NewServer(addr, authToken string, rateLimit int, panel *application.Panel, hub *Hub, logger *slog.Logger) *Server {
	s := &Server{
		addr:      addr,
		authToken: authToken,
		panel:     panel,
		hub:       hub,
		router:    mux.NewRouter(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger:  logger,
		baseCtx: context.Background(),
	}

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/api/state", s.handleState).Methods(http.MethodGet)
	s.router.HandleFunc("/api/scenes", s.handleScenes).Methods(http.MethodGet)
	s.router.HandleFunc("/ws", s.handleWS).Methods(http.MethodGet)

	commands := s.router.Methods(http.MethodPost).Subrouter()
	if rateLimit > 0 {
		s.rateLimiter = NewRateLimiter(rateLimit, time.Minute)
		commands.Use(s.rateLimiter.Middleware)
	}
	commands.Use(s.requireToken)

	commands.HandleFunc("/api/relays/sync", s.handleRelaySync)
	commands.HandleFunc("/api/relays/{id}", s.handleRelay)
	commands.HandleFunc("/api/groups/{id}", s.handleGroup)
	commands.HandleFunc("/api/scenes/reload", s.handleScenesReload)
	commands.HandleFunc("/api/scenes/switch", s.handleSceneSwitch)
	commands.HandleFunc("/api/search", s.handleSearch)
	commands.HandleFunc("/api/preview/start", s.handlePreviewStart)
	commands.HandleFunc("/api/preview/stop", s.handlePreviewStop)

	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens in the background. Pollers started from the API run under
// ctx rather than under the request that asked for them.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	s.baseCtx = ctx
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		s.logger.Info("web panel starting", "addr", s.addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("web server error", "error", err)
		}
	}()

	s.running = true
	return nil
}

func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	s.hub.Close()

	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.server.Shutdown(ctx); err != nil {
			s.logger.Warn("graceful shutdown failed, forcing close", "error", err)
			if err := s.server.Close(); err != nil {
				return fmt.Errorf("closing server: %w", err)
			}
		}
	}

	s.running = false
	return nil
}

type actionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	state := s.panel.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"clients":    s.hub.Count(),
		"connected":  state.Connection.Connected,
		"previewing": state.Previewing,
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.panel.Snapshot())
}

func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.panel.Scenes().List())
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	s.hub.Serve(conn, domain.Event{Type: domain.EventState, Data: s.panel.Snapshot()})
}

func (s *Server) handleRelaySync(w http.ResponseWriter, r *http.Request) {
	relays := s.panel.Relays()
	err := relays.LoadInitialStatus(s.commandContext(r))
	s.writeResult(w, err, relays.Snapshot())
}

func (s *Server) handleRelay(w http.ResponseWriter, r *http.Request) {
	state, ok := parseState(w, r)
	if !ok {
		return
	}
	relays := s.panel.Relays()
	err := relays.SetIndividual(s.commandContext(r), mux.Vars(r)["id"], state.On())
	s.writeResult(w, err, relays.Snapshot())
}

func (s *Server) handleGroup(w http.ResponseWriter, r *http.Request) {
	state, ok := parseState(w, r)
	if !ok {
		return
	}
	relays := s.panel.Relays()
	err := relays.SetGroup(s.commandContext(r), mux.Vars(r)["id"], state.On())
	s.writeResult(w, err, relays.Snapshot())
}

func (s *Server) handleScenesReload(w http.ResponseWriter, r *http.Request) {
	scenes := s.panel.Scenes()
	err := scenes.Load(s.commandContext(r))
	s.writeResult(w, err, scenes.List())
}

func (s *Server) handleSceneSwitch(w http.ResponseWriter, r *http.Request) {
	name := r.FormValue("scene_name")
	err := s.panel.Scenes().Switch(s.commandContext(r), name)
	s.writeResult(w, err, map[string]string{"scene_name": name})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	result, err := s.panel.Hymnal().Search(s.commandContext(r), r.FormValue("search_term"))
	s.writeResult(w, err, result)
}

func (s *Server) handlePreviewStart(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	ctx := s.baseCtx
	s.mu.Unlock()

	s.panel.Monitor().StartPreview(ctx)
	writeJSON(w, http.StatusOK, actionResponse{Success: true, Data: map[string]bool{"previewing": true}})
}

func (s *Server) handlePreviewStop(w http.ResponseWriter, r *http.Request) {
	s.panel.Monitor().StopPreview()
	writeJSON(w, http.StatusOK, actionResponse{Success: true, Data: map[string]bool{"previewing": false}})
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.authToken != "" {
			token := r.Header.Get("X-Auth-Token")
			if token == "" {
				token = r.URL.Query().Get("token")
			}
			if token != s.authToken {
				s.logger.Warn("unauthorized panel request", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
				writeJSON(w, http.StatusUnauthorized, actionResponse{Message: "unauthorized"})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// commandContext keeps the request's values but not its cancellation: an
// operator closing the tab must not abort a relay command mid-flight.
func (s *Server) commandContext(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

func (s *Server) writeResult(w http.ResponseWriter, err error, data any) {
	if err == nil {
		writeJSON(w, http.StatusOK, actionResponse{Success: true, Data: data})
		return
	}

	var rejected *domain.RejectionError
	status := http.StatusBadGateway
	message := err.Error()

	switch {
	case errors.Is(err, application.ErrUnknownRelay), errors.Is(err, application.ErrUnknownGroup):
		status = http.StatusNotFound
	case errors.Is(err, application.ErrEmptySceneName), errors.Is(err, application.ErrEmptySearchTerm):
		status = http.StatusBadRequest
	case errors.As(err, &rejected):
		if rejected.Message != "" {
			message = rejected.Message
		}
	}

	writeJSON(w, status, actionResponse{Message: message, Data: data})
}

func parseState(w http.ResponseWriter, r *http.Request) (domain.RelayState, bool) {
	state, err := domain.ParseRelayState(r.FormValue("state"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, actionResponse{Message: err.Error()})
		return "", false
	}
	return state, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
