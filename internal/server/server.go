// Package server exposes an interpreter over HTTP and websockets so that
// a browser front end can drive the simulator and render its graph.
package server

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/kilupskalvis/gitsim/internal/interp"
	"github.com/kilupskalvis/gitsim/internal/layout"
	"github.com/kilupskalvis/gitsim/internal/models"
)

// Config holds configurable limits for the server.
type Config struct {
	MaxRequestBody    int64  // bytes, for JSON endpoints
	RequestsPerMinute int    // per-client limit on command execution, 0 disables
	Token             string // bearer token for mutating endpoints, empty disables
	Webhooks          *WebhookNotifier
}

// DefaultConfig returns reasonable defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxRequestBody:    64 * 1024,
		RequestsPerMinute: 600,
	}
}

// ExecRequest is the body of POST /api/exec and of websocket frames.
type ExecRequest struct {
	Line string `json:"line"`
}

// LayoutView is the body of GET /api/layout and the initial websocket frame.
type LayoutView struct {
	Head      models.Head      `json:"head"`
	Positions layout.Positions `json:"positions"`
	State     *models.Document `json:"state,omitempty"`
}

// Server serialises access to a single interpreter.
type Server struct {
	mu     sync.Mutex
	interp *interp.Interpreter
	hub    *Hub
	limit  *commandLimiter
	cfg    *Config
	logger *slog.Logger
}

// Handler creates the HTTP handler with all routes and middleware.
// The returned cleanup function closes websocket clients and flushes
// queued webhooks; call it on server shutdown.
func Handler(in *interp.Interpreter, cfg *Config, logger *slog.Logger) (http.Handler, func()) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		interp: in,
		hub:    NewHub(logger),
		limit:  newCommandLimiter(cfg.RequestsPerMinute),
		cfg:    cfg,
		logger: logger,
	}
	in.AddNotifier(s.hub)
	if cfg.Webhooks != nil {
		in.AddNotifier(cfg.Webhooks)
	}

	auth := requireToken(cfg.Token)

	// applyMiddleware reverses the list, so the first item runs outermost.
	withWrite := func(h http.HandlerFunc) http.Handler {
		return applyMiddleware(h, auth, s.limit.middleware)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("GET /api/layout", s.handleLayout)
	mux.Handle("POST /api/exec", withWrite(s.handleExec))
	mux.Handle("POST /api/clear", withWrite(s.handleClear))
	mux.Handle("GET /api/ws", applyMiddleware(http.HandlerFunc(s.handleWebSocket), auth))

	cleanup := func() {
		s.hub.Close()
		cfg.Webhooks.Close()
	}
	return observe(logger)(mux), cleanup
}

// Exec runs one line under the server lock.
func (s *Server) Exec(line string) *interp.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interp.Execute(line)
}

func (s *Server) view(withState bool) *LayoutView {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := &LayoutView{
		Head:      s.interp.Head(),
		Positions: s.interp.Positions(),
	}
	if withState {
		v.State = s.interp.Snapshot()
	}
	return v
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	doc := s.interp.Snapshot()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleLayout(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.view(false))
}

func (s *Server) handleExec(w http.ResponseWriter, r *http.Request) {
	var req ExecRequest
	if err := readJSON(r, s.cfg.MaxRequestBody, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if strings.ContainsAny(req.Line, "\r\n") {
		writeError(w, http.StatusBadRequest, "bad_request", "line must not contain newlines")
		return
	}

	res := s.Exec(req.Line)
	info := infoFrom(r.Context())
	info.command, info.kind = res.Command, res.ErrorKind
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	res := s.interp.Clear()
	s.mu.Unlock()
	infoFrom(r.Context()).command = res.Command
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	c := s.hub.add(conn)
	defer s.hub.remove(c)

	if err := c.write(Message{Type: MessageTypeState, Data: s.view(true)}); err != nil {
		return
	}

	conn.SetReadLimit(s.cfg.MaxRequestBody)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var req ExecRequest
		if err := json.Unmarshal(data, &req); err != nil {
			if werr := c.write(Message{Type: MessageTypeError, Data: fmt.Sprintf("invalid JSON: %v", err)}); werr != nil {
				return
			}
			continue
		}
		if !s.limit.allow(clientKey(r)) {
			if werr := c.write(Message{Type: MessageTypeError, Data: "rate limit exceeded"}); werr != nil {
				return
			}
			continue
		}

		res := s.Exec(req.Line)
		s.logger.Debug("websocket command", "command", res.Command, "error_kind", res.ErrorKind, "request_id", infoFrom(r.Context()).id)
		if err := c.write(Message{Type: MessageTypeResult, Data: res}); err != nil {
			return
		}
	}
}

func applyMiddleware(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": code, "message": message})
}

func readJSON(r *http.Request, maxSize int64, v any) error {
	limited := io.LimitReader(r.Body, maxSize)
	if err := json.NewDecoder(limited).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}
