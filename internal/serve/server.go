// Package serve exposes a conversation over HTTP and WebSocket.
//
// Every handler reaches the transcript and the coordinator through
// inference.Loop.Do, so the loop goroutine stays the only one touching them.
package serve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/llama-chat/llama-chat/internal/conversation"
	"github.com/llama-chat/llama-chat/internal/inference"
)

const (
	maxRequestBody  = 1 << 20
	clientQueueSize = 64
	writeTimeout    = 10 * time.Second
	shutdownTimeout = 5 * time.Second
)

// Config configures the HTTP surface.
type Config struct {
	Listen string
	// Token, when set, must be presented as a bearer token.
	Token string
	// SubmitRate is the sustained number of submissions per second across
	// all clients. Zero disables rate limiting.
	SubmitRate  float64
	SubmitBurst int
}

// Options carries the optional collaborators of a Server.
type Options struct {
	Logger *zap.Logger
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
}

// Server serves one conversation to any number of clients.
type Server struct {
	cfg     Config
	loop    *inference.Loop
	store   *conversation.Store
	coord   *inference.Coordinator
	limiter *rate.Limiter
	metrics http.Handler
	logger  *zap.Logger

	mu      sync.Mutex
	clients map[string]*client
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan WireEvent
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.send)
	})
}

// New creates a server. The store must be driven by loop, and loop must be
// the coordinator's Poster. New registers an append observer on the store,
// so it must be called before the loop starts running.
func New(cfg Config, loop *inference.Loop, store *conversation.Store, coord *inference.Coordinator, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		cfg:     cfg,
		loop:    loop,
		store:   store,
		coord:   coord,
		metrics: opts.Metrics,
		logger:  logger.Named("serve"),
		clients: make(map[string]*client),
	}
	if cfg.SubmitRate > 0 {
		burst := max(cfg.SubmitBurst, 1)
		s.limiter = rate.NewLimiter(rate.Limit(cfg.SubmitRate), burst)
	}
	store.OnAppend(s.broadcast)
	return s
}

// Handler returns the http.Handler for all endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/submit", s.auth(s.handleSubmit))
	mux.HandleFunc("POST /api/cancel", s.auth(s.handleCancel))
	mux.HandleFunc("GET /api/transcript", s.auth(s.handleTranscript))
	mux.HandleFunc("GET /api/state", s.auth(s.handleState))
	mux.HandleFunc("GET /ws", s.auth(s.handleWebSocket))
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}
	return mux
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Listen, err)
	}
	return s.Serve(ctx, ln)
}

// Serve runs the event loop and the HTTP server on ln until ctx is cancelled
// or either of them fails.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := s.loop.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		s.logger.Info("listening", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		s.closeClients()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	id, err := s.submit(req.Text)
	if err != nil {
		writeError(w, submitStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, SubmitResponse{RequestID: id})
}

// submit rate limits and forwards text to the coordinator on the loop.
func (s *Server) submit(text string) (uint64, error) {
	if s.limiter != nil && !s.limiter.Allow() {
		return 0, errRateLimited
	}
	var (
		id  uint64
		err error
	)
	if !s.loop.Do(func() { id, err = s.coord.Submit(text) }) {
		return 0, errStopped
	}
	return id, err
}

var (
	errRateLimited = errors.New("too many submissions")
	errStopped     = errors.New("server is shutting down")
)

func submitStatus(err error) int {
	switch {
	case errors.Is(err, conversation.ErrEmptyInput):
		return http.StatusBadRequest
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, inference.ErrNoBackend):
		// the user turn is recorded even though nothing will answer it
		return http.StatusConflict
	default:
		return http.StatusServiceUnavailable
	}
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	var cancelled bool
	if !s.loop.Do(func() { cancelled = s.coord.CancelPending() }) {
		writeError(w, http.StatusServiceUnavailable, errStopped.Error())
		return
	}
	writeJSON(w, http.StatusOK, CancelResponse{Cancelled: cancelled})
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	turns := []conversation.Turn{}
	if !s.loop.Do(func() { turns = append(turns, s.store.Turns()...) }) {
		writeError(w, http.StatusServiceUnavailable, errStopped.Error())
		return
	}
	writeJSON(w, http.StatusOK, TranscriptResponse{Turns: turns})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	var resp StateResponse
	ok := s.loop.Do(func() {
		resp = StateResponse{
			State:   s.coord.State().String(),
			Backend: s.coord.BackendName(),
			Turns:   s.store.Len(),
		}
		if p, ok := s.coord.Pending(); ok {
			resp.Pending = &PendingInfo{
				RequestID:           p.ID,
				SubmittedAtSequence: p.SubmittedAtSequence,
				SubmittedAt:         p.SubmittedAt,
			}
		}
	})
	if !ok {
		writeError(w, http.StatusServiceUnavailable, errStopped.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrade(w, r)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan WireEvent, clientQueueSize),
	}
	// register and snapshot together so no turn is missed or sent twice
	if !s.loop.Do(func() {
		c.send <- snapshotEvent(c.id, s.store.Turns())
		s.mu.Lock()
		s.clients[c.id] = c
		s.mu.Unlock()
	}) {
		_ = conn.Close()
		return
	}
	s.logger.Debug("client connected", zap.String("client_id", c.id))

	go s.writeLoop(c)
	s.readLoop(c)

	s.removeClient(c)
	s.logger.Debug("client disconnected", zap.String("client_id", c.id))
}

func (s *Server) readLoop(c *client) {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var ev ClientEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			s.sendTo(c, WireEvent{Type: "error", Message: "invalid JSON message"})
			continue
		}
		switch ev.Type {
		case "message":
			if _, err := s.submit(ev.Text); err != nil && !errors.Is(err, inference.ErrNoBackend) {
				s.sendTo(c, WireEvent{Type: "error", Message: err.Error()})
			}
		case "cancel":
			s.loop.Do(func() { s.coord.CancelPending() })
		default:
			s.sendTo(c, WireEvent{Type: "error", Message: fmt.Sprintf("unknown message type %q", ev.Type)})
		}
	}
}

func (s *Server) writeLoop(c *client) {
	defer c.conn.Close()
	for ev := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := writeEvent(c.conn, ev); err != nil {
			s.logger.Debug("websocket write failed", zap.String("client_id", c.id), zap.Error(err))
			s.removeClient(c)
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// broadcast runs on the loop for every appended turn.
func (s *Server) broadcast(t conversation.Turn) {
	ev := turnEvent(t)
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.clients {
		select {
		case c.send <- ev:
		default:
			s.logger.Warn("dropping slow websocket client", zap.String("client_id", id))
			delete(s.clients, id)
			c.close()
		}
	}
}

func (s *Server) sendTo(c *client, ev WireEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c.id]; !ok {
		return
	}
	select {
	case c.send <- ev:
	default:
	}
}

func (s *Server) removeClient(c *client) {
	s.mu.Lock()
	delete(s.clients, c.id)
	s.mu.Unlock()
	c.close()
}

func (s *Server) closeClients() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.clients {
		delete(s.clients, id)
		c.close()
	}
}

// Clients returns the number of connected WebSocket clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authorized(r) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	}
}

func (s *Server) authorized(r *http.Request) bool {
	token := strings.TrimSpace(s.cfg.Token)
	if token == "" {
		return true
	}
	value := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(value, prefix) {
		return false
	}
	return strings.TrimSpace(strings.TrimPrefix(value, prefix)) == token
}

func (s *Server) upgrade(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	return upgrader.Upgrade(w, r, nil)
}

func writeEvent(conn *websocket.Conn, e WireEvent) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
