package bridge

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/tnhu/wpm/pkg/middleware"
)

// Config configures a Server.
type Config struct {
	Logger *slog.Logger

	// ReadTimeout closes sessions silent for longer. Clients keep idle
	// sessions open with ping frames. Zero disables the deadline.
	ReadTimeout time.Duration

	WriteTimeout time.Duration

	// ReadLimit caps the size of a client frame in bytes.
	ReadLimit int64

	// CheckOrigin validates the Origin header. The default accepts
	// same-origin requests only.
	CheckOrigin func(r *http.Request) bool
}

// Option configures a Server.
type Option func(*Config)

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// WithTimeouts sets the read and write deadlines of sessions.
func WithTimeouts(read, write time.Duration) Option {
	return func(c *Config) {
		c.ReadTimeout = read
		c.WriteTimeout = write
	}
}

// WithReadLimit sets the maximum client frame size.
func WithReadLimit(n int64) Option {
	return func(c *Config) { c.ReadLimit = n }
}

// WithCheckOrigin sets the origin check of the websocket upgrade.
func WithCheckOrigin(fn func(r *http.Request) bool) Option {
	return func(c *Config) { c.CheckOrigin = fn }
}

func defaultConfig() *Config {
	return &Config{
		Logger:       slog.Default(),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 10 * time.Second,
		ReadLimit:    64 * 1024,
	}
}

// Server accepts websocket sessions. Each session gets its own runtime
// built by the factory. The uri query parameter of the upgrade request is
// navigated to once the session is ready.
type Server struct {
	cfg      *Config
	logger   *slog.Logger
	factory  Factory
	upgrader websocket.Upgrader

	mu       sync.Mutex
	sessions map[string]*Session
}

var _ http.Handler = (*Server)(nil)

// New creates a server building session runtimes with factory.
func New(factory Factory, opts ...Option) *Server {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return &Server{
		cfg:     cfg,
		logger:  cfg.Logger.With("component", "bridge"),
		factory: factory,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     cfg.CheckOrigin,
		},
		sessions: make(map[string]*Session),
	}
}

// ServeHTTP upgrades the request and serves the session until it closes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		middleware.RecordWebSocketError("upgrade")
		s.logger.Warn("websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}

	sess := newSession(uuid.NewString(), conn, s.cfg)
	rt, err := s.factory(sess)
	if err != nil {
		s.logger.Error("session runtime failed", "error", err)
		sess.sendError(err)
		sess.Close()
		return
	}
	sess.runtime = rt

	s.add(sess)
	middleware.RecordSessionCreate()
	defer func() {
		s.remove(sess)
		middleware.RecordSessionDestroy()
		rt.Close()
		sess.Close()
	}()

	sess.logger.Info("session opened", "remote", r.RemoteAddr)
	if err := sess.Send(&Frame{Kind: KindHello, Session: sess.id}); err != nil {
		sess.logger.Error("hello not sent", "error", err)
		return
	}
	if uri := r.URL.Query().Get("uri"); uri != "" {
		rt.Navigate(uri)
	}
	sess.Flush()
	sess.readLoop()
}

func (s *Server) add(sess *Session) {
	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()
}

func (s *Server) remove(sess *Session) {
	s.mu.Lock()
	delete(s.sessions, sess.id)
	s.mu.Unlock()
}

// Session returns a connected session by id.
func (s *Server) Session(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// Len returns the number of connected sessions.
func (s *Server) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Close closes every session.
func (s *Server) Close() {
	s.mu.Lock()
	all := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		all = append(all, sess)
	}
	s.mu.Unlock()
	for _, sess := range all {
		sess.Close()
	}
}
