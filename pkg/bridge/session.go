package bridge

import (
	stderrors "errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/atomic"

	"github.com/tnhu/wpm/internal/errors"
	"github.com/tnhu/wpm/pkg/dom"
	"github.com/tnhu/wpm/pkg/middleware"
)

// ErrSessionClosed is returned when sending on a closed session.
var ErrSessionClosed = stderrors.New("bridge: session closed")

// Runtime is the navigation runtime driven by one session: an engine, a
// dispatcher and the document they render into.
type Runtime interface {
	// Navigate starts a navigation requested by the client.
	Navigate(uri string)

	// HandleEvent dispatches a client event.
	HandleEvent(ev *dom.Event) bool

	// Document returns the session document.
	Document() *dom.Document

	// Close releases the runtime.
	Close()
}

// Factory builds the runtime of a new session. The runtime should write
// its history to s.History() and call s.Flush when transitions settle.
type Factory func(s *Session) (Runtime, error)

// Session is one connected browser.
type Session struct {
	id      string
	conn    *websocket.Conn
	cfg     *Config
	logger  *slog.Logger
	history *RemoteHistory
	runtime Runtime

	wmu      sync.Mutex
	seq      uint64
	lastHTML string

	closed atomic.Bool
	done   chan struct{}
	events atomic.Int64
}

func newSession(id string, conn *websocket.Conn, cfg *Config) *Session {
	s := &Session{
		id:     id,
		conn:   conn,
		cfg:    cfg,
		logger: cfg.Logger.With("session", id),
		done:   make(chan struct{}),
	}
	s.history = NewRemoteHistory(func(f *Frame) {
		if err := s.Send(f); err != nil {
			s.logger.Debug("history frame not sent", "kind", f.Kind, "error", err)
		}
	})
	return s
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// History returns the browser history of the session.
func (s *Session) History() *RemoteHistory { return s.history }

// Logger returns the session logger.
func (s *Session) Logger() *slog.Logger { return s.logger }

// Done is closed when the session closes.
func (s *Session) Done() <-chan struct{} { return s.done }

// Send writes a frame. Frames are numbered in send order.
func (s *Session) Send(f *Frame) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	return s.sendLocked(f)
}

func (s *Session) sendLocked(f *Frame) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	s.seq++
	f.Seq = s.seq
	data, err := f.Encode()
	if err != nil {
		return err
	}
	if s.cfg.WriteTimeout > 0 {
		s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	}
	if err := s.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		middleware.RecordWebSocketError("write")
		return err
	}
	middleware.RecordFrames(1)
	return nil
}

// Flush sends the document when it changed since the last flush.
func (s *Session) Flush() {
	if s.runtime == nil {
		return
	}
	markup := s.runtime.Document().HTML()

	s.wmu.Lock()
	defer s.wmu.Unlock()
	if markup == s.lastHTML {
		return
	}
	if err := s.sendLocked(&Frame{Kind: KindDocument, HTML: markup}); err != nil {
		s.logger.Debug("document not sent", "error", err)
		return
	}
	s.lastHTML = markup
}

func (s *Session) sendError(err error) {
	code := "W040"
	var we *errors.WpmError
	if stderrors.As(err, &we) && we.Code != "" {
		code = we.Code
	}
	if sendErr := s.Send(&Frame{Kind: KindError, Code: code, Message: err.Error()}); sendErr != nil {
		s.logger.Debug("error frame not sent", "error", sendErr)
	}
}

// readLoop reads frames until the connection closes.
func (s *Session) readLoop() {
	if s.cfg.ReadLimit > 0 {
		s.conn.SetReadLimit(s.cfg.ReadLimit)
	}
	for {
		if s.cfg.ReadTimeout > 0 {
			s.conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		}
		typ, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				middleware.RecordWebSocketError("read")
				s.logger.Error("read error", "error", err)
			}
			return
		}
		if typ != websocket.BinaryMessage {
			s.logger.Warn("non-binary message dropped")
			continue
		}

		f, err := DecodeFrame(msg)
		if err != nil {
			middleware.RecordWebSocketError("decode")
			s.logger.Error("frame decode error", "error", err)
			s.sendError(errors.New("W040").Wrap(err))
			continue
		}
		s.handle(f)
	}
}

func (s *Session) handle(f *Frame) {
	switch f.Kind {
	case KindEvent:
		s.handleEvent(f.Event)
	case KindNavigate:
		s.runtime.Navigate(f.URI)
	case KindPop:
		if !s.history.Popped(f.URI) {
			s.runtime.Navigate(f.URI)
		}
	case KindPing:
		if err := s.Send(&Frame{Kind: KindPong}); err != nil {
			s.logger.Debug("pong not sent", "error", err)
		}
		return
	default:
		s.logger.Warn("unexpected frame from client", "kind", f.Kind)
		return
	}
	s.Flush()
}

func (s *Session) handleEvent(p *EventPayload) {
	s.events.Inc()
	el, ok := s.runtime.Document().ElementByID(p.Target)
	if !ok {
		s.sendError(errors.New("W041").WithDetail("Element " + p.Target + " is not in the document."))
		return
	}
	if p.Value != nil {
		el.SetValue(*p.Value)
	}
	if p.Checked != nil {
		el.SetChecked(*p.Checked)
	}
	s.runtime.HandleEvent(&dom.Event{Type: p.Type, Target: el, Key: p.Key})
}

// Close closes the connection once.
func (s *Session) Close() {
	if s.closed.Swap(true) {
		return
	}
	close(s.done)

	s.wmu.Lock()
	s.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	s.conn.Close()
	s.wmu.Unlock()

	s.logger.Info("session closed", "events", s.events.Load())
}
