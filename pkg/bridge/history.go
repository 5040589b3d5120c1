package bridge

import (
	"sync"

	"github.com/tnhu/wpm/pkg/history"
)

// RemoteHistory is the history of a connected browser. Writes become
// frames sent to the client; pop frames from the client reach the pop
// listener.
type RemoteHistory struct {
	send func(*Frame)

	mu    sync.Mutex
	onPop func(uri string)
}

var _ history.History = (*RemoteHistory)(nil)

// NewRemoteHistory creates a history that sends its operations with send.
func NewRemoteHistory(send func(*Frame)) *RemoteHistory {
	return &RemoteHistory{send: send}
}

func (h *RemoteHistory) Push(uri, title string) {
	h.send(&Frame{Kind: KindPush, URI: uri, Title: title})
}

func (h *RemoteHistory) Replace(uri, title string) {
	h.send(&Frame{Kind: KindReplace, URI: uri, Title: title})
}

// Back asks the browser to go back. The browser answers with a pop frame.
func (h *RemoteHistory) Back() { h.send(&Frame{Kind: KindBack}) }

// Forward asks the browser to go forward.
func (h *RemoteHistory) Forward() { h.send(&Frame{Kind: KindForward}) }

// OnPop sets the listener called with the URI of a browser pop.
func (h *RemoteHistory) OnPop(fn func(uri string)) {
	h.mu.Lock()
	h.onPop = fn
	h.mu.Unlock()
}

// Popped reports a browser pop to the listener.
func (h *RemoteHistory) Popped(uri string) bool {
	h.mu.Lock()
	fn := h.onPop
	h.mu.Unlock()
	if fn == nil {
		return false
	}
	fn(uri)
	return true
}
