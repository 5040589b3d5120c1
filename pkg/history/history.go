package history

import (
	"sync"
)

// History is the browser history the transition engine writes to.
type History interface {
	// Push adds an entry.
	Push(uri, title string)

	// Replace overwrites the current entry.
	Replace(uri, title string)

	// Back moves one entry back. Implementations report the move through
	// their pop listener.
	Back()

	// Forward moves one entry forward.
	Forward()
}

// Entry is one history entry.
type Entry struct {
	URI   string
	Title string
}

// Memory is an in-process history stack. Moving back or forward reports
// the new current URI to the pop listener, the way a browser fires
// popstate. Memory is safe for concurrent use.
type Memory struct {
	mu      sync.Mutex
	entries []Entry
	index   int
	onPop   func(uri string)
}

var _ History = (*Memory)(nil)

// NewMemory creates an empty history.
func NewMemory() *Memory {
	return &Memory{index: -1}
}

// OnPop sets the listener called after Back and Forward.
func (m *Memory) OnPop(fn func(uri string)) {
	m.mu.Lock()
	m.onPop = fn
	m.mu.Unlock()
}

// Push implements History. Entries after the current one are dropped.
func (m *Memory) Push(uri, title string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries[:m.index+1], Entry{URI: uri, Title: title})
	m.index = len(m.entries) - 1
}

// Replace implements History.
func (m *Memory) Replace(uri, title string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.index < 0 {
		m.entries = []Entry{{URI: uri, Title: title}}
		m.index = 0
		return
	}
	m.entries[m.index] = Entry{URI: uri, Title: title}
}

// Back implements History.
func (m *Memory) Back() { m.move(-1) }

// Forward implements History.
func (m *Memory) Forward() { m.move(1) }

func (m *Memory) move(delta int) {
	m.mu.Lock()
	next := m.index + delta
	if next < 0 || next >= len(m.entries) {
		m.mu.Unlock()
		return
	}
	m.index = next
	uri, fn := m.entries[next].URI, m.onPop
	m.mu.Unlock()

	if fn != nil {
		fn(uri)
	}
}

// Current returns the current entry.
func (m *Memory) Current() (Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.index < 0 {
		return Entry{}, false
	}
	return m.entries[m.index], true
}

// Entries returns a copy of the stack.
func (m *Memory) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Entry(nil), m.entries...)
}

// Len returns the number of entries.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
