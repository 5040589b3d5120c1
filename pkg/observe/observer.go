package observe

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Change lists the top-level keys that differ between two snapshots.
type Change struct {
	Added   []string
	Removed []string
	Changed []string
}

// Empty reports whether nothing changed.
func (c Change) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0 && len(c.Changed) == 0
}

// Keys returns every key in the change, sorted.
func (c Change) Keys() []string {
	keys := slices.Concat(c.Added, c.Removed, c.Changed)
	slices.Sort(keys)
	return keys
}

// Option configures an Observer.
type Option func(*Observer)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Observer) { o.logger = l }
}

// Observer detects changes to observed values by comparing encoded
// snapshots at checkpoints. A value that is a map[string]any is snapshotted
// per key; anything else is a single entry under the empty key.
type Observer struct {
	logger *slog.Logger

	mu      sync.Mutex
	next    uint64
	watches map[uint64]*watch
}

type watch struct {
	read func(visit func(any))
	fn   func(Change)
	snap map[string][]byte
}

// New creates an Observer.
func New(opts ...Option) *Observer {
	o := &Observer{
		logger:  slog.Default(),
		watches: make(map[uint64]*watch),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Observe starts watching the value returned by get. fn is called from
// Checkpoint whenever the value changed since the previous checkpoint.
// The returned function stops watching; it is safe to call more than once.
func (o *Observer) Observe(get func() any, fn func(Change)) (stop func()) {
	return o.ObserveLocked(func(visit func(any)) { visit(get()) }, fn)
}

// ObserveLocked is Observe for a value guarded by a lock. read must call
// visit with the value while holding that lock; the snapshot is encoded
// inside visit, so writers never overlap the encoding.
func (o *Observer) ObserveLocked(read func(visit func(any)), fn func(Change)) (stop func()) {
	w := &watch{read: read, fn: fn}
	w.snap = o.take(w)

	o.mu.Lock()
	id := o.next
	o.next++
	o.watches[id] = w
	o.mu.Unlock()

	return func() {
		o.mu.Lock()
		delete(o.watches, id)
		o.mu.Unlock()
	}
}

// Len returns the number of active watches.
func (o *Observer) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.watches)
}

// Checkpoint compares every watched value against its last snapshot and
// notifies the watches that changed. It returns the number notified.
// Callbacks run without the observer lock held.
func (o *Observer) Checkpoint() int {
	o.mu.Lock()
	ids := slices.Sorted(maps.Keys(o.watches))
	watches := make([]*watch, 0, len(ids))
	for _, id := range ids {
		watches = append(watches, o.watches[id])
	}
	o.mu.Unlock()

	type note struct {
		fn     func(Change)
		change Change
	}
	var notes []note
	for _, w := range watches {
		snap := o.take(w)
		o.mu.Lock()
		change := diff(w.snap, snap)
		w.snap = snap
		o.mu.Unlock()
		if !change.Empty() {
			notes = append(notes, note{w.fn, change})
		}
	}

	for _, n := range notes {
		n.fn(n.change)
	}
	return len(notes)
}

// Run calls Checkpoint every interval until ctx is done.
func (o *Observer) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.Checkpoint()
		}
	}
}

func (o *Observer) take(w *watch) map[string][]byte {
	var snap map[string][]byte
	w.read(func(v any) { snap = o.snapshot(v) })
	return snap
}

func (o *Observer) snapshot(v any) map[string][]byte {
	if m, ok := v.(map[string]any); ok {
		snap := make(map[string][]byte, len(m))
		for k, x := range m {
			snap[k] = o.encode(x)
		}
		return snap
	}
	return map[string][]byte{"": o.encode(v)}
}

func (o *Observer) encode(v any) []byte {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(v); err != nil {
		o.logger.Debug("observe: encode failed, comparing by format", "error", err)
		return []byte(fmt.Sprintf("%#v", v))
	}
	return buf.Bytes()
}

func diff(old, cur map[string][]byte) Change {
	var c Change
	for k, v := range cur {
		prev, ok := old[k]
		switch {
		case !ok:
			c.Added = append(c.Added, k)
		case !bytes.Equal(prev, v):
			c.Changed = append(c.Changed, k)
		}
	}
	for k := range old {
		if _, ok := cur[k]; !ok {
			c.Removed = append(c.Removed, k)
		}
	}
	slices.Sort(c.Added)
	slices.Sort(c.Removed)
	slices.Sort(c.Changed)
	return c
}
