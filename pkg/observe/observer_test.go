package observe

import (
	"context"
	"reflect"
	"sync"
	"testing"
	"time"
)

func TestCheckpoint(t *testing.T) {
	o := New()
	value := map[string]any{"a": 1, "b": []string{"x"}}
	var mu sync.Mutex
	get := func() any {
		mu.Lock()
		defer mu.Unlock()
		return cloneMap(value)
	}

	var changes []Change
	stop := o.Observe(get, func(c Change) { changes = append(changes, c) })

	if n := o.Checkpoint(); n != 0 {
		t.Errorf("Checkpoint() without changes = %d, want 0", n)
	}

	mu.Lock()
	value["b"] = []string{"x", "y"}
	value["c"] = true
	delete(value, "a")
	mu.Unlock()

	if n := o.Checkpoint(); n != 1 {
		t.Fatalf("Checkpoint() = %d, want 1", n)
	}
	want := Change{Added: []string{"c"}, Removed: []string{"a"}, Changed: []string{"b"}}
	if !reflect.DeepEqual(changes[0], want) {
		t.Errorf("change = %+v, want %+v", changes[0], want)
	}
	if got := changes[0].Keys(); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("Keys() = %v", got)
	}

	stop()
	stop()
	mu.Lock()
	value["d"] = 1
	mu.Unlock()
	if n := o.Checkpoint(); n != 0 || o.Len() != 0 {
		t.Errorf("Checkpoint() after stop = %d, Len() = %d", n, o.Len())
	}
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func TestCheckpointNestedMapOrder(t *testing.T) {
	o := New()
	n := 0
	o.Observe(func() any {
		return map[string]any{"model": map[string]any{"x": 1, "y": 2, "z": 3}}
	}, func(Change) { n++ })

	for i := 0; i < 10; i++ {
		o.Checkpoint()
	}
	if n != 0 {
		t.Errorf("equal maps reported as changed %d times", n)
	}
}

type item struct {
	Name string
	Done bool
}

func TestCheckpointScalarValue(t *testing.T) {
	o := New()
	it := &item{Name: "a"}
	var got []Change
	o.Observe(func() any { return *it }, func(c Change) { got = append(got, c) })

	it.Done = true
	o.Checkpoint()
	if len(got) != 1 || !reflect.DeepEqual(got[0].Changed, []string{""}) {
		t.Errorf("changes = %+v, want one change under the empty key", got)
	}
}

func TestRun(t *testing.T) {
	o := New()
	var mu sync.Mutex
	v := 0
	fired := make(chan struct{}, 1)
	o.Observe(func() any {
		mu.Lock()
		defer mu.Unlock()
		return v
	}, func(Change) {
		select {
		case fired <- struct{}{}:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go o.Run(ctx, 5*time.Millisecond)

	mu.Lock()
	v = 1
	mu.Unlock()

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not report the change")
	}
}

func TestObserveLockedRun(t *testing.T) {
	o := New()
	var mu sync.RWMutex
	model := map[string]any{"items": map[string]any{"n": 0}}
	fired := make(chan struct{}, 1)
	o.ObserveLocked(func(visit func(any)) {
		mu.RLock()
		defer mu.RUnlock()
		visit(model)
	}, func(Change) {
		select {
		case fired <- struct{}{}:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go o.Run(ctx, time.Millisecond)

	deadline := time.Now().Add(50 * time.Millisecond)
	for i := 1; time.Now().Before(deadline); i++ {
		mu.Lock()
		model["items"].(map[string]any)["n"] = i
		mu.Unlock()
	}

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not report the in-place change")
	}
}
