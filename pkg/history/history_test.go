package history

import (
	"reflect"
	"testing"
)

func TestMemory(t *testing.T) {
	m := NewMemory()
	var pops []string
	m.OnPop(func(uri string) { pops = append(pops, uri) })

	m.Push("/a", "A")
	m.Push("/b", "B")
	m.Push("/c", "")
	m.Replace("/c2", "C")

	if cur, _ := m.Current(); cur != (Entry{URI: "/c2", Title: "C"}) {
		t.Errorf("Current() = %+v", cur)
	}

	m.Back()
	m.Back()
	m.Back() // already at the first entry
	m.Forward()

	if want := []string{"/b", "/a", "/b"}; !reflect.DeepEqual(pops, want) {
		t.Errorf("pops = %v, want %v", pops, want)
	}

	m.Push("/d", "")
	want := []Entry{{"/a", "A"}, {"/b", "B"}, {"/d", ""}}
	if got := m.Entries(); !reflect.DeepEqual(got, want) {
		t.Errorf("Entries() = %v, want forward entries dropped: %v", got, want)
	}
}

func TestMemoryReplaceEmpty(t *testing.T) {
	m := NewMemory()
	if _, ok := m.Current(); ok {
		t.Error("Current() on empty history should report false")
	}
	m.Replace("/x", "")
	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1", m.Len())
	}
}
