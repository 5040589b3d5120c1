package bridge

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Kind identifies a frame.
type Kind string

// Client to server.
const (
	KindEvent    Kind = "event"
	KindNavigate Kind = "navigate"
	KindPop      Kind = "pop"
	KindPing     Kind = "ping"
)

// Server to client.
const (
	KindHello    Kind = "hello"
	KindPush     Kind = "push"
	KindReplace  Kind = "replace"
	KindBack     Kind = "back"
	KindForward  Kind = "forward"
	KindDocument Kind = "document"
	KindError    Kind = "error"
	KindPong     Kind = "pong"
)

// Frame is one websocket message, msgpack-encoded.
type Frame struct {
	Kind Kind   `msgpack:"k"`
	Seq  uint64 `msgpack:"s,omitempty"`

	// Session is set on hello.
	Session string `msgpack:"sid,omitempty"`

	// URI and Title carry navigations and history operations.
	URI   string `msgpack:"u,omitempty"`
	Title string `msgpack:"t,omitempty"`

	Event *EventPayload `msgpack:"e,omitempty"`

	// HTML is the document body on document frames.
	HTML string `msgpack:"h,omitempty"`

	// Code and Message describe error frames.
	Code    string `msgpack:"c,omitempty"`
	Message string `msgpack:"m,omitempty"`
}

// EventPayload is a client event. Value and Checked carry the state of the
// target form control at the time of the event.
type EventPayload struct {
	Type    string  `msgpack:"type"`
	Target  string  `msgpack:"target"`
	Key     string  `msgpack:"key,omitempty"`
	Value   *string `msgpack:"value,omitempty"`
	Checked *bool   `msgpack:"checked,omitempty"`
}

// Encode marshals f.
func (f *Frame) Encode() ([]byte, error) {
	return msgpack.Marshal(f)
}

// DecodeFrame unmarshals a frame and checks its kind.
func DecodeFrame(data []byte) (*Frame, error) {
	var f Frame
	if err := msgpack.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	switch f.Kind {
	case KindEvent:
		if f.Event == nil || f.Event.Type == "" || f.Event.Target == "" {
			return nil, fmt.Errorf("bridge: event frame without event")
		}
	case KindNavigate, KindPop:
		if f.URI == "" {
			return nil, fmt.Errorf("bridge: %s frame without uri", f.Kind)
		}
	case KindPing, KindHello, KindPush, KindReplace, KindBack, KindForward, KindDocument, KindError, KindPong:
	default:
		return nil, fmt.Errorf("bridge: unknown frame kind %q", f.Kind)
	}
	return &f, nil
}
