package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "routing error",
			code:    "W001",
			wantMsg: "Route is not registered",
			wantCat: CategoryRouting,
		},
		{
			name:    "lifecycle error",
			code:    "W005",
			wantMsg: "Lifecycle hook failed",
			wantCat: CategoryLifecycle,
		},
		{
			name:    "protocol error",
			code:    "W040",
			wantMsg: "Invalid protocol frame",
			wantCat: CategoryProtocol,
		},
		{
			name:    "unknown error code",
			code:    "W999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestWpmError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *WpmError
		want string
	}{
		{"code only", New("W002"), "W002: Route is already registered"},
		{"with path", New("W001").WithPath("/x"), "W001: Route is not registered (/x)"},
		{"wrapped", New("W005").Wrap(fmt.Errorf("boom")), "W005: Lifecycle hook failed: boom"},
		{"no code", &WpmError{Message: "test error"}, "test error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUnwrapAndIs(t *testing.T) {
	cause := stderrors.New("cause")
	err := fmt.Errorf("outer: %w", FromError(cause, "W020"))

	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
	if !Is(err, "W020") {
		t.Error("Is(err, W020) = false, want true")
	}
	if Is(err, "W021") {
		t.Error("Is(err, W021) = true, want false")
	}
	if FromError(nil, "W020") != nil {
		t.Error("FromError(nil) should be nil")
	}

	we := New("W030")
	if FromError(we, "W020") != we {
		t.Error("FromError should return an existing WpmError unchanged")
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	out := New("W001").WithPath("/inbox/42").Format()
	for _, want := range []string{"ERROR W001: Route is not registered", "/inbox/42", "Hint: Register"} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q in:\n%s", want, out)
		}
	}
}

func TestFormatJSON(t *testing.T) {
	out := New("W005").WithPath("/a").Wrap(stderrors.New("bad")).FormatJSON()

	var got map[string]string
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("FormatJSON() is not JSON: %v", err)
	}
	if got["code"] != "W005" || got["path"] != "/a" || got["cause"] != "bad" {
		t.Errorf("FormatJSON() = %s", out)
	}
}

func TestRegister(t *testing.T) {
	Register("W900", ErrorTemplate{Category: CategoryCLI, Message: "custom"})
	defer delete(registry, "W900")

	if got := New("W900").Message; got != "custom" {
		t.Errorf("Message = %q, want %q", got, "custom")
	}
	if _, ok := Lookup("W900"); !ok {
		t.Error("Lookup(W900) should succeed")
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText("one two three four five", 9)
	want := []string{"one two", "three", "four five"}
	if len(lines) != len(want) {
		t.Fatalf("wrapText() = %q, want %q", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}
