package middleware

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"

	"github.com/tnhu/wpm/pkg/transition"
)

func TestOpenTelemetryClosesTransitionSpans(t *testing.T) {
	var stages []string
	tr := OpenTelemetry(
		WithTracerName("test"),
		WithAttributeExtractor(func(st *transition.Stage) []attribute.KeyValue {
			stages = append(stages, st.Name)
			return []attribute.KeyValue{attribute.String("test.attr", "ok")}
		}),
	)
	eng := newEngine(t, tr)

	if o := settle(t, eng, eng.TransitionTo("/ok", nil)); o != transition.OutcomeCompleted {
		t.Fatalf("outcome = %v", o)
	}
	if o := settle(t, eng, eng.TransitionTo("/broken", nil)); o != transition.OutcomeFailed {
		t.Fatalf("outcome = %v", o)
	}
	if len(stages) == 0 {
		t.Error("stages were not traced")
	}
	if n := tr.Pending(); n != 0 {
		t.Errorf("Pending() = %d, want every transition span ended", n)
	}
}

func TestOpenTelemetryFilter(t *testing.T) {
	traced := 0
	tr := OpenTelemetry(
		WithStageFilter(func(st *transition.Stage) bool { return st.Name == transition.StageModel }),
		WithAttributeExtractor(func(*transition.Stage) []attribute.KeyValue {
			traced++
			return nil
		}),
	)
	eng := newEngine(t, tr)
	settle(t, eng, eng.TransitionTo("/ok", nil))

	if traced != 1 {
		t.Errorf("traced stages = %d, want only the model stage", traced)
	}
}

func TestOpenTelemetryPassesErrors(t *testing.T) {
	tr := OpenTelemetry()
	want := errorString("boom")
	err := tr.Handle(context.Background(), &transition.Stage{Name: "x"}, func() error { return want })
	if err != want {
		t.Errorf("Handle() error = %v, want %v", err, want)
	}
}
