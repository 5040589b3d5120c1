package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/tnhu/wpm/pkg/route"
	"github.com/tnhu/wpm/pkg/router"
	"github.com/tnhu/wpm/pkg/transition"
)

type failingRoute struct {
	route.Base
}

func (failingRoute) Model(context.Context, *route.Instance) (any, error) {
	return nil, errors.New("backend unavailable")
}

func (failingRoute) Fail(*route.Instance, error, route.State) {}

// newEngine returns a headless engine with "/ok" and "/broken" registered.
func newEngine(t *testing.T, mw ...transition.Middleware) *transition.Engine {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := router.NewRegistry(router.WithLogger(logger))
	if err := reg.Register(route.MustDefinition("/ok", func() route.Route { return route.Base{} })); err != nil {
		t.Fatal(err)
	}
	if err := reg.Register(route.MustDefinition("/broken", func() route.Route { return failingRoute{} })); err != nil {
		t.Fatal(err)
	}
	eng := transition.New(reg, transition.WithLogger(logger), transition.WithMiddleware(mw...))
	t.Cleanup(eng.Close)
	return eng
}

func settle(t *testing.T, eng *transition.Engine, tr *transition.Transition) transition.Outcome {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	o, _ := tr.Wait(ctx)
	if err := eng.Wait(ctx); err != nil {
		t.Fatalf("engine did not settle: %v", err)
	}
	return o
}
