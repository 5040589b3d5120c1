// Package middleware provides observability middleware for the transition
// engine.
//
// # OpenTelemetry
//
// OpenTelemetry traces every transition as a span with one child span per
// stage. Stage spans carry the route path, instance id and state.
//
//	engine := transition.New(reg,
//	    transition.WithMiddleware(middleware.OpenTelemetry()),
//	)
//
// Configure with options:
//
//	middleware.OpenTelemetry(
//	    middleware.WithTracerName("my-app"),
//	    middleware.WithStageFilter(func(st *transition.Stage) bool {
//	        return st.Instance != nil
//	    }),
//	)
//
// # Prometheus Metrics
//
// Prometheus counts stages by status, times stages and whole transitions,
// and counts transitions by mode and outcome. The Record functions feed
// the action and session metrics from the dispatcher and the bridge.
//
//	engine := transition.New(reg,
//	    transition.WithMiddleware(middleware.Prometheus()),
//	)
//
// Then expose the metrics:
//
//	http.Handle("/metrics", promhttp.Handler())
package middleware
