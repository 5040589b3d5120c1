// Package transition drives navigation between route chains.
//
// A transition resolves its URI to a chain of route instances, asks the
// instances it leaves to resign and then activates its own chain root
// first. Each instance runs through a fixed sequence of stages:
//
//	enter → preModel → model → postModel → render → mount → show → ready
//
// The leaf also commits the transition: resigned instances are hidden,
// history is written and the instances left behind are paused, or exited
// when the history entry was replaced.
//
// # Supersession
//
// Starting a transition makes it the target. Older transitions keep
// running only while they are entering instances the target reuses;
// anything else they were entering is aborted and destroyed. Commit stages
// only run for the target.
//
// # Failure
//
// A hook error before commit tears down what the transition entered and
// restores the active chain. A Resign error keeps the active chain as it
// is.
//
// # Middleware
//
// Every stage runs through the configured Middleware, outermost first:
//
//	engine := transition.New(reg,
//		transition.WithMiddleware(middleware.Prometheus(), middleware.OpenTelemetry()),
//	)
package transition
