// Package actions turns document events into calls of component and route
// action handlers.
//
// Elements declare actions in an attribute:
//
//	<button action="select(args.id, 'primary')|mousedown:press">
//
// Entries are pipe-separated. An entry without an event type binds to the
// default event (click). Arguments are data paths resolved against the
// handling instance (args, queryParams, hash, model, i18n), quoted strings,
// numbers or booleans.
//
// # Dispatch
//
// For each event the Dispatcher:
//
//  1. syncs a bound form control (binding="model.name") into the model of
//     the innermost active instance whose view holds it
//  2. finds the nearest element carrying an action for the event type
//  3. offers the action to the innermost registered component containing
//     the target, falling back to its NoSuchAction handler
//  4. offers it to the active routes from leaf to root while handlers
//     return true
//
// Events without an action follow the nearest href when it names a
// registered route. The alternative event (touchstart) counts as the
// default event; when both fire for the same element only the first one
// within the dedupe window is dispatched.
//
//	d := actions.New(engine, registry, actions.WithObserver(obs))
//	d.HandleEvent(&dom.Event{Type: "click", Target: el})
package actions
