// Package dom is the headless document that route views are mounted into.
//
// Routes never touch markup directly: the transition engine mounts rendered
// markup through a Surface and keeps the returned View. A View knows its
// outlet (the first element with an outlet attribute, where child routes
// render) and its bindings (elements with a binding attribute naming a
// data path).
//
// Every element gets a stable data-wpm-id attribute when it is mounted so
// remote clients can reference it in events.
package dom
