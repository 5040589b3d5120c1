// Package history abstracts the browser history the router writes to.
//
// Memory keeps the stack in process and reports Back and Forward moves to
// a pop listener, which the transition engine turns into pop transitions.
package history
