// Package observe implements dirty checking for route data.
//
// An Observer holds a msgpack snapshot of every watched value and compares
// it at each Checkpoint. The action dispatcher checkpoints after every
// dispatched event; Run checkpoints on a timer for changes made outside
// event handling, such as a model filled in by a background fetch.
package observe
