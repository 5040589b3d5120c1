// Package bridge connects browsers to server-side navigation runtimes over
// WebSocket.
//
// Every message is a msgpack-encoded Frame. Clients send events, navigations
// and history pops; the server answers with history operations (push,
// replace, back, forward) and the document whenever it changed.
//
//	srv := bridge.New(func(s *bridge.Session) (bridge.Runtime, error) {
//	    return newRuntime(s.History(), s.Flush)
//	})
//	router.Handle("/ws", srv)
//
// # Sessions
//
// Each connection gets a uuid session id, announced in the hello frame, and
// its own runtime built by the factory. The runtime writes history through
// the session's RemoteHistory, whose pops arrive from the client. The uri
// query parameter of the upgrade request is navigated to on connect.
//
// Session counts, frames sent and socket errors are recorded through the
// Prometheus middleware when it is enabled.
package bridge
