// Package router resolves URIs to chains of route definitions.
//
// The router provides:
//   - Pattern compilation for route templates (:param, *splat, [optional])
//   - A Resolver that matches URIs in registration order
//   - A Table that links nested definitions into root-to-leaf chains,
//     whatever order they are registered in
//   - A Registry holding the resolver, the table, instance caches, shared
//     views and components for one application
//
// # Nested Paths
//
// A nested definition is registered as parent|suffix:
//
//	/inbox         → [inbox]
//	/inbox|/:id    → /inbox/:id  → [inbox, message]
//	/inbox|        → /inbox      → [inbox, inboxIndex]
//
// A child registered before its parent waits in a pending list keyed by the
// parent path and is linked once the parent arrives.
//
// # Resolution
//
//	reg := router.NewRegistry()
//	reg.RegisterPath("/inbox", newInbox)
//	reg.RegisterPath("/inbox|/:id", newMessage)
//
//	res, err := reg.Resolve("/inbox/42?sort=asc#top")
//	// res.Path            == "/inbox/:id"
//	// res.Match.Params    == {"id": "42"}
//	// res.Match.Query     == {"sort": "asc"}
//	// res.Match.Hash      == "top"
package router
