// Package route defines route definitions, their live instances and the
// lifecycle hooks route handlers implement.
//
// # Definitions
//
// A definition is registered with a standalone path ("/inbox/:id") or a
// nested one ("/inbox|/new"). An empty suffix ("/inbox|") makes the
// definition its parent's default child.
//
//	def, err := route.NewDefinition("/inbox|/:id", func() route.Route { return &Message{} },
//	    route.WithTemplate("message"),
//	    route.Inherit(shared),
//	    route.WithActions(map[string]route.Action{"archive": archive}),
//	)
//
// # Instances
//
// An instance is keyed by its serialized path and query parameters. Its
// data bag exposes args, queryParams, hash and i18n read-only; model is the
// only writable root.
//
// # Lifecycle
//
// Instances move through enter, preModel, model, postModel, render and
// ready. Leaving the active chain they resign, then pause or exit; a paused
// instance resumes when the user navigates back. Superseded or failed
// entries end in abort, and every instance ends in destroy.
package route
