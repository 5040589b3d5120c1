// Package manifest declares routes in TOML or YAML files.
//
//	[[routes]]
//	path = "/mail/:id"
//	template = "mail"
//	title = "Mail"
//	guard = 'args.id != "0"'
//	redirect = "/inbox"
//	[routes.model]
//	folder = "inbox"
//	[routes.actions]
//	reply = "/mail/{{args.id}}/reply"
//
// Guards are CEL expressions over args, query and hash evaluated when an
// instance is entered. A false guard fails the transition with W032 and
// navigates to the redirect when one is declared. Actions render their URI
// template against the data bag, with the action arguments as params, and
// navigate there.
//
//	m, err := manifest.Load("routes.toml")
//	defs, err := manifest.Install(registry, engine, m, manifest.WithTemplates(templates))
package manifest
