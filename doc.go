// Package wpm assembles the navigation runtime of a single-page application.
//
// An App owns a route registry, the transition engine driving route
// instances through their lifecycle, the action dispatcher routing document
// events to route and component actions, and the document routes render
// into:
//
//	cfg, _ := config.Load(".")
//	app, err := wpm.New(cfg, wpm.WithShell(`<main id="app"></main>`))
//	if err != nil {
//	    return err
//	}
//	defer app.Close()
//
//	app.Route("/inbox", newInbox, route.WithTemplate("inbox"))
//	app.Route("/inbox|/:id", newMessage, route.WithTemplate("message"))
//	app.Navigate("/inbox/42")
//
// # Project Layout
//
// Paths in wpm.toml are relative to the file:
//
//	wpm.toml       configuration
//	routes.toml    declarative routes (or routes.yaml)
//	templates/     Handlebars templates, id = path without extension
//	locales/       go-i18n message files named after their language
//
// Missing directories are skipped.
//
// # Serving
//
// An App implements bridge.Runtime, so one App per WebSocket session
// drives a browser through the bridge package.
package wpm
