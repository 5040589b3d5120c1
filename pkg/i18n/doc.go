// Package i18n loads localized messages for route templates.
//
// Message files use the go-i18n format in TOML or YAML and are named after
// their language:
//
//	# en.toml
//	hello = "Hello"
//	[inbox]
//	other = "Inbox"
//
// Templates read the active language through the i18n root of the route
// data, e.g. {{i18n.hello}}.
package i18n
