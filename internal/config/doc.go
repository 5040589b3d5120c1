// Package config provides configuration parsing for wpm applications.
//
// The configuration is stored in wpm.toml at the project root. Every field
// can be overridden through an environment variable with the WPM_ prefix,
// e.g. WPM_BASE_PATH or WPM_ROUTES_DESTROY_GRACE.
//
// # Configuration File Structure
//
//	base_path = "/app"
//	app_root = "main"
//	log_level = "debug"
//
//	[events]
//	default = "click"
//	alternative = "touchstart"
//	dedupe_window = "400ms"
//
//	[routes]
//	destroy_grace = "3s"
//	observe_interval = "100ms"
//
//	[i18n]
//	language = "en"
//	dir = "locales"
//
//	[paths]
//	templates = "templates"
//	manifest = "routes.toml"
//
//	[server]
//	listen = "localhost:3000"
//	metrics = true
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
