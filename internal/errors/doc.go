// Package errors provides structured, coded errors for wpm.
//
// # Error Categories
//
// Errors are organized into categories:
//   - routing: unknown URIs, duplicate or malformed route paths
//   - lifecycle: route hook failures and rejected resigns
//   - render: missing templates and render failures
//   - protocol: websocket frame errors
//   - validation: route manifests and guard expressions
//   - config: configuration loading and validation
//
// # Error Codes
//
// Each error has a unique code (e.g., "W001") that maps to a short message,
// a detailed explanation and an optional hint.
//
// # Usage
//
//	err := errors.New("W001").WithPath("/inbox/42")
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR W001: Route is not registered
//	//
//	//   /inbox/42
//	//
//	//   No registered pattern matches the requested URI. The navigation has no effect.
//	//
//	//   Hint: Register a route whose path matches the URI before navigating to it.
package errors
