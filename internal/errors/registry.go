package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Routing Errors (W001-W009)
	// ============================================

	"W001": {
		Category:   CategoryRouting,
		Message:    "Route is not registered",
		Detail:     "No registered pattern matches the requested URI. The navigation has no effect.",
		Suggestion: "Register a route whose path matches the URI before navigating to it.",
	},
	"W002": {
		Category: CategoryRouting,
		Message:  "Route is already registered",
		Detail:   "A route definition with the same path was registered earlier. The later registration is ignored.",
	},
	"W003": {
		Category:   CategoryRouting,
		Message:    "Invalid nested route path",
		Detail:     "A nested route path has the form parent|suffix and may contain at most one pipe.",
		Suggestion: "Split deeper nesting into separate registrations, one level per definition.",
	},
	"W004": {
		Category:   CategoryRouting,
		Message:    "Parent route is not registered",
		Detail:     "The route table entry still references a parent path that has not been registered.",
		Suggestion: "Register the parent route. Child routes may be registered in any order.",
	},

	// ============================================
	// Lifecycle Errors (W005-W019)
	// ============================================

	"W005": {
		Category: CategoryLifecycle,
		Message:  "Lifecycle hook failed",
		Detail:   "A route hook returned an error. The transition was aborted and the previous chain restored.",
	},
	"W006": {
		Category:   CategoryRender,
		Message:    "Template is not defined",
		Detail:     "The route has neither a template nor a custom renderer.",
		Suggestion: "Set a template id on the definition or implement Render on the route.",
	},
	"W007": {
		Category: CategoryLifecycle,
		Message:  "Resign rejected",
		Detail:   "A route refused to resign. The transition was abandoned and the active chain kept.",
	},
	"W008": {
		Category: CategoryLifecycle,
		Message:  "Route instance lost",
		Detail:   "A shared route instance was torn down by another transition before it became ready.",
	},
	"W009": {
		Category:   CategoryRender,
		Message:    "No render target",
		Detail:     "The route has no parent outlet, no renderTo element and the engine has no root element.",
		Suggestion: "Add an element with an outlet attribute to the parent template or configure a root element.",
	},

	// ============================================
	// Config Errors (W020-W029)
	// ============================================

	"W020": {
		Category:   CategoryConfig,
		Message:    "Cannot load configuration",
		Detail:     "The configuration file could not be read or parsed.",
		Suggestion: "Check that wpm.toml exists and is valid TOML.",
	},
	"W021": {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
	},

	// ============================================
	// Manifest Errors (W030-W039)
	// ============================================

	"W030": {
		Category:   CategoryValidation,
		Message:    "Cannot load route manifest",
		Suggestion: "Manifests are .toml, .yaml or .yml files with a top-level routes list.",
	},
	"W031": {
		Category:   CategoryValidation,
		Message:    "Invalid route guard",
		Detail:     "The guard expression did not compile to a boolean CEL program.",
		Suggestion: "Guards see args, query and hash, e.g. args.id != \"0\".",
	},
	"W032": {
		Category: CategoryRouting,
		Message:  "Route guard rejected the transition",
		Detail:   "The enter guard evaluated to false. The transition was redirected or abandoned.",
	},

	// ============================================
	// Protocol Errors (W040-W049)
	// ============================================

	"W040": {
		Category: CategoryProtocol,
		Message:  "Invalid protocol frame",
		Detail:   "A websocket frame could not be decoded or carried an unknown kind.",
	},
	"W041": {
		Category: CategoryProtocol,
		Message:  "Element not found",
		Detail:   "The event referenced an element id that does not exist in the session document.",
	},
}

// Register adds a custom error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}

// Lookup returns the error template for a code.
func Lookup(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Codes returns all registered error codes.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}
