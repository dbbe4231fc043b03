package errors

import "sort"

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
	// Configuration Errors (E100-E199)
	// ============================================

	"E101": {
		Category:   CategoryConfig,
		Message:    "Config file unreadable",
		Detail:     "The configuration file exists but could not be read or parsed.",
		Suggestion: "Check the file's syntax, or remove --config to use defaults.",
	},
	"E102": {
		Category:   CategoryConfig,
		Message:    "Invalid configuration value",
		Detail:     "A configuration value is out of range or not one of the allowed choices.",
		Suggestion: "Check the value against `storefront config`.",
	},
	"E103": {
		Category:   CategoryConfig,
		Message:    "Missing S3 bucket",
		Detail:     "The contact archive is set to s3 but no bucket is configured.",
		Suggestion: "Set store.s3.bucket or STOREFRONT_STORE_S3_BUCKET, or use store.archive=memory.",
	},

	// ============================================
	// Storage Errors (E200-E299)
	// ============================================

	"E201": {
		Category:   CategoryStorage,
		Message:    "Subscriber database unavailable",
		Detail:     "The SQLite subscriber database could not be opened or migrated.",
		Suggestion: "Check that store.sqlite_path is writable.",
	},
	"E202": {
		Category:   CategoryStorage,
		Message:    "Contact archive upload failed",
		Detail:     "A contact submission could not be written to the archive.",
		Suggestion: "Check the S3 credentials and bucket permissions.",
	},

	// ============================================
	// Live Channel Errors (E300-E399)
	// ============================================

	"E301": {
		Category: CategoryLive,
		Message:  "Live channel upgrade failed",
		Detail:   "The browser's request could not be upgraded to a WebSocket connection.",
	},
	"E302": {
		Category: CategoryLive,
		Message:  "Live sessions did not close in time",
		Detail:   "Some live sessions were still open when the shutdown timeout expired.",
	},

	// ============================================
	// Server Errors (E400-E499)
	// ============================================

	"E401": {
		Category:   CategoryServer,
		Message:    "Cannot listen on address",
		Detail:     "The HTTP server could not bind its listen address.",
		Suggestion: "Pick a free port with --addr or STOREFRONT_SERVER_ADDRESS.",
	},
	"E402": {
		Category: CategoryServer,
		Message:  "Graceful shutdown timed out",
		Detail:   "In-flight requests did not finish within server.shutdown_timeout.",
	},
}

// GetAllCodes returns all registered error codes in order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
