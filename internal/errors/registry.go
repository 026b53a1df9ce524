package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// Configuration (W100-W119)

	"W100": {
		Category: CategoryConfig,
		Message:  "Config file not found",
		Detail:   "The configuration file could not be read.",
	},
	"W101": {
		Category: CategoryConfig,
		Message:  "Config file is not valid TOML",
	},
	"W102": {
		Category: CategoryConfig,
		Message:  "Invalid server address",
	},
	"W103": {
		Category: CategoryConfig,
		Message:  "Invalid backend URL",
	},
	"W104": {
		Category: CategoryConfig,
		Message:  "Invalid app mode",
	},
	"W105": {
		Category: CategoryConfig,
		Message:  "Invalid duration",
	},
	"W106": {
		Category: CategoryConfig,
		Message:  "Invalid log setting",
	},
	"W107": {
		Category: CategoryConfig,
		Message:  "Invalid archive setting",
	},
	"W108": {
		Category: CategoryConfig,
		Message:  "Invalid metrics setting",
	},
	"W109": {
		Category: CategoryConfig,
		Message:  "Invalid session setting",
	},

	// Backend (W120-W139)

	"W120": {
		Category: CategoryBackend,
		Message:  "Backend request failed",
	},
	"W121": {
		Category: CategoryBackend,
		Message:  "Backend rejected the credentials",
		Detail:   "The backend refused the request as unauthorised.",
	},
	"W122": {
		Category: CategoryBackend,
		Message:  "Backend client could not be created",
	},

	// Archive (W140-W159)

	"W140": {
		Category: CategoryArchive,
		Message:  "Snapshot export failed",
	},
	"W141": {
		Category: CategoryArchive,
		Message:  "Snapshot store unavailable",
	},
	"W142": {
		Category: CategoryArchive,
		Message:  "Snapshot not found",
	},

	// Command line (W160-W179)

	"W160": {
		Category: CategoryCLI,
		Message:  "Server failed",
	},
	"W161": {
		Category: CategoryCLI,
		Message:  "Missing argument",
	},
}

// GetAllCodes returns all registered error codes, sorted.
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
