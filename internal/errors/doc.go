// Package errors provides structured, actionable errors for the writdesk
// command line and configuration.
//
// An Error carries a code from the registry, a category, a one-line message
// and optionally a longer detail, a hint and the file location it concerns.
// Configuration errors point at the offending line of the config file and
// show the lines around it.
//
// # Error Codes
//
// Codes are grouped by range:
//   - W100-W119: configuration
//   - W120-W139: backend
//   - W140-W159: archive
//   - W160-W179: command line
//
// # Usage
//
//	err := errors.New("W103").
//	    WithDetail("backend.url is \"ftp://api\"").
//	    WithSuggestion("Use an http:// or https:// URL")
//
//	errors.PrintError(err)
//	// ERROR W103: Invalid backend URL
//	//
//	//   backend.url is "ftp://api"
//	//
//	//   Hint: Use an http:// or https:// URL
package errors
