// Package config loads writdesk configuration.
//
// Configuration is a TOML file with one table per concern. Values may
// reference the environment as ${VAR}; references are expanded before the
// file is parsed, so secrets such as archive credentials need not be
// written down. Keys missing from the file keep the defaults of New.
//
//	[server]
//	port = 8080
//
//	[backend]
//	url = "https://api.example.com"
//	timeout = "10s"
//
//	[app]
//	mode = "admin"
//
//	[archive]
//	driver = "s3"
//	bucket = "writ-snapshots"
//	access_key_id = "${AWS_ACCESS_KEY_ID}"
//	secret_access_key = "${AWS_SECRET_ACCESS_KEY}"
//
// Load and Validate return *errors.Error values with W1xx codes; parse
// errors carry the line of the config file they refer to.
package config
