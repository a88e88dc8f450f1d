// Package config loads and validates the YAML description of a
// coordinator: its handler list, the error bridge, and the optional
// metrics endpoint. Handler options are passed through opaquely so new
// handler types need no config changes here.
package config
