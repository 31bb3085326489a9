// Package config loads and validates the bridge configuration.
//
// Configuration is layered: hardcoded defaults, then an optional YAML
// file, then VENTO_* environment variables, then command-line flags
// (applied by the caller). Validate is called once after all layers so
// a misconfigured bridge fails at startup with every problem listed,
// not one at a time.
package config
