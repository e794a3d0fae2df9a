// Package config handles loading and validation of the site configuration
// from an optional YAML file, environment variables and command line flags.
// It covers the listen address, the static root, the submission store
// location and the optional metrics listener.
package config
