// Package config loads and validates headunitd YAML configuration.
//
// Loading is a three-stage pipeline: Load reads the file and expands
// ${VAR} environment references, applyDefaults fills optional fields, and
// Validate rejects configurations the daemon cannot run with.
package config
