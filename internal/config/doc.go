// Package config handles loading and validating application configuration
// from environment variables and config files.
package config
