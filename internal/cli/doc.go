// Package cli parses command-line arguments into an application configuration.
package cli
