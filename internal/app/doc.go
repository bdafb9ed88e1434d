// Package app wires the configuration loader, module registry, graph builder,
// and executor into one runnable application instance.
package app
