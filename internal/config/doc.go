// Package config defines the format-agnostic configuration model for the
// application. Plan files and module manifests, whatever their on-disk
// format, are translated into these structures before the graph is built.
// The Loader and Converter interfaces decouple the engine from the concrete
// configuration language.
package config
