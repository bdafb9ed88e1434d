// Package hcl implements the config.Loader and config.Converter interfaces
// for HCL-formatted plan files and module manifests. It discovers .hcl files,
// decodes them against the schemas in internal/schema, and translates the
// result into the format-agnostic model in internal/config.
package hcl
