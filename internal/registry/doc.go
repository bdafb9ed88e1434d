// Package registry pairs the HCL module manifests with their compiled Go
// handlers. Every launcher and asset type has a manifest (inputs, outputs,
// lifecycle handler names) and a registered Go implementation; the registry
// validates at startup that the two sides agree on input names and types.
package registry
