// Package schema holds the HCL block schemas for plan files and module
// manifests. These structs exist purely for gohcl decoding; the loader
// translates them into the format-agnostic config model.
package schema

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// --- Primary Plan Structures ---

// JobArgs represents the content of the 'arguments' block within a job.
type JobArgs struct {
	Body hcl.Body `hcl:",remain"`
}

// UsesBlock represents the content of the 'uses' block within a job.
type UsesBlock struct {
	Body hcl.Body `hcl:",remain"`
}

// Job represents a `job` block from a user's plan file. It is a runnable
// instance of a defined launcher.
type Job struct {
	LauncherType string     `hcl:"launcher_type,label"`
	Name         string     `hcl:"instance_name,label"`
	Count        *int       `hcl:"count,optional"`
	Arguments    *JobArgs   `hcl:"arguments,block"`
	Uses         *UsesBlock `hcl:"uses,block"`
	DependsOn    []string   `hcl:"depends_on,optional"`
}

// Resource represents a `resource` block from a user's plan file. It is a
// managed, stateful instance of a defined asset.
type Resource struct {
	AssetType string   `hcl:"asset_type,label"`
	Name      string   `hcl:"instance_name,label"`
	Arguments *JobArgs `hcl:"arguments,block"`
	DependsOn []string `hcl:"depends_on,optional"`
}

// PlanConfig represents the top-level structure of a user's plan file,
// containing all defined jobs and resources.
type PlanConfig struct {
	Jobs      []*Job      `hcl:"job,block"`
	Resources []*Resource `hcl:"resource,block"`
	Body      hcl.Body    `hcl:",remain"`
}

// --- Module Manifest Schemas ---

// Lifecycle defines the mapping from a launcher's lifecycle event to a
// registered Go handler function.
type Lifecycle struct {
	OnLaunch string `hcl:"on_launch,optional"`
}

// AssetLifecycle defines the mapping from a resource's lifecycle events
// (create, destroy) to registered Go handler functions.
type AssetLifecycle struct {
	Create  string `hcl:"create"`
	Destroy string `hcl:"destroy"`
}

// InputDefinition defines a single input variable for a launcher or asset.
type InputDefinition struct {
	Name        string         `hcl:"name,label"`
	Type        hcl.Expression `hcl:"type"`
	Description string         `hcl:"description,optional"`
	Default     *cty.Value     `hcl:"default,optional"`
}

// OutputDefinition defines a single output value produced by a launcher or asset.
type OutputDefinition struct {
	Name        string         `hcl:"name,label"`
	Type        hcl.Expression `hcl:"type"`
	Description string         `hcl:"description,optional"`
}

// UsesDefinition defines an asset dependency required by a launcher.
type UsesDefinition struct {
	LocalName string `hcl:"local_name,label"`
	AssetType string `hcl:"asset_type"`
}

// LauncherDefinition represents the HCL manifest for a runnable `launcher` type.
type LauncherDefinition struct {
	Type        string              `hcl:"type,label"`
	Description string              `hcl:"description,optional"`
	Lifecycle   *Lifecycle          `hcl:"lifecycle,block"`
	Inputs      []*InputDefinition  `hcl:"input,block"`
	Outputs     []*OutputDefinition `hcl:"output,block"`
	Uses        []*UsesDefinition   `hcl:"uses,block"`
}

// AssetDefinition represents the HCL manifest for a stateful `asset` type.
type AssetDefinition struct {
	Type        string              `hcl:"type,label"`
	Description string              `hcl:"description,optional"`
	Lifecycle   *AssetLifecycle     `hcl:"lifecycle,block"`
	Inputs      []*InputDefinition  `hcl:"input,block"`
	Outputs     []*OutputDefinition `hcl:"output,block"`
}
