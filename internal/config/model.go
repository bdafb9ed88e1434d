package config

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// Model is the unified, format-agnostic representation of the entire
// application configuration, including all module manifests and the launch plan.
type Model struct {
	Launchers map[string]*LauncherDefinition
	Assets    map[string]*AssetDefinition
	Plan      *Plan
}

// Plan represents the user's job graph definition.
type Plan struct {
	Jobs      []*Job
	Resources []*Resource
}

// Job is the format-agnostic representation of a `job` block.
type Job struct {
	LauncherType string
	Name         string
	Count        int
	Arguments    map[string]hcl.Expression
	Uses         map[string]hcl.Expression
	DependsOn    []string
}

// Resource is the format-agnostic representation of a `resource` block.
type Resource struct {
	AssetType string
	Name      string
	Arguments map[string]hcl.Expression
	DependsOn []string
}

// --- Module Manifest Models ---

// LauncherDefinition is the format-agnostic representation of a launcher's manifest.
type LauncherDefinition struct {
	Type        string
	Description string
	Lifecycle   *Lifecycle
	Inputs      map[string]*InputDefinition
	Outputs     map[string]*OutputDefinition
	Uses        map[string]*UsesDefinition
}

// AssetDefinition is the format-agnostic representation of an asset's manifest.
type AssetDefinition struct {
	Type        string
	Description string
	Lifecycle   *AssetLifecycle
	Inputs      map[string]*InputDefinition
	Outputs     map[string]*OutputDefinition
}

// Lifecycle maps a launcher's events to Go handler names.
type Lifecycle struct {
	OnLaunch string
}

// AssetLifecycle maps an asset's events to Go handler names.
type AssetLifecycle struct {
	Create  string
	Destroy string
}

// InputDefinition defines a single input argument for a launcher or asset.
type InputDefinition struct {
	Name        string
	Type        cty.Type
	Description string
	Default     *cty.Value
	Optional    bool
}

// OutputDefinition defines a single output value from a launcher.
type OutputDefinition struct {
	Name        string
	Type        cty.Type
	Description string
}

// UsesDefinition defines an asset dependency for a launcher.
type UsesDefinition struct {
	LocalName string
	AssetType string
}
