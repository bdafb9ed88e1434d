package env_vars

import (
	"context"
	"os"
	"reflect"
	"strings"

	"github.com/vk/launchgridgo/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the 'env_vars' launcher.
type Input struct {
	Prefix string `lggo:"prefix"`
}

// Deps is an empty struct because this launcher does not use any resources.
type Deps struct{}

// Output defines the data structure returned by the launcher.
type Output struct {
	All map[string]string `cty:"all"`
}

// OnLaunchEnvVars is the handler for the 'env_vars' launcher. It snapshots
// the process environment, optionally filtered by a key prefix, so plans can
// feed values like dataset roots into downstream jobs.
func OnLaunchEnvVars(ctx context.Context, deps *Deps, input *Input) (*Output, error) {
	envMap := make(map[string]string)
	for _, e := range os.Environ() {
		pair := strings.SplitN(e, "=", 2)
		if len(pair) != 2 {
			continue
		}
		if input.Prefix != "" && !strings.HasPrefix(pair[0], input.Prefix) {
			continue
		}
		envMap[pair[0]] = pair[1]
	}

	return &Output{All: envMap}, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterLauncher("OnLaunchEnvVars", &registry.RegisteredLauncher{
		NewInput:  func() any { return new(Input) },
		InputType: reflect.TypeOf(Input{}),
		NewDeps:   func() any { return new(Deps) },
		Fn:        OnLaunchEnvVars,
	})
}
