package train

import (
	"context"
	"reflect"
	"time"

	"github.com/vk/launchgridgo/internal/ctxlog"
	"github.com/vk/launchgridgo/internal/launch"
	"github.com/vk/launchgridgo/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the 'train' launcher.
type Input struct {
	Script         string   `lggo:"script"`
	Python         string   `lggo:"python"`
	LauncherModule string   `lggo:"launcher_module"`
	NprocPerNode   int      `lggo:"nproc_per_node"`
	MasterAddr     string   `lggo:"master_addr"`
	MasterPort     int      `lggo:"master_port"`
	CudaDevices    string   `lggo:"cuda_devices"`
	Cuda           bool     `lggo:"cuda"`
	Dist           bool     `lggo:"dist"`
	Dataset        string   `lggo:"dataset"`
	Root           string   `lggo:"root"`
	Model          string   `lggo:"model"`
	BatchSize      int      `lggo:"batch_size"`
	EvalEpoch      int      `lggo:"eval_epoch"`
	ExtraArgs      []string `lggo:"extra_args"`
	GracePeriod    string   `lggo:"grace_period"`
}

// Output defines the data structure returned by the launcher.
type Output struct {
	Command    string `cty:"command"`
	ExitCode   int    `cty:"exit_code"`
	WorldSize  int    `cty:"world_size"`
	MasterPort int    `cty:"master_port"`
	DurationMs int64  `cty:"duration_ms"`
}

// Deps is an empty struct because this launcher does not use any resources.
type Deps struct{}

// invocationFromInput maps decoded arguments onto the launch invocation.
func invocationFromInput(input *Input) launch.Invocation {
	return launch.Invocation{
		Python:         input.Python,
		LauncherModule: input.LauncherModule,
		Script:         input.Script,
		NumProcs:       input.NprocPerNode,
		MasterAddr:     input.MasterAddr,
		MasterPort:     input.MasterPort,
		CUDADevices:    input.CudaDevices,
		Cuda:           input.Cuda,
		Distributed:    input.Dist,
		Dataset:        input.Dataset,
		Root:           input.Root,
		Model:          input.Model,
		BatchSize:      input.BatchSize,
		EvalEpoch:      input.EvalEpoch,
		Extra:          input.ExtraArgs,
	}
}

// OnLaunchTrain is the handler for the 'train' launcher's on_launch lifecycle
// event. It renders the invocation as a single command line, then spawns and
// supervises the training process group.
func OnLaunchTrain(ctx context.Context, deps *Deps, input *Input) (*Output, error) {
	logger := ctxlog.FromContext(ctx).With("launcher", "train", "script", input.Script)
	logger.Debug("Handler started")
	defer logger.Debug("Handler finished")

	inv := invocationFromInput(input)
	if err := inv.Validate(); err != nil {
		return nil, err
	}

	grace := time.Duration(0)
	if input.GracePeriod != "" {
		parsed, err := time.ParseDuration(input.GracePeriod)
		if err != nil {
			logger.Warn("Failed to parse grace_period, using default", "grace_period", input.GracePeriod, "error", err)
		} else {
			grace = parsed
		}
	}

	command := inv.String()
	logger.Info("🚀 Launching training run", "command", command, "world_size", inv.NumProcs)

	if launch.DryRunFromContext(ctx) {
		logger.Info("🧪 Dry run requested, skipping process launch")
		return &Output{
			Command:    command,
			ExitCode:   0,
			WorldSize:  inv.NumProcs,
			MasterPort: inv.MasterPort,
		}, nil
	}

	group := &launch.Group{Invocation: inv, GracePeriod: grace}
	result, err := group.Run(ctx)
	if err != nil {
		return nil, err
	}

	logger.Info("🏁 Training run finished", "exit_code", result.ExitCode, "duration", result.Duration)
	return &Output{
		Command:    result.Command,
		ExitCode:   result.ExitCode,
		WorldSize:  result.WorldSize,
		MasterPort: result.MasterPort,
		DurationMs: result.Duration.Milliseconds(),
	}, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterLauncher("OnLaunchTrain", &registry.RegisteredLauncher{
		NewInput:  func() any { return new(Input) },
		InputType: reflect.TypeOf(Input{}),
		NewDeps:   func() any { return new(Deps) },
		Fn:        OnLaunchTrain,
	})
}
