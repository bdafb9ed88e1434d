package executor

import (
	"context"
	"fmt"
	"reflect"

	"github.com/vk/launchgridgo/internal/ctxlog"
	"github.com/vk/launchgridgo/internal/dag"
)

// runJobNode handles the execution of a single job instance.
func (e *Executor) runJobNode(ctx context.Context, node *dag.Node) error {
	logger := ctxlog.FromContext(ctx).With("job", node.ID)
	logger.Info("▶️ Starting job instance")

	evalCtx := e.buildEvalContext(ctx, node)

	launcherDef, ok := e.registry.DefinitionRegistry[node.JobConfig.LauncherType]
	if !ok {
		return fmt.Errorf("unknown launcher type '%s'", node.JobConfig.LauncherType)
	}
	if launcherDef.Lifecycle == nil || launcherDef.Lifecycle.OnLaunch == "" {
		return fmt.Errorf("launcher '%s' declares no on_launch handler", node.JobConfig.LauncherType)
	}
	handlerName := launcherDef.Lifecycle.OnLaunch
	registeredHandler, ok := e.registry.HandlerRegistry[handlerName]
	if !ok {
		return fmt.Errorf("handler '%s' not registered", handlerName)
	}

	inputStruct := registeredHandler.NewInput()
	if inputStruct != nil {
		err := e.converter.DecodeBody(ctx, inputStruct, node.JobConfig.Arguments, launcherDef.Inputs, evalCtx)
		if err != nil {
			return fmt.Errorf("failed to decode arguments for job instance %s: %w", node.ID, err)
		}
	}
	logger.Debug("Job instance input:", "data", formatValueForLogs(inputStruct))

	depsStruct, err := e.buildDepsStruct(ctx, node, registeredHandler)
	if err != nil {
		return err
	}

	logger.Debug("Calling launch handler.", "handler", handlerName)
	handlerFunc := reflect.ValueOf(registeredHandler.Fn)
	callArgs := []reflect.Value{reflect.ValueOf(ctx), reflect.ValueOf(depsStruct)}

	if inputStruct == nil {
		inputType := handlerFunc.Type().In(2)
		callArgs = append(callArgs, reflect.Zero(inputType))
	} else {
		callArgs = append(callArgs, reflect.ValueOf(inputStruct))
	}

	results := handlerFunc.Call(callArgs)
	nativeOutput, errResult := results[0].Interface(), results[1].Interface()
	if errResult != nil {
		return errResult.(error)
	}

	ctyOutput, err := e.converter.ToCtyValue(nativeOutput)
	if err != nil {
		return fmt.Errorf("failed to convert handler output to cty.Value for job instance %s: %w", node.ID, err)
	}
	node.Output = ctyOutput

	logger.Info("✅ Finished job instance")
	return nil
}
