package app

import (
	"context"
	"fmt"
	"reflect"

	"github.com/vk/launchgridgo/internal/ctxlog"
	"github.com/vk/launchgridgo/internal/dag"
	"github.com/vk/launchgridgo/internal/executor"
	"github.com/vk/launchgridgo/internal/launch"
)

// Run executes the main application logic based on the provided configuration.
func (a *App) Run(ctx context.Context, appConfig *AppConfig) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	if appConfig.DryRun {
		ctx = launch.WithDryRun(ctx, true)
	}
	a.logger.Debug("App.Run method started.")

	if appConfig.HealthcheckPort > 0 {
		a.startHealthcheckServer(ctx, appConfig.HealthcheckPort)
		defer a.closeHealthcheckServer(ctx)
	}

	a.logger.Debug("Building dependency graph from config model...")
	// Pass the pre-loaded, format-agnostic config model to the DAG builder.
	graph, err := dag.Build(ctx, a.config, a.registry)
	if err != nil {
		return fmt.Errorf("failed to build dependency graph: %w", err)
	}
	a.logger.Debug("Dependency graph built.", "node_count", len(graph.Nodes))

	a.logger.Info("Launch handlers registered:", "count", len(a.registry.HandlerRegistry), "keys", reflect.ValueOf(a.registry.HandlerRegistry).MapKeys())
	a.logger.Info("Asset handlers registered:", "count", len(a.registry.AssetHandlerRegistry), "keys", reflect.ValueOf(a.registry.AssetHandlerRegistry).MapKeys())

	if len(graph.Nodes) > 0 {
		if appConfig.DryRun {
			a.logger.Info("🧪 Dry run: invocation lines will be rendered without spawning processes.")
		}
		a.logger.Debug("Executor starting run.")
		a.logger.Info("🚀 Starting concurrent execution...")
		exec := executor.New(graph, appConfig.WorkerCount, a.registry, a.converter)
		if err := exec.Run(ctx); err != nil {
			return fmt.Errorf("execution failed: %w", err)
		}
		a.logger.Info("🏁 Execution finished.")
	} else {
		a.logger.Warn("No nodes found in graph, execution not required.")
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}
