package executor

import (
	"context"

	"github.com/vk/launchgridgo/internal/ctxlog"
	"github.com/vk/launchgridgo/internal/dag"
)

// worker is the core processing loop for a single concurrent worker.
func (e *Executor) worker(ctx context.Context, readyChan chan *dag.Node, cancel context.CancelFunc, workerID int) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker started.", "workerID", workerID)

	for n := range readyChan {
		workerLogger := logger.With("workerID", workerID, "nodeID", n.ID)

		if ctx.Err() != nil {
			// A node drained after cancellation must still release its
			// dependents, or their WaitGroup slots leak and Run never returns.
			if n.Skip(ctx.Err(), &e.wg) {
				e.skipDependents(ctx, n)
			}
			continue
		}

		workerLogger.Debug("Worker picked up node for execution.")
		n.SetState(dag.Running)
		var err error

		switch n.Type {
		case dag.ResourceNode:
			err = e.runResourceNode(ctx, n)
		case dag.JobNode:
			err = e.runJobNode(ctx, n)
		}

		if err != nil {
			workerLogger.Error("Node execution failed.", "error", err)
			n.SetState(dag.Failed)
			n.Error = err
			cancel()
			e.skipDependents(ctx, n)
			e.wg.Done()
			continue
		}

		workerLogger.Debug("Node execution succeeded.")
		n.SetState(dag.Done)

		// Unlock dependents whose last dependency just completed.
		for _, dependent := range n.Dependents {
			if dependent.DecrementDepCount() == 0 {
				workerLogger.Debug("Unlocking dependent node.", "dependentID", dependent.ID)
				readyChan <- dependent
			}
		}

		// A finished job may have been the last consumer of a resource.
		if n.Type == dag.JobNode {
			for _, dep := range n.Deps {
				if dep.Type == dag.ResourceNode {
					if dep.DecrementDescendantCount() == 0 {
						workerLogger.Debug("Scheduling efficient destruction for resource.", "resourceID", dep.ID)
						go e.destroyResource(ctx, dep)
					}
				}
			}
		}

		e.wg.Done()
	}
	logger.Debug("Worker finished.", "workerID", workerID)
}
