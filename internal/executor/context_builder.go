package executor

import (
	"context"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/launchgridgo/internal/ctxlog"
	"github.com/vk/launchgridgo/internal/dag"
	"github.com/zclconf/go-cty/cty"
)

// instanceOutput holds one instance's output together with its index so
// instances can be ordered before entering the evaluation context.
type instanceOutput struct {
	index int
	value cty.Value
}

// buildEvalContext creates the HCL evaluation context for a node.
func (e *Executor) buildEvalContext(ctx context.Context, node *dag.Node) *hcl.EvalContext {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Building HCL evaluation context.", "node", node.ID)
	vars := make(map[string]cty.Value)

	// map[launcher_type] -> map[instance_name] -> []instanceOutput
	jobOutputsByLauncher := make(map[string]map[string][]instanceOutput)

	// Collect outputs from all successfully completed job instances in the
	// graph. This gives the HCL engine a consistent, global view of the state.
	for _, graphNode := range e.Graph.Nodes {
		if graphNode.Type != dag.JobNode || graphNode.GetState() != dag.Done || graphNode.Output == nil {
			continue
		}

		launcherType := graphNode.JobConfig.LauncherType
		instanceName := graphNode.JobConfig.Name

		outputVal, ok := graphNode.Output.(cty.Value)
		if !ok {
			logger.Warn("Completed job output is not a cty.Value, skipping for HCL context.", "graph_node_id", graphNode.ID)
			continue
		}

		if _, ok := jobOutputsByLauncher[launcherType]; !ok {
			jobOutputsByLauncher[launcherType] = make(map[string][]instanceOutput)
		}

		wrapped := cty.ObjectVal(map[string]cty.Value{
			"output": outputVal,
		})
		jobOutputsByLauncher[launcherType][instanceName] = append(
			jobOutputsByLauncher[launcherType][instanceName],
			instanceOutput{index: graphNode.Index(), value: wrapped},
		)
	}

	finalJobOutputs := make(map[string]cty.Value)
	for launcherType, instancesMap := range jobOutputsByLauncher {
		instanceVals := make(map[string]cty.Value)
		for name, outputs := range instancesMap {
			sort.Slice(outputs, func(i, j int) bool { return outputs[i].index < outputs[j].index })

			// A single instance is addressable directly; multiple count
			// instances surface as a tuple indexed by instance number.
			if len(outputs) == 1 {
				instanceVals[name] = outputs[0].value
				continue
			}
			vals := make([]cty.Value, 0, len(outputs))
			for _, out := range outputs {
				vals = append(vals, out.value)
			}
			instanceVals[name] = cty.TupleVal(vals)
		}
		finalJobOutputs[launcherType] = cty.ObjectVal(instanceVals)
	}

	vars["job"] = cty.ObjectVal(finalJobOutputs)

	// Expose the current instance's index for count-expanded jobs.
	if node.Type == dag.JobNode {
		vars["count"] = cty.ObjectVal(map[string]cty.Value{
			"index": cty.NumberIntVal(int64(node.Index())),
		})
	}

	logger.Debug("Finished building HCL evaluation context.", "node", node.ID, "vars_count", len(vars))
	return &hcl.EvalContext{Variables: vars}
}
