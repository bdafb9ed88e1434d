package dag

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/launchgridgo/internal/ctxlog"
	"github.com/vk/launchgridgo/internal/nodeid"
	"github.com/vk/launchgridgo/internal/registry"
)

// linkNodes performs the second pass, establishing dependency links.
func linkNodes(ctx context.Context, graph *Graph, r *registry.Registry) error {
	// Index job instances by their "<launcher_type>.<instance_name>" pair so a
	// single reference can fan out to every count instance.
	jobInstances := make(map[string][]*Node)
	for _, node := range graph.Nodes {
		if node.Type == JobNode {
			key := fmt.Sprintf("%s.%s", node.JobConfig.LauncherType, node.Name)
			jobInstances[key] = append(jobInstances[key], node)
		}
	}

	for _, node := range graph.Nodes {
		var dependsOn []string
		var expressions []hcl.Expression

		if node.Type == JobNode {
			dependsOn = node.JobConfig.DependsOn
			for _, expr := range node.JobConfig.Arguments {
				expressions = append(expressions, expr)
			}
			for _, expr := range node.JobConfig.Uses {
				expressions = append(expressions, expr)
			}
		} else { // ResourceNode
			dependsOn = node.ResourceConfig.DependsOn
			for _, expr := range node.ResourceConfig.Arguments {
				expressions = append(expressions, expr)
			}
		}

		if err := linkExplicitDeps(ctx, node, dependsOn, jobInstances, graph); err != nil {
			return err
		}
		for _, expr := range expressions {
			if err := linkImplicitDeps(ctx, node, expr, jobInstances, graph, r); err != nil {
				return err
			}
		}
	}
	return nil
}

// link records a single directed dependency edge, skipping duplicates and
// self-references (a count instance referring to its own job block).
func link(ctx context.Context, from, to *Node, kind string) {
	if from.ID == to.ID {
		return
	}
	if _, exists := from.Deps[to.ID]; exists {
		return
	}
	ctxlog.FromContext(ctx).Debug("Linking dependency.", "kind", kind, "from", from.ID, "to", to.ID)
	from.Deps[to.ID] = to
	to.Dependents[from.ID] = from
}

// linkExplicitDeps resolves dependencies from a `depends_on` list. Entries use
// the "<type>.<name>" form and may name either a job or a resource.
func linkExplicitDeps(ctx context.Context, node *Node, dependsOn []string, jobInstances map[string][]*Node, graph *Graph) error {
	for _, depAddr := range dependsOn {
		if _, err := nodeid.Parse(depAddr); err != nil {
			return fmt.Errorf("node '%s' has malformed depends_on entry '%s': %w", node.ID, depAddr, err)
		}
		if instances, found := jobInstances[depAddr]; found {
			for _, dep := range instances {
				link(ctx, node, dep, "explicit")
			}
			continue
		}
		if dep, found := graph.Nodes["resource."+depAddr]; found {
			link(ctx, node, dep, "explicit")
			continue
		}
		return fmt.Errorf("node '%s' depends on non-existent identifier '%s'", node.ID, depAddr)
	}
	return nil
}

// linkImplicitDeps parses an expression for variable traversals to create
// dependency links.
func linkImplicitDeps(ctx context.Context, node *Node, expr hcl.Expression, jobInstances map[string][]*Node, graph *Graph, r *registry.Registry) error {
	for _, traversal := range expr.Variables() {
		if len(traversal) < 3 {
			continue
		}
		rootName := traversal.RootName()
		if rootName != "job" && rootName != "resource" {
			continue
		}
		typeAttr, typeOk := traversal[1].(hcl.TraverseAttr)
		nameAttr, nameOk := traversal[2].(hcl.TraverseAttr)
		if !typeOk || !nameOk {
			continue
		}

		if rootName == "resource" {
			depID := fmt.Sprintf("resource.%s.%s", typeAttr.Name, nameAttr.Name)
			depNode, ok := graph.Nodes[depID]
			if !ok {
				// Could be a reference to something else entirely.
				continue
			}
			link(ctx, node, depNode, "implicit")
			continue
		}

		key := fmt.Sprintf("%s.%s", typeAttr.Name, nameAttr.Name)
		instances, ok := jobInstances[key]
		if !ok {
			continue
		}

		// If referencing an output, validate it exists in the manifest.
		if len(traversal) > 3 {
			if outputAttr, isOutput := traversal[3].(hcl.TraverseAttr); isOutput && outputAttr.Name == "output" {
				if err := validateOutputReference(traversal, instances[0], r); err != nil {
					return err
				}
			}
		}

		for _, dep := range instances {
			link(ctx, node, dep, "implicit")
		}
	}
	return nil
}

// validateOutputReference checks if a reference to a job's output is declared
// in the launcher's manifest.
func validateOutputReference(traversal hcl.Traversal, depNode *Node, r *registry.Registry) error {
	if depNode.Type != JobNode || len(traversal) < 5 {
		return nil // Not a job output reference we need to validate.
	}

	outputNameAttr, ok := traversal[4].(hcl.TraverseAttr)
	if !ok {
		return nil // Malformed traversal.
	}
	outputName := outputNameAttr.Name

	launcherDef, ok := r.DefinitionRegistry[depNode.JobConfig.LauncherType]
	if !ok {
		return fmt.Errorf("internal error: could not find definition for launcher type %s", depNode.JobConfig.LauncherType)
	}

	if _, ok := launcherDef.Outputs[outputName]; ok {
		return nil // Found a valid declaration.
	}

	return fmt.Errorf("reference to undeclared output %q on job %q", outputName, depNode.ID)
}
