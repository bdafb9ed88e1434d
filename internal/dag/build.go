package dag

import (
	"context"
	"fmt"

	"github.com/vk/launchgridgo/internal/config"
	"github.com/vk/launchgridgo/internal/ctxlog"
	"github.com/vk/launchgridgo/internal/nodeid"
	"github.com/vk/launchgridgo/internal/registry"
)

// Graph is the fully linked execution graph built from a plan model.
type Graph struct {
	Nodes map[string]*Node
}

// Build constructs a complete, validated dependency graph from a config model.
func Build(ctx context.Context, model *config.Model, r *registry.Registry) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build: Starting graph construction.")
	graph := &Graph{Nodes: make(map[string]*Node)}

	// First pass: create all nodes for job instances and resources.
	createNodes(ctx, model.Plan, graph)
	logger.Debug("Build: Node creation complete.", "node_count", len(graph.Nodes))

	// Second pass: link dependencies.
	if err := linkNodes(ctx, graph, r); err != nil {
		return nil, err
	}
	logger.Debug("Build: Node linking complete.")

	// Third pass: initialize counters.
	for _, node := range graph.Nodes {
		node.SetInitialCounters()
	}
	logger.Debug("Build: Counter initialization complete.")

	if err := graph.detectCycles(); err != nil {
		return nil, fmt.Errorf("error validating dependency graph: %w", err)
	}
	logger.Debug("Build: Cycle detection passed.")

	logger.Debug("Build: Graph construction successful.")
	return graph, nil
}

// createNodes performs the first pass of graph creation, expanding each job's
// count into individually addressed instances.
func createNodes(ctx context.Context, plan *config.Plan, graph *Graph) {
	logger := ctxlog.FromContext(ctx)
	for _, j := range plan.Jobs {
		for i := 0; i < j.Count; i++ {
			addr := nodeid.ForJob(j.LauncherType, j.Name, i)
			id := addr.String()
			if _, exists := graph.Nodes[id]; exists {
				logger.Warn("Duplicate job definition found, it will be overwritten.", "id", id)
			}
			graph.Nodes[id] = &Node{
				ID:         id,
				Addr:       addr,
				Name:       j.Name,
				Type:       JobNode,
				JobConfig:  j,
				Deps:       make(map[string]*Node),
				Dependents: make(map[string]*Node),
			}
		}
	}
	for _, r := range plan.Resources {
		addr := nodeid.ForResource(r.AssetType, r.Name)
		id := addr.String()
		if _, exists := graph.Nodes[id]; exists {
			logger.Warn("Duplicate resource definition found, it will be overwritten.", "id", id)
		}
		graph.Nodes[id] = &Node{
			ID:             id,
			Addr:           addr,
			Name:           r.Name,
			Type:           ResourceNode,
			ResourceConfig: r,
			Deps:           make(map[string]*Node),
			Dependents:     make(map[string]*Node),
		}
	}
}

// detectCycles checks the graph for any cycles using a classic depth-first
// search with permanent/temporary marker sets.
func (g *Graph) detectCycles() error {
	permanent := make(map[string]bool)
	temporary := make(map[string]bool)

	var visit func(n *Node) error
	visit = func(n *Node) error {
		if permanent[n.ID] {
			return nil // Already visited and known to be safe.
		}
		if temporary[n.ID] {
			// A node already on the recursion stack means a cycle.
			return fmt.Errorf("cycle detected involving node '%s'", n.ID)
		}

		temporary[n.ID] = true

		for _, dependent := range n.Dependents {
			if err := visit(dependent); err != nil {
				return err
			}
		}

		delete(temporary, n.ID)
		permanent[n.ID] = true

		return nil
	}

	for _, n := range g.Nodes {
		if !permanent[n.ID] {
			if err := visit(n); err != nil {
				return err
			}
		}
	}

	return nil
}
