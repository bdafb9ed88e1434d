package dag

import (
	"sync"
	"sync/atomic"

	"github.com/vk/launchgridgo/internal/config"
	"github.com/vk/launchgridgo/internal/nodeid"
)

// NodeType distinguishes between different kinds of nodes in the graph.
type NodeType int

const (
	// JobNode represents a node that executes a launcher.
	JobNode NodeType = iota
	// ResourceNode represents a node that manages a stateful asset.
	ResourceNode
)

// State represents the execution state of a node in the graph.
type State int32

const (
	// Pending indicates the node is waiting for its dependencies to complete.
	Pending State = iota
	// Running indicates the node is currently being executed by a worker.
	Running
	// Done indicates the node has completed execution successfully.
	Done
	// Failed indicates the node has failed execution or was skipped.
	Failed
)

// Node is a single vertex in the execution graph, representing one unit of
// work (launching a job instance) or a stateful entity (a shared resource).
type Node struct {
	// ID is the canonical string form of the node's address.
	ID string
	// Addr is the structured address, carrying the instance index for jobs.
	Addr *nodeid.Address
	// Name is the human-readable instance name from the plan.
	Name string
	// Type distinguishes job nodes from resource nodes.
	Type NodeType

	// JobConfig holds the configuration for a job node. It is nil for resources.
	JobConfig *config.Job
	// ResourceConfig holds the configuration for a resource node. It is nil for jobs.
	ResourceConfig *config.Resource

	// Deps holds the set of nodes this node depends on (predecessors).
	Deps map[string]*Node
	// Dependents holds the set of nodes that depend on this node (successors).
	Dependents map[string]*Node

	// Error stores any error that occurred during the node's execution.
	Error error
	// Output stores the result of the node's execution for downstream nodes.
	Output any

	// depCount is an atomic counter for unmet dependencies.
	depCount atomic.Int32
	// descendantCount counts a resource's job dependents, used for efficient
	// destruction once the last consumer finishes.
	descendantCount atomic.Int32
	// state is the node's current execution state, managed atomically.
	state atomic.Int32
	// destroyOnce ensures a node's cleanup logic runs exactly once.
	destroyOnce sync.Once
	// skipOnce ensures a node is marked as skipped and processed exactly once.
	skipOnce sync.Once
}

// Index returns the job instance index, or -1 for resource nodes.
func (n *Node) Index() int {
	if n.Addr == nil || len(n.Addr.Path) == 0 {
		return -1
	}
	return n.Addr.Path[len(n.Addr.Path)-1].Index
}

// SetInitialCounters primes the dependency and descendant counters after linking.
func (n *Node) SetInitialCounters() {
	n.depCount.Store(int32(len(n.Deps)))
	if n.Type == ResourceNode {
		var jobs int32
		for _, dep := range n.Dependents {
			if dep.Type == JobNode {
				jobs++
			}
		}
		n.descendantCount.Store(jobs)
	}
}

// DepCount atomically returns the current number of unmet dependencies.
func (n *Node) DepCount() int32 {
	return n.depCount.Load()
}

// DecrementDepCount atomically decrements the dependency counter and returns the new value.
func (n *Node) DecrementDepCount() int32 {
	return n.depCount.Add(-1)
}

// DecrementDescendantCount atomically decrements the resource descendant counter.
func (n *Node) DecrementDescendantCount() int32 {
	return n.descendantCount.Add(-1)
}

// SetState atomically sets the node's execution state.
func (n *Node) SetState(s State) {
	n.state.Store(int32(s))
}

// GetState atomically retrieves the node's execution state.
func (n *Node) GetState() State {
	return State(n.state.Load())
}

// Skip marks the node as failed with the given reason and releases its slot in
// the WaitGroup, exactly once. It reports whether this call performed the skip.
func (n *Node) Skip(err error, wg *sync.WaitGroup) bool {
	skipped := false
	n.skipOnce.Do(func() {
		n.SetState(Failed)
		n.Error = err
		wg.Done()
		skipped = true
	})
	return skipped
}

// Destroy executes the given cleanup function exactly once, making it safe to
// call from both the efficient-destruction path and the final cleanup stack.
func (n *Node) Destroy(f func()) {
	n.destroyOnce.Do(f)
}
