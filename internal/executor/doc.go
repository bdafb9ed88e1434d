// Package executor runs a built graph with a bounded worker pool. Ready nodes
// are dispatched to workers; a node failure cancels the run and skips all
// transitive dependents. Resources are created on demand, shared by reference,
// and destroyed exactly once, either as soon as their last job dependent
// finishes or from the LIFO cleanup stack at the end of the run.
package executor
