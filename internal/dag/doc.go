// Package dag builds the execution graph from the loaded plan model. Jobs and
// resources become nodes; explicit depends_on entries and implicit expression
// references (job.<type>.<name>..., resource.<type>.<name>) become edges. The
// build validates that the result is acyclic before the executor runs it.
package dag
