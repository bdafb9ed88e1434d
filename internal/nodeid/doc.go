// Package nodeid defines the structured, machine-readable addresses that
// identify nodes in the execution graph, such as `job.train.yolof_coco[0]`
// or `resource.http_client.shared`, along with their canonical string
// serialization and parser.
package nodeid
