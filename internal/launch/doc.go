// Package launch owns the mechanics of starting a distributed training run:
// building the exact command line forwarded to the external training entry
// point, picking a rendezvous port, and spawning and supervising the worker
// process group with per-rank environment and log streaming.
//
// Two modes exist. Delegate mode hands the whole process group to an external
// distributed launcher module (one blocking child process). Direct mode makes
// this process the launcher: one child per local rank, coordinated through the
// conventional RANK/LOCAL_RANK/WORLD_SIZE/MASTER_ADDR/MASTER_PORT variables.
package launch
