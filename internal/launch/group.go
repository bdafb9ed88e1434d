package launch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/vk/launchgridgo/internal/ctxlog"
)

// defaultGracePeriod is how long workers get between SIGTERM and SIGKILL.
const defaultGracePeriod = 10 * time.Second

// Group supervises the worker processes of one training run.
type Group struct {
	Invocation  Invocation
	GracePeriod time.Duration
}

// Result summarizes a finished run.
type Result struct {
	// Command is the single shell-quoted invocation line that was executed.
	Command string
	// ExitCode is zero on success, otherwise the code of the first failing
	// process.
	ExitCode int
	// WorldSize is the number of worker processes in the group.
	WorldSize int
	// MasterPort is the rendezvous port actually used, after defaulting.
	MasterPort int
	// Duration covers process start through last exit.
	Duration time.Duration
}

// workerExit reports one process leaving the group.
type workerExit struct {
	rank     int
	exitCode int
	err      error
}

// Run executes the invocation and blocks until every process in the group has
// exited. The first failing process cancels the rest: they receive SIGTERM,
// then SIGKILL after the grace period. Cancelling ctx tears the group down
// the same way.
func (g *Group) Run(ctx context.Context) (*Result, error) {
	logger := ctxlog.FromContext(ctx)
	inv := g.Invocation

	if err := inv.Validate(); err != nil {
		return nil, err
	}
	if inv.MasterPort == 0 {
		port, err := FreePort()
		if err != nil {
			return nil, err
		}
		inv.MasterPort = port
		logger.Debug("Selected free rendezvous port.", "master_port", port)
	}

	grace := g.GracePeriod
	if grace <= 0 {
		grace = defaultGracePeriod
	}

	// Delegate mode runs a single child that owns rank assignment. Direct
	// mode runs one child per local rank.
	ranks := []int{-1}
	if !inv.Delegated() {
		ranks = make([]int, inv.NumProcs)
		for i := range ranks {
			ranks[i] = i
		}
	}

	groupCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	argv := inv.Argv()
	baseEnv := os.Environ()
	start := time.Now()
	exits := make(chan workerExit, len(ranks))

	var started int
	var startErr error
	for _, rank := range ranks {
		cmd, streamWG, err := g.startWorker(groupCtx, logger, argv, inv.workerEnv(baseEnv, rank), rank, grace)
		if err != nil {
			cancel()
			startErr = fmt.Errorf("failed to start worker process: %w", err)
			logger.Error("Launch aborted.", "rank", rank, "error", startErr)
			break
		}
		started++

		go func(rank int, cmd *exec.Cmd, streamWG *sync.WaitGroup) {
			streamWG.Wait()
			waitErr := cmd.Wait()
			exits <- workerExit{rank: rank, exitCode: cmd.ProcessState.ExitCode(), err: waitErr}
		}(rank, cmd, streamWG)
	}

	var firstFailure *workerExit
	for i := 0; i < started; i++ {
		exit := <-exits
		if exit.err == nil {
			logger.Debug("Worker process exited cleanly.", "rank", exit.rank)
			continue
		}
		logger.Error("Worker process failed.", "rank", exit.rank, "exit_code", exit.exitCode, "error", exit.err)
		if firstFailure == nil {
			failure := exit
			firstFailure = &failure
			cancel()
		}
	}

	result := &Result{
		Command:    inv.String(),
		WorldSize:  inv.NumProcs,
		MasterPort: inv.MasterPort,
		Duration:   time.Since(start),
	}

	if startErr != nil {
		return nil, fmt.Errorf("process group startup failed after %d of %d workers: %w", started, len(ranks), startErr)
	}
	if firstFailure != nil {
		result.ExitCode = firstFailure.exitCode
		if ctx.Err() != nil {
			return result, fmt.Errorf("process group cancelled: %w", ctx.Err())
		}
		if inv.Delegated() {
			return result, fmt.Errorf("launcher process exited with code %d: %w", firstFailure.exitCode, firstFailure.err)
		}
		return result, fmt.Errorf("rank %d exited with code %d: %w", firstFailure.rank, firstFailure.exitCode, firstFailure.err)
	}
	return result, nil
}

// startWorker spawns one process with its output streams wired to the logger.
// The returned WaitGroup completes when both streams are drained; it must be
// waited on before calling cmd.Wait.
func (g *Group) startWorker(ctx context.Context, logger *slog.Logger, argv, env []string, rank int, grace time.Duration) (*exec.Cmd, *sync.WaitGroup, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Env = env
	cmd.WaitDelay = grace
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}

	workerLogger := logger
	if rank >= 0 {
		workerLogger = logger.With("rank", rank)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, nil, err
	}

	if err := cmd.Start(); err != nil {
		return nil, nil, err
	}
	if rank >= 0 {
		workerLogger.Debug("Worker process started.", "pid", cmd.Process.Pid)
	} else {
		workerLogger.Debug("Delegated launcher process started.", "pid", cmd.Process.Pid)
	}

	var streamWG sync.WaitGroup
	streamWG.Add(2)
	go func(r io.Reader) {
		defer streamWG.Done()
		streamLines(r, workerLogger.With("stream", "stdout"))
	}(stdout)
	go func(r io.Reader) {
		defer streamWG.Done()
		streamLines(r, workerLogger.With("stream", "stderr"))
	}(stderr)

	return cmd, &streamWG, nil
}
