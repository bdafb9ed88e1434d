package launch

import (
	"fmt"
	"os"
	"strconv"

	"github.com/kballard/go-shellquote"
)

// Invocation describes one distributed training command line. Launcher flags
// are owned by this tool; forwarded flags are owned by the external entry
// point and pass through verbatim.
type Invocation struct {
	// Python is the interpreter executable. Defaults to "python" when empty.
	Python string
	// LauncherModule, when set, selects delegate mode and is invoked as
	// `python -m <module>` in front of the script (e.g. "torch.distributed.launch").
	LauncherModule string
	// Script is the training entry point (e.g. "main.py").
	Script string

	// NumProcs is the number of worker processes (one per accelerator).
	NumProcs int
	// MasterAddr is the rendezvous address. Defaults to 127.0.0.1 when empty.
	MasterAddr string
	// MasterPort is the rendezvous port. Zero means pick a free port at launch.
	MasterPort int
	// CUDADevices pins accelerators via CUDA_VISIBLE_DEVICES when non-empty.
	CUDADevices string

	// Forwarded application flags, in their documented positions.
	Cuda        bool   // --cuda
	Distributed bool   // -dist
	Dataset     string // -d
	Root        string // --root
	Model       string // -m
	BatchSize   int    // --batch_size
	EvalEpoch   int    // --eval_epoch

	// Extra args are appended verbatim after all documented flags.
	Extra []string
}

// Delegated reports whether the invocation hands rank coordination to an
// external launcher module.
func (inv *Invocation) Delegated() bool {
	return inv.LauncherModule != ""
}

// Validate checks the fields that cannot be defaulted.
func (inv *Invocation) Validate() error {
	if inv.Script == "" {
		return fmt.Errorf("invocation: script must not be empty")
	}
	if inv.NumProcs < 1 {
		return fmt.Errorf("invocation: num_procs must be at least 1, got %d", inv.NumProcs)
	}
	if inv.MasterPort < 0 || inv.MasterPort > 65535 {
		return fmt.Errorf("invocation: master_port out of range: %d", inv.MasterPort)
	}
	return nil
}

// interpreter returns the configured interpreter or its default.
func (inv *Invocation) interpreter() string {
	if inv.Python == "" {
		return "python"
	}
	return inv.Python
}

// masterAddr returns the configured rendezvous address or its default.
func (inv *Invocation) masterAddr() string {
	if inv.MasterAddr == "" {
		return "127.0.0.1"
	}
	return inv.MasterAddr
}

// Argv builds the full command line in documented flag positions. In delegate
// mode the external launcher module and its flags precede the script; in
// direct mode the script follows the interpreter immediately and rank
// coordination travels in the environment instead.
func (inv *Invocation) Argv() []string {
	argv := []string{inv.interpreter()}

	if inv.Delegated() {
		argv = append(argv, "-m", inv.LauncherModule)
		argv = append(argv, fmt.Sprintf("--nproc_per_node=%d", inv.NumProcs))
		if inv.MasterPort != 0 {
			argv = append(argv, "--master_port", strconv.Itoa(inv.MasterPort))
		}
	}

	argv = append(argv, inv.Script)

	if inv.Cuda {
		argv = append(argv, "--cuda")
	}
	if inv.Distributed {
		argv = append(argv, "-dist")
	}
	if inv.Dataset != "" {
		argv = append(argv, "-d", inv.Dataset)
	}
	if inv.Root != "" {
		argv = append(argv, "--root", inv.Root)
	}
	if inv.Model != "" {
		argv = append(argv, "-m", inv.Model)
	}
	if inv.BatchSize > 0 {
		argv = append(argv, "--batch_size", strconv.Itoa(inv.BatchSize))
	}
	if inv.EvalEpoch > 0 {
		argv = append(argv, "--eval_epoch", strconv.Itoa(inv.EvalEpoch))
	}

	argv = append(argv, inv.Extra...)
	return argv
}

// String renders the invocation as exactly one shell-quoted command line.
func (inv *Invocation) String() string {
	return shellquote.Join(inv.Argv()...)
}

// Env returns the inherited process environment extended with the shared
// rendezvous variables and, when configured, device pinning. Per-rank
// variables are added by the process group at spawn time.
func (inv *Invocation) Env() []string {
	return inv.workerEnv(os.Environ(), -1)
}
