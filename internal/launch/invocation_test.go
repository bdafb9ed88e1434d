package launch

import (
	"testing"

	"github.com/kballard/go-shellquote"
	"github.com/stretchr/testify/require"
)

// TestInvocation_Argv_DelegateMode verifies the documented flag positions
// when an external launcher module drives the process group.
func TestInvocation_Argv_DelegateMode(t *testing.T) {
	t.Parallel()

	// Arrange
	inv := Invocation{
		LauncherModule: "torch.distributed.launch",
		Script:         "main.py",
		NumProcs:       8,
		MasterPort:     1617,
		Cuda:           true,
		Distributed:    true,
		Dataset:        "coco",
		Root:           "/data",
		Model:          "yolof50",
		BatchSize:      16,
		EvalEpoch:      2,
	}

	// Act
	argv := inv.Argv()

	// Assert
	require.Equal(t, []string{
		"python",
		"-m", "torch.distributed.launch",
		"--nproc_per_node=8",
		"--master_port", "1617",
		"main.py",
		"--cuda",
		"-dist",
		"-d", "coco",
		"--root", "/data",
		"-m", "yolof50",
		"--batch_size", "16",
		"--eval_epoch", "2",
	}, argv)
}

// TestInvocation_Argv_OmitsUnsetFlags verifies that optional flags vanish
// entirely instead of appearing with empty values.
func TestInvocation_Argv_OmitsUnsetFlags(t *testing.T) {
	t.Parallel()

	// Arrange
	inv := Invocation{
		LauncherModule: "torch.distributed.launch",
		Script:         "main.py",
		NumProcs:       4,
	}

	// Act
	argv := inv.Argv()

	// Assert
	require.Equal(t, []string{
		"python",
		"-m", "torch.distributed.launch",
		"--nproc_per_node=4",
		"main.py",
	}, argv)
}

// TestInvocation_Argv_DirectMode verifies that without a launcher module the
// script follows the interpreter immediately.
func TestInvocation_Argv_DirectMode(t *testing.T) {
	t.Parallel()

	// Arrange
	inv := Invocation{
		Script:    "main.py",
		NumProcs:  2,
		Dataset:   "voc",
		BatchSize: 16,
		Extra:     []string{"--resume", "weights/latest.pth"},
	}

	// Act
	argv := inv.Argv()

	// Assert
	require.Equal(t, []string{
		"python",
		"main.py",
		"-d", "voc",
		"--batch_size", "16",
		"--resume", "weights/latest.pth",
	}, argv)
}

// TestInvocation_String_RoundTrips verifies the rendered line survives shell
// word splitting even when arguments contain spaces.
func TestInvocation_String_RoundTrips(t *testing.T) {
	t.Parallel()

	// Arrange
	inv := Invocation{
		Python:         "python3",
		LauncherModule: "torch.distributed.launch",
		Script:         "main.py",
		NumProcs:       2,
		MasterPort:     29500,
		Root:           "/data/my datasets/voc",
		Model:          "yolof18",
	}

	// Act
	line := inv.String()
	words, err := shellquote.Split(line)

	// Assert
	require.NoError(t, err)
	require.Equal(t, inv.Argv(), words)
	require.NotContains(t, line, "\n")
}

// TestInvocation_Validate covers the non-defaultable fields.
func TestInvocation_Validate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		inv     Invocation
		wantErr string
	}{
		{
			name: "valid",
			inv:  Invocation{Script: "main.py", NumProcs: 1},
		},
		{
			name:    "missing script",
			inv:     Invocation{NumProcs: 1},
			wantErr: "script must not be empty",
		},
		{
			name:    "zero workers",
			inv:     Invocation{Script: "main.py"},
			wantErr: "num_procs must be at least 1",
		},
		{
			name:    "port out of range",
			inv:     Invocation{Script: "main.py", NumProcs: 1, MasterPort: 70000},
			wantErr: "master_port out of range",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := tc.inv.Validate()
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tc.wantErr)
		})
	}
}

// TestInvocation_WorkerEnv verifies the rendezvous variables for one rank.
func TestInvocation_WorkerEnv(t *testing.T) {
	t.Parallel()

	// Arrange
	inv := Invocation{
		Script:      "main.py",
		NumProcs:    2,
		MasterPort:  29500,
		CUDADevices: "0,1",
	}

	// Act
	env := inv.workerEnv([]string{"PATH=/usr/bin"}, 1)

	// Assert
	require.Equal(t, []string{
		"PATH=/usr/bin",
		"CUDA_VISIBLE_DEVICES=0,1",
		"MASTER_ADDR=127.0.0.1",
		"MASTER_PORT=29500",
		"WORLD_SIZE=2",
		"RANK=1",
		"LOCAL_RANK=1",
	}, env)
}

// TestInvocation_WorkerEnv_DelegateModeSkipsRank verifies that a negative
// rank leaves rank assignment to the external launcher.
func TestInvocation_WorkerEnv_DelegateModeSkipsRank(t *testing.T) {
	t.Parallel()

	inv := Invocation{
		LauncherModule: "torch.distributed.launch",
		Script:         "main.py",
		NumProcs:       8,
		MasterPort:     1617,
	}

	env := inv.workerEnv(nil, -1)

	require.NotContains(t, env, "RANK=0")
	require.Contains(t, env, "MASTER_PORT=1617")
	require.Contains(t, env, "WORLD_SIZE=8")
}
