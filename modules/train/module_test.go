package train

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/launchgridgo/internal/launch"
)

// TestOnLaunchTrain_DryRunRendersInvocationLine verifies the exact command
// line produced for a fully specified training job, without spawning anything.
func TestOnLaunchTrain_DryRunRendersInvocationLine(t *testing.T) {
	t.Parallel()

	// Arrange
	ctx := launch.WithDryRun(context.Background(), true)
	input := &Input{
		Script:         "main.py",
		LauncherModule: "torch.distributed.launch",
		NprocPerNode:   8,
		MasterPort:     1617,
		Cuda:           true,
		Dist:           true,
		Dataset:        "coco",
		Root:           "/data",
		Model:          "yolof50",
		BatchSize:      16,
		EvalEpoch:      2,
	}

	// Act
	output, err := OnLaunchTrain(ctx, &Deps{}, input)

	// Assert
	require.NoError(t, err)
	require.Equal(t,
		"python -m torch.distributed.launch --nproc_per_node=8 --master_port 1617 main.py --cuda -dist -d coco --root /data -m yolof50 --batch_size 16 --eval_epoch 2",
		output.Command,
	)
	require.Equal(t, 0, output.ExitCode)
	require.Equal(t, 8, output.WorldSize)
	require.Equal(t, 1617, output.MasterPort)
}

// TestOnLaunchTrain_RejectsMissingScript verifies validation runs before any
// launch attempt.
func TestOnLaunchTrain_RejectsMissingScript(t *testing.T) {
	t.Parallel()

	ctx := launch.WithDryRun(context.Background(), true)
	output, err := OnLaunchTrain(ctx, &Deps{}, &Input{NprocPerNode: 1})

	require.Nil(t, output)
	require.ErrorContains(t, err, "script must not be empty")
}
