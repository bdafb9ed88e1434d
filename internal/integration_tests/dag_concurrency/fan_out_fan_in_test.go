package integration_tests

import (
	"context"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/launchgridgo/internal/registry"
	"github.com/vk/launchgridgo/internal/testutil"
)

// mockTrackerModule records the order in which job instances execute.
type mockTrackerModule struct {
	mu       sync.Mutex
	started  []string
	finished atomic.Int32
}

func (m *mockTrackerModule) Register(r *registry.Registry) {
	type trackInput struct {
		Name string `lggo:"name"`
	}
	r.RegisterLauncher("OnLaunchTrack", &registry.RegisteredLauncher{
		NewInput:  func() any { return new(trackInput) },
		InputType: reflect.TypeOf(trackInput{}),
		NewDeps:   func() any { return new(struct{}) },
		Fn: func(_ context.Context, _ any, inputRaw any) (any, error) {
			input := inputRaw.(*trackInput)
			m.mu.Lock()
			m.started = append(m.started, input.Name)
			m.mu.Unlock()
			m.finished.Add(1)
			return nil, nil
		},
	})
}

func (m *mockTrackerModule) Started() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.started...)
}

func TestDagConcurrency_FanOutFanIn(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	manifestHCL := `
		launcher "track" {
			lifecycle {
				on_launch = "OnLaunchTrack"
			}
			input "name" {
				type = string
			}
		}
	`
	// One root fans out to three parallel jobs; a final job fans them back in.
	planHCL := `
		job "track" "root" {
			arguments {
				name = "root"
			}
		}
		job "track" "left" {
			depends_on = ["track.root"]
			arguments {
				name = "left"
			}
		}
		job "track" "mid" {
			depends_on = ["track.root"]
			arguments {
				name = "mid"
			}
		}
		job "track" "right" {
			depends_on = ["track.root"]
			arguments {
				name = "right"
			}
		}
		job "track" "sink" {
			depends_on = ["track.left", "track.mid", "track.right"]
			arguments {
				name = "sink"
			}
		}
	`
	files := map[string]string{
		"modules/track/manifest.hcl": manifestHCL,
		"plan/main.hcl":              planHCL,
	}
	mockModule := &mockTrackerModule{}

	// --- Act ---
	result := testutil.RunIntegrationTest(t, files, mockModule)

	// --- Assert ---
	require.NoError(t, result.Err)
	started := mockModule.Started()
	require.Len(t, started, 5)
	require.Equal(t, "root", started[0], "the root job must run first")
	require.Equal(t, "sink", started[4], "the sink job must run last")
	require.ElementsMatch(t, []string{"left", "mid", "right"}, started[1:4])
}

func TestDagConcurrency_CountExpansion(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	manifestHCL := `
		launcher "track" {
			lifecycle {
				on_launch = "OnLaunchTrack"
			}
			input "name" {
				type = string
			}
		}
	`
	planHCL := `
		job "track" "worker" {
			count = 3
			arguments {
				name = "worker-${count.index}"
			}
		}
	`
	files := map[string]string{
		"modules/track/manifest.hcl": manifestHCL,
		"plan/main.hcl":              planHCL,
	}
	mockModule := &mockTrackerModule{}

	// --- Act ---
	result := testutil.RunIntegrationTest(t, files, mockModule)

	// --- Assert ---
	require.NoError(t, result.Err)
	require.ElementsMatch(t, []string{"worker-0", "worker-1", "worker-2"}, mockModule.Started())
	require.Contains(t, result.LogOutput, "job.track.worker[2]")
}
