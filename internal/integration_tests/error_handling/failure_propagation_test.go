package integration_tests

import (
	"context"
	"errors"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vk/launchgridgo/internal/registry"
	"github.com/vk/launchgridgo/internal/testutil"
)

// mockFailerModule provides one launcher that always fails and one that
// records whether it ran.
type mockFailerModule struct {
	downstreamRan atomic.Bool
}

func (m *mockFailerModule) Register(r *registry.Registry) {
	r.RegisterLauncher("OnLaunchFail", &registry.RegisteredLauncher{
		NewInput:  func() any { return new(struct{}) },
		InputType: reflect.TypeOf(struct{}{}),
		NewDeps:   func() any { return new(struct{}) },
		Fn: func(context.Context, any, any) (any, error) {
			return nil, errors.New("training diverged")
		},
	})
	r.RegisterLauncher("OnLaunchWitness", &registry.RegisteredLauncher{
		NewInput:  func() any { return new(struct{}) },
		InputType: reflect.TypeOf(struct{}{}),
		NewDeps:   func() any { return new(struct{}) },
		Fn: func(context.Context, any, any) (any, error) {
			m.downstreamRan.Store(true)
			return nil, nil
		},
	})
}

func TestErrorHandling_FailureSkipsDependents(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	manifestHCL := `
		launcher "fail" {
			lifecycle {
				on_launch = "OnLaunchFail"
			}
		}
		launcher "witness" {
			lifecycle {
				on_launch = "OnLaunchWitness"
			}
		}
	`
	planHCL := `
		job "fail" "A" {}

		job "witness" "B" {
			depends_on = ["fail.A"]
		}
	`
	files := map[string]string{
		"modules/failer/manifest.hcl": manifestHCL,
		"plan/main.hcl":               planHCL,
	}
	mockModule := &mockFailerModule{}

	// --- Act ---
	result := testutil.RunIntegrationTest(t, files, mockModule)

	// --- Assert ---
	require.Error(t, result.Err)
	require.Contains(t, result.Err.Error(), "execution failed for job.fail.A[0]")
	require.Contains(t, result.Err.Error(), "training diverged")
	require.False(t, mockModule.downstreamRan.Load(), "dependent job must not run after its dependency failed")
	testutil.AssertJobSkipped(t, result, "witness", "B")
}

// mockStaggeredModule pairs an instant failure with a slow success, so one
// branch of the graph is still in flight when the run is cancelled.
type mockStaggeredModule struct {
	relayRan atomic.Bool
}

func (m *mockStaggeredModule) Register(r *registry.Registry) {
	r.RegisterLauncher("OnLaunchCrash", &registry.RegisteredLauncher{
		NewInput:  func() any { return new(struct{}) },
		InputType: reflect.TypeOf(struct{}{}),
		NewDeps:   func() any { return new(struct{}) },
		Fn: func(context.Context, any, any) (any, error) {
			return nil, errors.New("rank 0 crashed")
		},
	})
	r.RegisterLauncher("OnLaunchSlow", &registry.RegisteredLauncher{
		NewInput:  func() any { return new(struct{}) },
		InputType: reflect.TypeOf(struct{}{}),
		NewDeps:   func() any { return new(struct{}) },
		Fn: func(context.Context, any, any) (any, error) {
			time.Sleep(300 * time.Millisecond)
			return nil, nil
		},
	})
	r.RegisterLauncher("OnLaunchRelay", &registry.RegisteredLauncher{
		NewInput:  func() any { return new(struct{}) },
		InputType: reflect.TypeOf(struct{}{}),
		NewDeps:   func() any { return new(struct{}) },
		Fn: func(context.Context, any, any) (any, error) {
			m.relayRan.Store(true)
			return nil, nil
		},
	})
}

func TestErrorHandling_CancelledRunReleasesTransitiveDependents(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	// F fails immediately and cancels the run while A is still sleeping. A
	// then finishes and enqueues B, which a worker drains on the dead context.
	// The run must skip both B and C and return instead of hanging on C.
	manifestHCL := `
		launcher "crash" {
			lifecycle {
				on_launch = "OnLaunchCrash"
			}
		}
		launcher "slow" {
			lifecycle {
				on_launch = "OnLaunchSlow"
			}
		}
		launcher "relay" {
			lifecycle {
				on_launch = "OnLaunchRelay"
			}
		}
	`
	planHCL := `
		job "crash" "F" {}

		job "slow" "A" {}

		job "relay" "B" {
			depends_on = ["slow.A"]
		}

		job "relay" "C" {
			depends_on = ["relay.B"]
		}
	`
	files := map[string]string{
		"modules/staggered/manifest.hcl": manifestHCL,
		"plan/main.hcl":                  planHCL,
	}
	mockModule := &mockStaggeredModule{}

	// --- Act ---
	done := make(chan *testutil.HarnessResult, 1)
	go func() {
		done <- testutil.RunIntegrationTest(t, files, mockModule)
	}()

	// --- Assert ---
	select {
	case result := <-done:
		require.Error(t, result.Err)
		require.Contains(t, result.Err.Error(), "execution failed for job.crash.F[0]")
		require.Contains(t, result.Err.Error(), "rank 0 crashed")
		require.False(t, mockModule.relayRan.Load(), "relay jobs must not run after the run was cancelled")
		testutil.AssertJobSkipped(t, result, "relay", "C")
	case <-time.After(15 * time.Second):
		t.Fatal("run never completed: a node skipped on a cancelled context did not release its dependents")
	}
}

func TestErrorHandling_MissingRequiredArgument(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	manifestHCL := `
		launcher "strict" {
			lifecycle {
				on_launch = "OnLaunchStrict"
			}
			input "needed" {
				type = string
			}
		}
	`
	planHCL := `
		job "strict" "A" {
			arguments {}
		}
	`
	files := map[string]string{
		"modules/strict/manifest.hcl": manifestHCL,
		"plan/main.hcl":               planHCL,
	}

	strictModule := registry.ModuleFunc(func(r *registry.Registry) {
		type strictInput struct {
			Needed string `lggo:"needed"`
		}
		r.RegisterLauncher("OnLaunchStrict", &registry.RegisteredLauncher{
			NewInput:  func() any { return new(strictInput) },
			InputType: reflect.TypeOf(strictInput{}),
			NewDeps:   func() any { return new(struct{}) },
			Fn:        func(context.Context, any, any) (any, error) { return nil, nil },
		})
	})

	// --- Act ---
	result := testutil.RunIntegrationTest(t, files, strictModule)

	// --- Assert ---
	require.Error(t, result.Err)
	require.Contains(t, result.Err.Error(), `missing required argument "needed"`)
}

func TestErrorHandling_InvalidPlanSyntaxPanicsAtStartup(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	files := map[string]string{
		"plan/main.hcl": `job "broken" "A" { arguments {`,
	}

	// --- Act ---
	result := testutil.RunIntegrationTest(t, files)

	// --- Assert ---
	require.Error(t, result.Err)
	require.Contains(t, result.Err.Error(), "application startup panicked")
	require.Contains(t, result.Err.Error(), "failed to parse")
}

func TestErrorHandling_ManifestCodeParityMismatchPanics(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	// The manifest declares an input the Go struct does not carry.
	manifestHCL := `
		launcher "drift" {
			lifecycle {
				on_launch = "OnLaunchDrift"
			}
			input "declared_only_in_manifest" {
				type = string
			}
		}
	`
	files := map[string]string{
		"modules/drift/manifest.hcl": manifestHCL,
		"plan/main.hcl":              `job "drift" "A" {}`,
	}

	driftModule := registry.ModuleFunc(func(r *registry.Registry) {
		r.RegisterLauncher("OnLaunchDrift", &registry.RegisteredLauncher{
			NewInput:  func() any { return new(struct{}) },
			InputType: reflect.TypeOf(struct{}{}),
			NewDeps:   func() any { return new(struct{}) },
			Fn:        func(context.Context, any, any) (any, error) { return nil, nil },
		})
	})

	// --- Act ---
	result := testutil.RunIntegrationTest(t, files, driftModule)

	// --- Assert ---
	require.Error(t, result.Err)
	require.Contains(t, result.Err.Error(), "application startup panicked")
	require.Contains(t, result.Err.Error(), "registry validation failed")
}
