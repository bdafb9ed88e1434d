package integration_tests

import (
	"context"
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/launchgridgo/internal/registry"
	"github.com/vk/launchgridgo/internal/testutil"
)

// mockRecorderModule captures every message its launcher receives.
type mockRecorderModule struct {
	mu       sync.Mutex
	messages []string
}

func (m *mockRecorderModule) Messages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.messages...)
}

func (m *mockRecorderModule) Register(r *registry.Registry) {
	type recorderInput struct {
		Message string `lggo:"message"`
	}
	r.RegisterLauncher("OnLaunchRecord", &registry.RegisteredLauncher{
		NewInput:  func() any { return new(recorderInput) },
		InputType: reflect.TypeOf(recorderInput{}),
		NewDeps:   func() any { return new(struct{}) },
		Fn: func(_ context.Context, _ any, inputRaw any) (any, error) {
			input := inputRaw.(*recorderInput)
			m.mu.Lock()
			defer m.mu.Unlock()
			m.messages = append(m.messages, input.Message)
			return nil, nil
		},
	})
}

func TestCoreExecution_DuplicateJobNameLastDefinitionWins(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	manifestHCL := `
		launcher "record" {
			lifecycle {
				on_launch = "OnLaunchRecord"
			}
			input "message" {
				type = string
			}
		}
	`
	planHCL := `
		job "record" "same" {
			arguments {
				message = "first"
			}
		}

		job "record" "same" {
			arguments {
				message = "second"
			}
		}
	`
	files := map[string]string{
		"modules/record/manifest.hcl": manifestHCL,
		"plan/main.hcl":               planHCL,
	}
	mockModule := &mockRecorderModule{}

	// --- Act ---
	result := testutil.RunIntegrationTest(t, files, mockModule)

	// --- Assert ---
	require.NoError(t, result.Err)
	require.Contains(t, result.LogOutput, "Duplicate job definition found, it will be overwritten.")
	require.Equal(t, []string{"second"}, mockModule.Messages(),
		"only the last definition of a duplicated job may execute")
}

func TestCoreExecution_EmptyPlanWarnsAndSucceeds(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	files := map[string]string{
		"plan/main.hcl": "# no jobs declared\n",
	}

	// --- Act ---
	result := testutil.RunIntegrationTest(t, files)

	// --- Assert ---
	require.NoError(t, result.Err)
	require.Contains(t, result.LogOutput, "No nodes found in graph, execution not required.")
}
