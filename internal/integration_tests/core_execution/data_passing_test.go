package integration_tests

import (
	"context"
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/vk/launchgridgo/internal/registry"
	"github.com/vk/launchgridgo/internal/testutil"
)

type sourceOutput struct {
	Message string `cty:"message"`
	ID      int    `cty:"id"`
}

type mockSourceSpyModule struct {
	sourceOutput  sourceOutput
	capturedInput sourceOutput
}

func (m *mockSourceSpyModule) Register(r *registry.Registry) {
	r.RegisterLauncher("OnLaunchSource", &registry.RegisteredLauncher{
		NewInput:  func() any { return new(struct{}) },
		InputType: reflect.TypeOf(struct{}{}),
		NewDeps:   func() any { return new(struct{}) },
		Fn:        func(context.Context, any, any) (*sourceOutput, error) { return &m.sourceOutput, nil },
	})

	type spyInput struct {
		Input sourceOutput `lggo:"input"`
	}
	r.RegisterLauncher("OnLaunchSpy", &registry.RegisteredLauncher{
		NewInput:  func() any { return new(spyInput) },
		InputType: reflect.TypeOf(spyInput{}),
		NewDeps:   func() any { return new(struct{}) },
		Fn: func(_ context.Context, _ any, inputRaw any) (any, error) {
			m.capturedInput = inputRaw.(*spyInput).Input
			return nil, nil
		},
	})
}

func TestCoreExecution_DataPassing(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	sourceManifestHCL := `
		launcher "source" {
			lifecycle {
				on_launch = "OnLaunchSource"
			}
			output "data" {
				type = any
			}
		}
	`
	spyManifestHCL := `
		launcher "spy" {
			lifecycle {
				on_launch = "OnLaunchSpy"
			}
			input "input" {
				type = any
			}
		}
	`
	planHCL := `
		job "source" "A" {
			arguments {}
		}
		job "spy" "B" {
			arguments {
				input = job.source.A.output
			}
		}
	`
	files := map[string]string{
		"modules/source/manifest.hcl": sourceManifestHCL,
		"modules/spy/manifest.hcl":    spyManifestHCL,
		"plan/main.hcl":               planHCL,
	}

	expectedData := sourceOutput{
		Message: "hello from source",
		ID:      123,
	}
	mockModule := &mockSourceSpyModule{sourceOutput: expectedData}

	// --- Act ---
	result := testutil.RunIntegrationTest(t, files, mockModule)

	// --- Assert ---
	require.NoError(t, result.Err)
	testutil.AssertJobRan(t, result, "source", "A")
	testutil.AssertJobRan(t, result, "spy", "B")

	if diff := cmp.Diff(expectedData, mockModule.capturedInput); diff != "" {
		t.Errorf("Captured input mismatch (-want +got):\n%s", diff)
	}
}
