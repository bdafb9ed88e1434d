package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// AssertJobRan checks the log output within a HarnessResult to confirm that a
// specific job instance has completed. It abstracts the underlying node ID
// format, making tests more resilient to internal refactoring.
func AssertJobRan(t *testing.T, result *HarnessResult, launcherType, jobName string) {
	t.Helper()

	expectedLogSubstring := fmt.Sprintf("job=job.%s.%s[0]", launcherType, jobName)

	require.True(t,
		strings.Contains(result.LogOutput, expectedLogSubstring),
		"expected log output for job '%s.%s[0]' was not found in logs", launcherType, jobName,
	)
}

// AssertJobSkipped checks that a job instance was skipped due to an upstream
// failure.
func AssertJobSkipped(t *testing.T, result *HarnessResult, launcherType, jobName string) {
	t.Helper()

	expectedLogSubstring := fmt.Sprintf("nodeID=job.%s.%s[0]", launcherType, jobName)

	require.True(t,
		strings.Contains(result.LogOutput, "Skipping dependent node due to upstream failure.") &&
			strings.Contains(result.LogOutput, expectedLogSubstring),
		"expected job '%s.%s[0]' to be skipped, but no skip log was found", launcherType, jobName,
	)
}
