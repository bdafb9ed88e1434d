package artifact

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/vk/launchgridgo/internal/ctxlog"
	"github.com/vk/launchgridgo/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// httpClient is shared by all artifact uploads to reuse TCP connections.
var httpClient = &http.Client{}

// Input defines the arguments for the 'artifact' launcher.
type Input struct {
	Action     string `lggo:"action"`
	SourcePath string `lggo:"source_path"`
	UploadURL  string `lggo:"upload_url"`
}

// Deps is an empty struct because this launcher does not use any resources.
type Deps struct{}

// handleUpload pushes a local file, typically a checkpoint or an eval log, to
// a pre-signed URL.
func handleUpload(ctx context.Context, input *Input) (cty.Value, error) {
	logger := ctxlog.FromContext(ctx).With("action", "upload")

	file, err := os.Open(input.SourcePath)
	if err != nil {
		return cty.NilVal, fmt.Errorf("failed to open source file '%s': %w", input.SourcePath, err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return cty.NilVal, fmt.Errorf("failed to stat '%s': %w", input.SourcePath, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, input.UploadURL, file)
	if err != nil {
		return cty.NilVal, fmt.Errorf("failed to create upload request: %w", err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(input.SourcePath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = stat.Size()

	logger.Info("Uploading artifact", "source", input.SourcePath, "size", stat.Size(), "contentType", contentType)

	resp, err := httpClient.Do(req)
	if err != nil {
		return cty.NilVal, fmt.Errorf("failed to execute upload request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return cty.NilVal, fmt.Errorf("artifact upload failed with status: %s", resp.Status)
	}

	logger.Info("Successfully uploaded artifact", "status", resp.Status)

	return cty.ObjectVal(map[string]cty.Value{
		"success": cty.BoolVal(true),
		"status":  cty.StringVal(resp.Status),
	}), nil
}

// OnLaunchArtifact is the handler for the 'artifact' launcher's on_launch
// lifecycle event.
func OnLaunchArtifact(ctx context.Context, deps *Deps, input *Input) (cty.Value, error) {
	switch strings.ToLower(input.Action) {
	case "upload":
		return handleUpload(ctx, input)
	case "download":
		return cty.NilVal, fmt.Errorf("artifact action 'download' is not yet implemented, use the fetch launcher")
	default:
		return cty.NilVal, fmt.Errorf("unknown artifact action: '%s'", input.Action)
	}
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterLauncher("OnLaunchArtifact", &registry.RegisteredLauncher{
		NewInput:  func() any { return new(Input) },
		InputType: reflect.TypeOf(Input{}),
		NewDeps:   func() any { return new(Deps) },
		Fn:        OnLaunchArtifact,
	})
}
