package fetch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"

	"github.com/vk/launchgridgo/internal/ctxlog"
	"github.com/vk/launchgridgo/internal/registry"
	"resty.dev/v3"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the 'fetch' launcher.
type Input struct {
	URL  string `lggo:"url"`
	Dest string `lggo:"dest"`
}

// Output defines the data structure returned by the launcher.
type Output struct {
	Status int    `cty:"status"`
	Bytes  int    `cty:"bytes"`
	Path   string `cty:"path"`
}

// Deps declares the shared resources this launcher consumes.
type Deps struct {
	Client *resty.Client `lggo:"http"`
}

// OnLaunchFetch is the handler for the 'fetch' launcher's on_launch lifecycle
// event. It downloads a URL, typically pretrained weights or an annotation
// archive, and optionally writes the body to a destination file.
func OnLaunchFetch(ctx context.Context, deps *Deps, input *Input) (*Output, error) {
	logger := ctxlog.FromContext(ctx).With("launcher", "fetch", "url", input.URL)
	logger.Debug("Handler started")
	defer logger.Debug("Handler finished")

	if deps.Client == nil {
		return nil, fmt.Errorf("fetch requires an http_client resource via 'uses'")
	}

	resp, err := deps.Client.R().SetContext(ctx).Get(input.URL)
	if err != nil {
		return nil, fmt.Errorf("fetch request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch failed with status: %s", resp.Status())
	}

	body := resp.Bytes()
	logger.Info("Fetched URL", "status", resp.StatusCode(), "bytes", len(body))

	path := ""
	if input.Dest != "" {
		if err := os.MkdirAll(filepath.Dir(input.Dest), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create destination directory: %w", err)
		}
		if err := os.WriteFile(input.Dest, body, 0o644); err != nil {
			return nil, fmt.Errorf("failed to write destination file: %w", err)
		}
		path = input.Dest
		logger.Info("Wrote fetched body to file", "path", path)
	}

	return &Output{
		Status: resp.StatusCode(),
		Bytes:  len(body),
		Path:   path,
	}, nil
}

// Register registers the asset handlers, interface, and launcher with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterAssetHandler("CreateHttpClient", &registry.RegisteredAsset{
		NewInput: func() any { return new(AssetInput) },
		CreateFn: CreateHttpClient,
	})
	r.RegisterAssetHandler("DestroyHttpClient", &registry.RegisteredAsset{
		DestroyFn: DestroyHttpClient,
	})
	r.RegisterAssetInterface("http_client", reflect.TypeOf((*resty.Client)(nil)))

	r.RegisterLauncher("OnLaunchFetch", &registry.RegisteredLauncher{
		NewInput:  func() any { return new(Input) },
		InputType: reflect.TypeOf(Input{}),
		NewDeps:   func() any { return new(Deps) },
		Fn:        OnLaunchFetch,
	})
}
