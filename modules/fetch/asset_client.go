package fetch

import (
	"context"
	"time"

	"github.com/vk/launchgridgo/internal/ctxlog"
	"resty.dev/v3"
)

// AssetInput defines the arguments for creating an http_client resource.
type AssetInput struct {
	Timeout string `lggo:"timeout"`
}

// CreateHttpClient is the 'create' handler for the asset. It returns a live
// *resty.Client that is shared by every job using the resource.
func CreateHttpClient(ctx context.Context, input *AssetInput) (*resty.Client, error) {
	logger := ctxlog.FromContext(ctx)

	client := resty.New()
	if input.Timeout != "" {
		timeout, err := time.ParseDuration(input.Timeout)
		if err != nil {
			return nil, err
		}
		client.SetTimeout(timeout)
	}

	logger.Debug("Created shared HTTP client.", "timeout", input.Timeout)
	return client, nil
}

// DestroyHttpClient is the 'destroy' handler for the asset.
func DestroyHttpClient(client *resty.Client) error {
	return client.Close()
}
