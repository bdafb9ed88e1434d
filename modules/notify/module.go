package notify

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/url"
	"reflect"
	"sync/atomic"
	"time"

	"github.com/vk/launchgridgo/internal/ctxlog"
	"github.com/vk/launchgridgo/internal/registry"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the 'notify' launcher. Data stays a raw
// cty.Value so arbitrary object shapes from the plan pass through unchanged.
type Input struct {
	URL                string    `lggo:"url"`
	Namespace          string    `lggo:"namespace"`
	Event              string    `lggo:"event"`
	Data               cty.Value `lggo:"data"`
	AckEvent           string    `lggo:"ack_event"`
	Timeout            string    `lggo:"timeout"`
	InsecureSkipVerify bool      `lggo:"insecure_skip_verify"`
}

// Output defines the data structure returned by the launcher.
type Output struct {
	AckJSON string `cty:"ack_json"`
}

// Deps is an empty struct because this launcher does not use any resources.
type Deps struct{}

// opResult is a private struct to safely pass results through the done channel.
type opResult struct {
	value *Output
	err   error
}

// payloadFromValue converts the decoded plan value into the native shape the
// socket.io client serializes.
func payloadFromValue(val cty.Value) (any, error) {
	if val.IsNull() {
		return map[string]any{}, nil
	}
	raw, err := ctyjson.Marshal(val, val.Type())
	if err != nil {
		return nil, fmt.Errorf("failed to serialize notify data: %w", err)
	}
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to deserialize notify data: %w", err)
	}
	return payload, nil
}

// OnLaunchNotify is the handler for the 'notify' launcher's on_launch
// lifecycle event. It connects to a socket.io endpoint, emits one run-status
// event, and optionally waits for an acknowledgement event.
func OnLaunchNotify(ctx context.Context, deps *Deps, input *Input) (*Output, error) {
	logger := ctxlog.FromContext(ctx).With("launcher", "notify", "url", input.URL, "event", input.Event, "ackEvent", input.AckEvent)
	logger.Debug("Handler started")
	defer logger.Debug("Handler finished")

	var isConnected atomic.Bool

	timeout, err := time.ParseDuration(input.Timeout)
	if err != nil {
		logger.Warn("Failed to parse timeout, using default 10s", "inputTimeout", input.Timeout, "error", err)
		timeout = 10 * time.Second
	}

	payload, err := payloadFromValue(input.Data)
	if err != nil {
		return nil, err
	}

	done := make(chan opResult, 1)
	opCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	parsedURL, err := url.Parse(input.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)

	if input.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(input.Namespace, opts)
	defer func() {
		logger.Debug("Disconnecting socket client")
		io.Disconnect()
	}()

	// --- Event Listeners ---
	io.On(types.EventName("connect"), func(...any) {
		isConnected.Store(true)
		logger.Info("Successfully connected", "namespace", input.Namespace, "sid", io.Id())

		jsonData, _ := json.Marshal(payload)
		logger.Info("Emitting run-status event", "event", input.Event, "data", string(jsonData))
		io.Emit(input.Event, payload)

		// Without an acknowledgement to wait for, emitting is the whole job.
		if input.AckEvent == "" {
			done <- opResult{value: &Output{}}
		}
	})

	io.On(types.EventName("connect_error"), func(errs ...any) {
		done <- opResult{err: errs[0].(error)}
	})

	if input.AckEvent != "" {
		io.On(types.EventName(input.AckEvent), func(data ...any) {
			ackJSON := ""
			if len(data) > 0 {
				raw, err := json.Marshal(data[0])
				if err == nil {
					ackJSON = string(raw)
				}
			}
			done <- opResult{value: &Output{AckJSON: ackJSON}}
		})
	}

	// --- Execution Block ---
	io.Connect()

	select {
	case <-opCtx.Done():
		var errMsg string
		if isConnected.Load() {
			errMsg = fmt.Sprintf("timed out after connecting while waiting for event '%s'", input.AckEvent)
		} else {
			errMsg = "timed out while waiting for initial connection"
		}
		return nil, fmt.Errorf("%s", errMsg)
	case res := <-done:
		return res.value, res.err
	}
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterLauncher("OnLaunchNotify", &registry.RegisteredLauncher{
		NewInput:  func() any { return new(Input) },
		InputType: reflect.TypeOf(Input{}),
		NewDeps:   func() any { return new(Deps) },
		Fn:        OnLaunchNotify,
	})
}
