package launch

import "context"

type ctxKey struct{}

// WithDryRun returns a context that records whether launches should only be
// printed, not executed.
func WithDryRun(ctx context.Context, dryRun bool) context.Context {
	return context.WithValue(ctx, ctxKey{}, dryRun)
}

// DryRunFromContext reports whether the context requests a dry run. The
// default is a real launch.
func DryRunFromContext(ctx context.Context) bool {
	dryRun, ok := ctx.Value(ctxKey{}).(bool)
	return ok && dryRun
}
