package dcontext

import "context"

// Background returns a non-nil, empty context, exactly like context.Background,
// exposed here so packages that depend on dcontext never import "context"
// directly just to get a root value.
func Background() context.Context {
	return context.Background()
}

type versionKey struct{}

func (versionKey) String() string { return "version" }

// WithVersion returns a context with the application version attached, used
// to stamp log entries and the App-Version response header.
func WithVersion(ctx context.Context, version string) context.Context {
	ctx = context.WithValue(ctx, versionKey{}, version)
	// Pass down logging field as well.
	return WithLogger(ctx, GetLogger(ctx, versionKey{}))
}

// GetVersion returns the version associated with ctx, or "" if none was set.
func GetVersion(ctx context.Context) string {
	return GetStringValue(ctx, versionKey{})
}
