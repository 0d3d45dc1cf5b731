package port

import "context"

type upstreamTokenKey struct{}

// WithUpstreamToken attaches the data backend bearer token to ctx.
func WithUpstreamToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, upstreamTokenKey{}, token)
}

// UpstreamToken returns the bearer token attached by WithUpstreamToken.
func UpstreamToken(ctx context.Context) string {
	tok, _ := ctx.Value(upstreamTokenKey{}).(string)
	return tok
}
