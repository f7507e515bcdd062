package httpx

import "context"

type ctxKey int

const ctxKeyFetchID ctxKey = iota

// WithFetchID returns a new context that carries a fetch ID. The ID only
// shows up in logs; it is never sent on the wire.
func WithFetchID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyFetchID, id)
}

// FetchIDFrom extracts the fetch ID from ctx.
func FetchIDFrom(ctx context.Context) (string, bool) {
	v := ctx.Value(ctxKeyFetchID)
	if v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}

// ensureFetchID returns ctx with a fetch ID, generating one if needed.
func ensureFetchID(ctx context.Context) (context.Context, string) {
	if id, ok := FetchIDFrom(ctx); ok {
		return ctx, id
	}
	id := genID()
	return WithFetchID(ctx, id), id
}
