package auth

import "context"

type userKey struct{}

// WithUserID returns a copy of ctx carrying the signed-in user's id.
func WithUserID(ctx context.Context, id uint) context.Context {
	return context.WithValue(ctx, userKey{}, id)
}

// UserID returns the signed-in user's id, if any.
func UserID(ctx context.Context) (uint, bool) {
	id, ok := ctx.Value(userKey{}).(uint)
	return id, ok && id > 0
}
