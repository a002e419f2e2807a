package domain

import "context"

const (
	RequesterIdCtxKey       = "is-requesterId"
	RequesterUsernameCtxKey = "is-requesterUsername"
	FreshReadCtxKey         = "is-freshRead"
)

// WithFreshReads marks ctx so comment reads skip any cache and go to the
// ticket platform. Read-modify-write paths set it while holding a lock.
func WithFreshReads(ctx context.Context) context.Context {
	return context.WithValue(ctx, FreshReadCtxKey, true)
}

func FreshReads(ctx context.Context) bool {
	fresh, _ := ctx.Value(FreshReadCtxKey).(bool)
	return fresh
}

// RequesterFromContext returns the authenticated owner stored by the auth middleware.
func RequesterFromContext(ctx context.Context) (Owner, bool) {
	id, ok := ctx.Value(RequesterIdCtxKey).(int64)
	if !ok || id == 0 {
		return Owner{}, false
	}
	username, _ := ctx.Value(RequesterUsernameCtxKey).(string)
	return Owner{UserID: id, Username: username}, true
}
