package auth

import "context"

type ctxKey string

const sessionContextKey ctxKey = "taskman.auth.session"

func withSessionContext(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, s)
}

func SessionFromContext(ctx context.Context) (Session, bool) {
	v := ctx.Value(sessionContextKey)
	s, ok := v.(Session)
	return s, ok
}

func UserFromContext(ctx context.Context) (User, bool) {
	s, ok := SessionFromContext(ctx)
	return s.User, ok
}

// BearerFromContext returns the provider credential held by the
// session; the calendar sync gate needs it.
func BearerFromContext(ctx context.Context) string {
	s, _ := SessionFromContext(ctx)
	return s.Bearer
}
