package httpx

import "context"

type ctxKey string

const (
	CtxKeyPrincipalID ctxKey = "principal_id"
	CtxKeyScopes      ctxKey = "scopes"
	CtxKeyAccountHref ctxKey = "account_href"
)

// WithIdentity attaches the resolved principal id and its granted scopes
// to the context for downstream handlers.
func WithIdentity(ctx context.Context, principalID string, scopes []string) context.Context {
	ctx = context.WithValue(ctx, CtxKeyPrincipalID, principalID)
	return context.WithValue(ctx, CtxKeyScopes, scopes)
}

// WithAccountHref records which account the request resolved to.
func WithAccountHref(ctx context.Context, href string) context.Context {
	return context.WithValue(ctx, CtxKeyAccountHref, href)
}

// PrincipalID returns the authenticated principal id, or "" when the
// request is anonymous.
func PrincipalID(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyPrincipalID).(string); ok {
		return v
	}
	return ""
}

// AccountHref returns the resolved account href, or "" when anonymous.
func AccountHref(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyAccountHref).(string); ok {
		return v
	}
	return ""
}

// Scopes returns the granted scope set of the caller, nil when anonymous.
func Scopes(ctx context.Context) []string {
	if v, ok := ctx.Value(CtxKeyScopes).([]string); ok {
		return v
	}
	return nil
}
