package core

import "context"

type contextKey string

const ctxKeyRole contextKey = "viewer_role"

// ContextWithRole records the viewer role for the request.
func ContextWithRole(ctx context.Context, role Role) context.Context {
	return context.WithValue(ctx, ctxKeyRole, role)
}

// RoleFromContext returns the viewer role, defaulting to admin.
func RoleFromContext(ctx context.Context) Role {
	if r, ok := ctx.Value(ctxKeyRole).(Role); ok && r != "" {
		return r
	}
	return RoleAdmin
}
