package middleware

import "context"

type ctxKey string

const (
	ctxUserID   ctxKey = "user_id"
	ctxFullName ctxKey = "full_name"
	ctxRoles    ctxKey = "roles"
)

func WithUser(ctx context.Context, userID, fullName string, roles []string) context.Context {
	ctx = context.WithValue(ctx, ctxUserID, userID)
	ctx = context.WithValue(ctx, ctxFullName, fullName)
	ctx = context.WithValue(ctx, ctxRoles, roles)
	return ctx
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxUserID).(string)
	return v, ok && v != ""
}

func FullNameFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxFullName).(string)
	return v, ok && v != ""
}

func RolesFromContext(ctx context.Context) ([]string, bool) {
	v, ok := ctx.Value(ctxRoles).([]string)
	return v, ok && len(v) > 0
}

func HasRole(ctx context.Context, role string) bool {
	roles, ok := RolesFromContext(ctx)
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
