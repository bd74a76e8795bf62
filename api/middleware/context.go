package middleware

import "context"

type contextKey string

const (
	ctxUserID     contextKey = "user_id"
	ctxSessionKey contextKey = "session_key"
	ctxIsVendor   contextKey = "is_vendor"
	ctxIsStaff    contextKey = "is_staff"
)

// WithUserID seeds the authenticated user id, primarily for handler tests.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxUserID, userID)
}

// WithSessionKey seeds the anonymous session key, primarily for handler tests.
func WithSessionKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, ctxSessionKey, key)
}

// UserIDFromContext returns the authenticated user id or "".
func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

// SessionKeyFromContext returns the anonymous session key or "".
func SessionKeyFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxSessionKey).(string); ok {
		return v
	}
	return ""
}

// IsVendorFromContext reports whether the caller carries the vendor flag.
func IsVendorFromContext(ctx context.Context) bool {
	v, _ := ctx.Value(ctxIsVendor).(bool)
	return v
}

// IsStaffFromContext reports whether the caller carries the staff flag.
func IsStaffFromContext(ctx context.Context) bool {
	v, _ := ctx.Value(ctxIsStaff).(bool)
	return v
}
