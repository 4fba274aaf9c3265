package http

import (
	"context"

	"iotkit-rental-backend/internal/security"
	"iotkit-rental-backend/internal/service"
)

type contextKey string

const claimsKey contextKey = "account-claims"

func withClaims(ctx context.Context, claims *security.AccountClaims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// callerFromContext returns the authenticated account. ok is false on public
// routes.
func callerFromContext(ctx context.Context) (service.Caller, bool) {
	claims, ok := ctx.Value(claimsKey).(*security.AccountClaims)
	if !ok || claims == nil {
		return service.Caller{}, false
	}
	return service.Caller{
		AccountID: claims.AccountID,
		Email:     claims.Email,
		IsAdmin:   claims.HasRole(security.RoleAdmin),
	}, true
}
