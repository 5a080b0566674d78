package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	h "teamcalendar/internal/delivery/http/helpers"
	"teamcalendar/internal/domain"
)

type principalCtxKey struct{}

var (
	errNoAuthorization = errors.New("missing authorization header")
	errNotBearer       = errors.New("authorization scheme must be Bearer")
	errEmptyToken      = errors.New("missing token")
)

// SetPrincipal returns a copy of ctx carrying the authenticated caller.
func SetPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey{}, p)
}

// PrincipalFromContext returns the caller stored by RequireAuth.
func PrincipalFromContext(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalCtxKey{}).(domain.Principal)
	return p, ok
}

// OrganizationIDFromContext returns the tenant the caller acts in.
func OrganizationIDFromContext(ctx context.Context) (string, bool) {
	p, ok := PrincipalFromContext(ctx)
	if !ok || p.OrganizationID == "" {
		return "", false
	}
	return p.OrganizationID, true
}

// bearerToken extracts the token from "Authorization: Bearer <token>". The scheme is case-insensitive.
func bearerToken(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", errNoAuthorization
	}
	scheme, token, _ := strings.Cut(header, " ")
	if !strings.EqualFold(scheme, "Bearer") {
		return "", errNotBearer
	}
	if token = strings.TrimSpace(token); token == "" {
		return "", errEmptyToken
	}
	return token, nil
}

// RequireAuth wraps handlers that need a verified caller. Requests without a valid
// bearer token get 401 and never reach next.
func RequireAuth(verifier domain.TokenVerifier, logger *slog.Logger) func(http.HandlerFunc) http.HandlerFunc {
	unauthorized := func(w http.ResponseWriter, msg string) {
		w.Header().Set("WWW-Authenticate", `Bearer realm="teamcalendar"`)
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, msg)
	}

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil {
				unauthorized(w, err.Error())
				return
			}
			principal, err := verifier.Verify(token)
			if err != nil {
				logger.DebugContext(r.Context(), "token rejected",
					slog.String("path", r.URL.Path),
					slog.String("err", err.Error()),
				)
				unauthorized(w, "invalid or expired token")
				return
			}
			next(w, r.WithContext(SetPrincipal(r.Context(), principal)))
		}
	}
}
