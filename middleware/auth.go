package middleware

import (
	"context"
	"net/http"
	"strings"

	"go-storefront/services"
	"go-storefront/utils"
)

// Key type for context
type contextKey string

const UserContextKey = contextKey("user")

type authResult struct {
	actor services.Actor
	err   error
}

// Authenticator verifies bearer tokens and resolves them into an Actor.
type Authenticator struct {
	tokens *utils.TokenMaker
	gate   *services.AdminGate
}

func NewAuthenticator(tokens *utils.TokenMaker, gate *services.AdminGate) *Authenticator {
	return &Authenticator{tokens: tokens, gate: gate}
}

// Authenticate attaches the caller identity to the context when an
// Authorization header is present. It never rejects a request itself;
// RequireAuth and RequireAdmin do that on the routes that need it.
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			annotateAccessLog(r, "")
			next.ServeHTTP(w, r)
			return
		}

		result := &authResult{}
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			result.err = utils.Unauthenticated("Invalid Authorization header format")
		} else if claims, err := a.tokens.VerifyJWT(parts[1]); err != nil {
			result.err = utils.Unauthenticated("Invalid token")
		} else {
			result.actor = a.gate.Actor(claims)
		}

		annotateAccessLog(r, result.actor.UID)
		ctx := context.WithValue(r.Context(), UserContextKey, result)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ActorFromContext returns the verified caller, if any.
func ActorFromContext(ctx context.Context) (services.Actor, bool) {
	result, ok := ctx.Value(UserContextKey).(*authResult)
	if !ok || result.err != nil {
		return services.Actor{}, false
	}
	return result.actor, true
}

func authError(ctx context.Context) error {
	if result, ok := ctx.Value(UserContextKey).(*authResult); ok && result.err != nil {
		return result.err
	}
	return utils.Unauthenticated("Authorization header missing")
}

// RequireAuth rejects requests without a valid token.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ActorFromContext(r.Context()); !ok {
			utils.WriteError(w, r, authError(r.Context()))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin ensures that the caller has admin privileges
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFromContext(r.Context())
		if !ok {
			utils.WriteError(w, r, authError(r.Context()))
			return
		}
		if !actor.Admin {
			utils.WriteError(w, r, utils.Forbidden("not authorized"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
