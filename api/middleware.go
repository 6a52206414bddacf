/*
middleware.go - Authentication and authorization middleware

PURPOSE:
  Turns a Bearer JWT into a ledger.Actor on the request context, and
  gates route groups by role. The ledger core never sees tokens; it is
  handed a verified Actor and trusts it.

TOKEN SHAPE:
  HMAC-signed (HS256) JWT with registered claim "sub" carrying the actor
  ID and a private claim "role" carrying cashier/manager/admin.

ROLE GATES:
  - Authenticate: any valid token
  - RequireManager: manager or admin (Role.CanAuthorize)
  - RequireAdmin: admin only (payroll disbursement, audit queries)

SEE ALSO:
  - server.go: where gates attach to route groups
  - ledger/types.go: Actor and Role
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/warp/custody-ledger/ledger"
)

type contextKey string

const actorKey contextKey = "actor"

// ActorFrom returns the authenticated actor stored by Authenticate.
// The bool is false only on routes without the middleware.
func ActorFrom(ctx context.Context) (ledger.Actor, bool) {
	a, ok := ctx.Value(actorKey).(ledger.Actor)
	return a, ok
}

// Claims is the JWT payload this service accepts.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator verifies Bearer tokens and issues them (dev tooling).
type Authenticator struct {
	secret []byte
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// IssueToken mints a token for the given actor. Used by tests and the
// dev login endpoint; production deployments sit behind a real IdP that
// signs with the shared secret.
func (a *Authenticator) IssueToken(actor ledger.Actor, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		Role: string(actor.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func (a *Authenticator) parse(tokenString string) (ledger.Actor, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return ledger.Actor{}, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return ledger.Actor{}, fmt.Errorf("invalid token")
	}
	role := ledger.Role(claims.Role)
	switch role {
	case ledger.RoleCashier, ledger.RoleManager, ledger.RoleAdmin:
	default:
		return ledger.Actor{}, fmt.Errorf("unknown role %q", claims.Role)
	}
	return ledger.Actor{ID: claims.Subject, Role: role}, nil
}

// Authenticate rejects requests without a valid Bearer token and stores
// the resulting Actor on the context.
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenString, found := strings.CutPrefix(header, "Bearer ")
		if !found || tokenString == "" {
			writeError(w, http.StatusUnauthorized, "Missing bearer token", nil)
			return
		}
		actor, err := a.parse(tokenString)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token", err)
			return
		}
		ctx := context.WithValue(r.Context(), actorKey, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireManager allows manager and admin roles through.
func RequireManager(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFrom(r.Context())
		if !ok || !actor.Role.CanAuthorize() {
			writeError(w, http.StatusForbidden, "Manager role required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin allows only the admin role through.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFrom(r.Context())
		if !ok || actor.Role != ledger.RoleAdmin {
			writeError(w, http.StatusForbidden, "Admin role required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
