package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Actor identifies the authenticated caller of a mutating request.
type Actor struct {
	PlayerID string
	Role     string
}

// IsAdmin reports whether the actor may call administrative routes.
func (a Actor) IsAdmin() bool {
	return a.Role == "admin"
}

// Claims is the JWT payload issued to league members.
type Claims struct {
	PlayerID string `json:"player_id"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type contextKey string

const actorContextKey contextKey = "actor"

// ActorFromContext returns the authenticated actor, if any.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorContextKey).(Actor)
	return actor, ok
}

// Middleware wraps a handler func with a cross-cutting concern.
type Middleware func(http.HandlerFunc) http.HandlerFunc

// ActorMiddleware validates the bearer token and stores the actor in the
// request context. A nil secret disables validation entirely so local
// development works without issuing tokens.
func ActorMiddleware(secret []byte) Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		if len(secret) == 0 {
			return next
		}
		return func(w http.ResponseWriter, r *http.Request) {
			actor, err := actorFromRequest(r, secret)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized", err)
				return
			}
			next(w, r.WithContext(context.WithValue(r.Context(), actorContextKey, actor)))
		}
	}
}

// AdminMiddleware additionally requires the admin role.
func AdminMiddleware(secret []byte) Middleware {
	actor := ActorMiddleware(secret)
	return func(next http.HandlerFunc) http.HandlerFunc {
		if len(secret) == 0 {
			return next
		}
		return actor(func(w http.ResponseWriter, r *http.Request) {
			a, ok := ActorFromContext(r.Context())
			if !ok || !a.IsAdmin() {
				writeError(w, http.StatusForbidden, "forbidden", NewKind("admin gate", ErrForbidden))
				return
			}
			next(w, r)
		})
	}
}

func actorFromRequest(r *http.Request, secret []byte) (Actor, error) {
	header := r.Header.Get("Authorization")
	raw, found := strings.CutPrefix(header, "Bearer ")
	if !found || raw == "" {
		return Actor{}, NewKind("missing bearer token", ErrUnauthorized)
	}

	claims := new(Claims)
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, NewKind("unexpected signing method", ErrUnauthorized)
		}
		return secret, nil
	})
	if err != nil {
		return Actor{}, WrapKind("parse token", ErrUnauthorized, err)
	}
	if !token.Valid {
		return Actor{}, NewKind("invalid token", ErrUnauthorized)
	}

	return Actor{PlayerID: claims.PlayerID, Role: claims.Role}, nil
}

// IssueToken signs an actor token. Used by the seeder and by tests.
func IssueToken(secret []byte, claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", Wrap("sign token", err)
	}
	return signed, nil
}
