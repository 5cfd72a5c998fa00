package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"

	"pet-run-board/internal/platform/logger"
	"pet-run-board/internal/ports/auth"
)

// DebugOperatorHeader identifica al operador cuando no hay IAM (modo dev).
const DebugOperatorHeader = "X-Debug-User-ID"

type ctxKey string

const claimsKey ctxKey = "claims"

type AuthOption func(*authConfig)

type authConfig struct {
	log logger.Logger
}

func WithAuthLogger(log logger.Logger) AuthOption {
	return func(c *authConfig) {
		if log != nil {
			c.log = log
		}
	}
}

// AuthContext resuelve el operador del request.
//
// Sin verifier toma DebugOperatorHeader. Con verifier, un Bearer válido setea claims;
// uno rechazado corta con 401 y un IAM caído con 503. Sin credenciales el request
// sigue anónimo y cada handler decide si exige operador.
func AuthContext(verifier auth.AuthVerifier, opts ...AuthOption) func(http.Handler) http.Handler {
	cfg := authConfig{log: logger.NewNop()}
	for _, o := range opts {
		o(&cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if verifier == nil {
				if uid := strings.TrimSpace(r.Header.Get(DebugOperatorHeader)); uid != "" {
					next.ServeHTTP(w, withClaims(r, auth.Claims{UserID: uid}))
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := verifier.Verify(r.Context(), token)
			if err == nil && claims.Operator() == "" {
				err = auth.ErrInvalidToken
			}
			if err != nil {
				fields := map[string]any{
					"path":       r.URL.Path,
					"request_id": chimw.GetReqID(r.Context()),
					"error":      err.Error(),
				}
				if errors.Is(err, auth.ErrInvalidToken) {
					cfg.log.Warn("bearer token rejected", fields)
					http.Error(w, "invalid token", http.StatusUnauthorized)
					return
				}
				cfg.log.Error("token verification unavailable", fields)
				http.Error(w, "auth unavailable", http.StatusServiceUnavailable)
				return
			}

			next.ServeHTTP(w, withClaims(r, claims))
		})
	}
}

func withClaims(r *http.Request, c auth.Claims) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), claimsKey, c))
}

func GetClaims(ctx context.Context) (auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(auth.Claims)
	return c, ok
}

// OperatorID devuelve el operador autenticado; false si el request es anónimo.
func OperatorID(ctx context.Context) (string, bool) {
	c, ok := GetClaims(ctx)
	if !ok || c.Operator() == "" {
		return "", false
	}
	return c.Operator(), true
}

func bearerToken(authHeader string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(authHeader), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
