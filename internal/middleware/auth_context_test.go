package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"pet-run-board/internal/platform/logger"
	"pet-run-board/internal/ports/auth"
)

func echoOperator() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := OperatorID(r.Context())
		if !ok {
			id = "anonymous"
		}
		_, _ = w.Write([]byte(id))
	})
}

func TestAuthContextDevHeader(t *testing.T) {
	h := AuthContext(nil)(echoOperator())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(DebugOperatorHeader, " op-1 ")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "op-1", rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "anonymous", rec.Body.String())
}

func TestAuthContextVerifier(t *testing.T) {
	down := errors.New("iam timeout")
	verifier := auth.VerifierFunc(func(_ context.Context, token string) (auth.Claims, error) {
		switch token {
		case "good":
			return auth.Claims{UserID: "op-7"}, nil
		case "blank":
			return auth.Claims{UserID: " "}, nil
		case "down":
			return auth.Claims{}, down
		default:
			return auth.Claims{}, auth.ErrInvalidToken
		}
	})

	core, logs := observer.New(zap.DebugLevel)
	log := logger.New(logger.Options{Level: logger.Debug, Core: core})
	h := AuthContext(verifier, WithAuthLogger(log))(echoOperator())

	cases := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"valid bearer", "Bearer good", http.StatusOK, "op-7"},
		{"no credentials", "", http.StatusOK, "anonymous"},
		{"other scheme", "Basic abc", http.StatusOK, "anonymous"},
		{"rejected token", "Bearer forged", http.StatusUnauthorized, "invalid token\n"},
		{"claims without operator", "Bearer blank", http.StatusUnauthorized, "invalid token\n"},
		{"iam unavailable", "bearer down", http.StatusServiceUnavailable, "auth unavailable\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/boards/2026-10-14", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			// el header de dev no vale cuando hay IAM
			req.Header.Set(DebugOperatorHeader, "intruder")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.body, rec.Body.String())
		})
	}

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zap.WarnLevel, entries[0].Level)
	assert.Equal(t, "/boards/2026-10-14", entries[0].ContextMap()["path"])
	assert.Equal(t, zap.ErrorLevel, entries[2].Level)
	assert.Contains(t, entries[2].ContextMap()["error"], "iam timeout")
}
