package auth

import (
	"context"
	"errors"
)

// ErrInvalidToken: el token no corresponde a ningún operador (401).
// Cualquier otro error de Verify se toma como IAM no disponible.
var ErrInvalidToken = errors.New("invalid token")

type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}

// VerifierFunc adapta una función a AuthVerifier.
type VerifierFunc func(ctx context.Context, token string) (Claims, error)

func (f VerifierFunc) Verify(ctx context.Context, token string) (Claims, error) {
	return f(ctx, token)
}
