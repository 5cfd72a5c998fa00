package iam

import (
	"context"
	"fmt"
	"strings"

	"pet-run-board/internal/ports/auth"
)

var ErrTokenEmpty = fmt.Errorf("token is empty: %w", auth.ErrInvalidToken)

// Verifier implementa auth.AuthVerifier contra el IAM. El middleware decide 401.
type Verifier struct {
	client *Client
}

func NewVerifier(client *Client) *Verifier {
	return &Verifier{client: client}
}

func (v *Verifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	if v == nil || v.client == nil {
		return auth.Claims{}, ErrNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrTokenEmpty
	}

	claims, err := v.client.VerifyToken(ctx, token)
	if err != nil {
		return auth.Claims{}, fmt.Errorf("iam verify failed: %w", err)
	}
	return claims, nil
}
