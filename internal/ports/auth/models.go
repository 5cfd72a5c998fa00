package auth

import "strings"

// Claims identifica al operador detrás de un request. TenantID es la instalación.
type Claims struct {
	UserID   string
	Email    string
	TenantID string
}

// Operator es el ID con el que se firman escrituras y se atan sesiones de consola.
func (c Claims) Operator() string {
	return strings.TrimSpace(c.UserID)
}
