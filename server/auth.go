package server

import (
	"net/http"
	"strings"

	gojwt "github.com/golang-jwt/jwt/v5"

	"map-editor/services"
)

const adminRole = "admin"

// Authenticator checks HS256 bearer tokens on the mutating routes
type Authenticator struct {
	secret []byte
}

// NewAuthenticator returns an authenticator for secret. An empty secret lets every request through.
func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// Enabled reports whether tokens are checked
func (a *Authenticator) Enabled() bool {
	return len(a.secret) > 0
}

// RequireAdmin rejects requests without a valid admin token. The token subject becomes the
// actor recorded in the audit columns.
func (a *Authenticator) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !a.Enabled() {
			next(w, r)
			return
		}

		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeJSON(w, http.StatusUnauthorized, errorBody("missing bearer token"))
			return
		}
		claims, err := a.Parse(raw)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorBody("invalid token"))
			return
		}
		if role, _ := claims["role"].(string); role != adminRole {
			writeJSON(w, http.StatusForbidden, errorBody("admin role required"))
			return
		}

		subject, _ := claims.GetSubject()
		next(w, r.WithContext(services.WithActor(r.Context(), subject)))
	}
}

// Parse verifies raw and returns its claims
func (a *Authenticator) Parse(raw string) (gojwt.MapClaims, error) {
	parser := gojwt.NewParser(gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}))
	token, err := parser.Parse(raw, func(*gojwt.Token) (any, error) {
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}
	return token.Claims.(gojwt.MapClaims), nil
}

// Sign issues a token for subject carrying role
func (a *Authenticator) Sign(subject, role string) (string, error) {
	token := gojwt.NewWithClaims(gojwt.SigningMethodHS256, gojwt.MapClaims{
		"sub":  subject,
		"role": role,
	})
	return token.SignedString(a.secret)
}
