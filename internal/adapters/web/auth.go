package web

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type actingUserKey struct{}

// actingUserFromContext returns the acting user stored in ctx, or "".
func actingUserFromContext(ctx context.Context) string {
	v, _ := ctx.Value(actingUserKey{}).(string)
	return v
}

// RequireActingUser resolves who is making a write and stores it in the request
// context. With a secret configured the caller must present an HS256 token
// (Authorization: Bearer, or the auth_token cookie) and the sub claim is used.
// Without one the X-Acting-User header is taken as given. Returns 401 when no
// acting user can be determined.
func (h *Handler) RequireActingUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var user string
		if h.jwtSecret == "" {
			user = strings.TrimSpace(r.Header.Get("X-Acting-User"))
		} else {
			raw := bearerToken(r)
			if raw == "" {
				writeError(w, r, "authentication required", "UNAUTHORIZED", http.StatusUnauthorized)
				return
			}
			sub, err := ParseToken(h.jwtSecret, raw)
			if err != nil {
				writeError(w, r, "invalid or expired token", "UNAUTHORIZED", http.StatusUnauthorized)
				return
			}
			user = sub
		}
		if user == "" {
			writeError(w, r, "acting user required", "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), actingUserKey{}, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	if cookie, err := r.Cookie("auth_token"); err == nil {
		return cookie.Value
	}
	return ""
}

// ParseToken validates an HS256 token and returns its subject.
func ParseToken(secret, raw string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("invalid token: %w", err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return claims.Subject, nil
}

// IssueToken signs an HS256 token for subject, valid for ttl. Operators use it
// to hand out tokens when no upstream identity provider is in place.
func IssueToken(secret, subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
