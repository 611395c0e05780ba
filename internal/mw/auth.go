package mw

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const OrgCtxKey contextKey = "organization_id"

const tokenTTL = 24 * time.Hour

// NewToken signs a bearer token for the organization.
func NewToken(secret, orgID string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"organization_id": orgID,
		"exp":             jwt.NewNumericDate(time.Now().Add(tokenTTL)),
	})
	return token.SignedString([]byte(secret))
}

// OrganizationID returns the id set by AuthMiddleware.
func OrganizationID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(OrgCtxKey).(string)
	return id, ok && id != ""
}

func AuthMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "invalid token format", http.StatusUnauthorized)
				return
			}

			token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, errors.New("unexpected signing method")
				}
				return []byte(jwtSecret), nil
			})

			if err != nil || !token.Valid {
				http.Error(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				http.Error(w, "invalid claims", http.StatusInternalServerError)
				return
			}

			orgID, ok := claims["organization_id"].(string)
			if !ok || orgID == "" {
				http.Error(w, "organization_id not found in token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), OrgCtxKey, orgID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
