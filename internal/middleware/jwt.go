// internal/middleware/jwt.go
package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"brew-reviews/internal/models"
	"brew-reviews/internal/utils"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// Token expiration time - 24 hours
	tokenExpiration = 24 * time.Hour

	tokenIssuer = "brew-reviews-api"
)

// Claims carries the author snapshot that reviews and comments are stamped with.
type Claims struct {
	UserID string  `json:"user_id"`
	Name   string  `json:"name"`
	Email  string  `json:"email"`
	Avatar *string `json:"avatar,omitempty"`
	jwt.RegisteredClaims
}

// Author returns the claims as the author of a new review or comment.
func (c *Claims) Author() models.Author {
	return models.Author{
		UserID:     c.UserID,
		UserName:   c.Name,
		UserEmail:  c.Email,
		UserAvatar: c.Avatar,
	}
}

// GenerateToken signs a token for author, valid for 24 hours.
func GenerateToken(secret string, author models.Author) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: author.UserID,
		Name:   author.UserName,
		Email:  author.UserEmail,
		Avatar: author.UserAvatar,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenExpiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   author.UserID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateToken validates the provided JWT token
func ValidateToken(secret, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(secret), nil
		},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.UserID == "" {
		return nil, errors.New("token has no user id")
	}
	return claims, nil
}

// AuthMiddleware requires a valid bearer token and stores its claims in the
// request context.
func AuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, utils.NewUnauthorizedError("authorization header required"))
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				writeError(w, utils.NewUnauthorizedError("invalid authorization format"))
				return
			}

			claims, err := ValidateToken(secret, strings.TrimSpace(parts[1]))
			if err != nil {
				writeError(w, utils.NewAppError(utils.ErrInvalidToken, "Invalid or expired token", nil))
				return
			}

			next.ServeHTTP(w, r.WithContext(SetClaimsInContext(r.Context(), claims)))
		})
	}
}

// Define a custom context key type to avoid collisions
type contextKey string

// ClaimsKey is the key used to store the token claims in the context
const ClaimsKey contextKey = "claims"

// SetClaimsInContext saves the claims in the request context
func SetClaimsInContext(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}

// GetClaimsFromContext retrieves the claims from the context
func GetClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*Claims)
	return claims, ok && claims != nil
}
