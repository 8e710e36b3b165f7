package api

import (
	// Go Internal Packages
	"net/http"
	"slices"
	"strings"

	// Local Packages
	errors "e-wallet/errors"

	// External Packages
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	identityKey    = "phoneNumber"
	authoritiesKey = "authorities"

	// AuthorityViewAll lets a caller list the transfers of every user.
	AuthorityViewAll = "view-all-txn"
)

// Claims are the token claims the API reads.
type Claims struct {
	Authorities []string `json:"authorities,omitempty"`
	jwt.RegisteredClaims
}

// Resolver turns a bearer token into the phone number of the caller.
type Resolver struct {
	secret []byte
}

func NewResolver(secret string) *Resolver {
	return &Resolver{secret: []byte(secret)}
}

// Resolve validates tokenString and returns its claims. A token without subject is invalid.
func (r *Resolver) Resolve(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return r.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, errors.E(errors.Invalid, "invalid or expired token", err)
	}
	if claims.Subject == "" {
		return nil, errors.E(errors.Invalid, "token has no subject", nil)
	}
	return claims, nil
}

// Sign issues a token for phone. Used by tooling and tests; signup lives elsewhere.
func (r *Resolver) Sign(phone string, registered jwt.RegisteredClaims, authorities ...string) (string, error) {
	registered.Subject = phone
	claims := Claims{Authorities: authorities, RegisteredClaims: registered}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(r.secret)
}

func (r *Resolver) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			respondWithError(c, http.StatusUnauthorized, "Authorization header required")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			respondWithError(c, http.StatusUnauthorized, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := r.Resolve(parts[1])
		if err != nil {
			respondWithError(c, http.StatusUnauthorized, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set(identityKey, claims.Subject)
		c.Set(authoritiesKey, claims.Authorities)
		c.Next()
	}
}

// RequireAuthority rejects callers whose token does not grant authority.
func RequireAuthority(authority string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !slices.Contains(c.GetStringSlice(authoritiesKey), authority) {
			respondWithError(c, http.StatusForbidden, "Not allowed")
			c.Abort()
			return
		}
		c.Next()
	}
}

func identity(c *gin.Context) string {
	return c.GetString(identityKey)
}
