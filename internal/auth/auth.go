package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

// Role decides what a connection may do at a table.
type Role string

const (
	RolePlayer    Role = "player"
	RoleSpectator Role = "spectator"
)

// ContextKey is where AuthMiddleware stores the parsed claims.
const ContextKey = "table_claims"

var ErrInvalidToken = errors.New("invalid token")

// Claims identify a participant at one table.
type Claims struct {
	TableToken string
	PlayerID   string
	Role       Role
	ExpiresAt  time.Time
}

// CanSteer reports whether the holder may send input to the table.
func (c *Claims) CanSteer() bool {
	return c.Role == RolePlayer
}

// ParseRole maps a request value to a role; empty means player.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case "", RolePlayer:
		return RolePlayer, nil
	case RoleSpectator:
		return RoleSpectator, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// IssueToken signs an HS256 token for a participant.
func IssueToken(secret, tableToken, playerID string, role Role, ttl time.Duration) (string, error) {
	exp := time.Now().Add(ttl)
	custom := jwt.MapClaims{
		"table": tableToken,
		"sub":   playerID,
		"role":  string(role),
		"exp":   jwt.NewNumericDate(exp).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, custom)
	return token.SignedString([]byte(secret))
}

// ParseToken validates signature and expiry and returns the claims.
func ParseToken(secret, raw string) (*Claims, error) {
	parsed, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	mc, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	table, _ := mc["table"].(string)
	sub, _ := mc["sub"].(string)
	roleStr, _ := mc["role"].(string)
	expf, _ := mc["exp"].(float64)
	if table == "" || sub == "" {
		return nil, ErrInvalidToken
	}
	role, err := ParseRole(roleStr)
	if err != nil {
		return nil, ErrInvalidToken
	}

	return &Claims{
		TableToken: table,
		PlayerID:   sub,
		Role:       role,
		ExpiresAt:  time.Unix(int64(expf), 0),
	}, nil
}

// AuthMiddleware validates the bearer JWT and checks it was issued for the :token table.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		claims, err := ParseToken(secret, strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if t := c.Param("token"); t != "" && t != claims.TableToken {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "token not valid for this table"})
			return
		}

		c.Set(ContextKey, claims)
		c.Next()
	}
}

// RequirePlayer rejects spectators. Use after AuthMiddleware.
func RequirePlayer() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := FromContext(c)
		if claims == nil || !claims.CanSteer() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "spectators cannot do that"})
			return
		}
		c.Next()
	}
}

// FromContext returns the claims set by AuthMiddleware, or nil.
func FromContext(c *gin.Context) *Claims {
	v, ok := c.Get(ContextKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*Claims)
	return claims
}
