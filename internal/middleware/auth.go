package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// ContextDriverID is the gin context key holding the authenticated driver id.
const ContextDriverID = "driverID"

// Claims are the JWT claims issued to drivers and admins.
type Claims struct {
	DriverID string `json:"driverId"`
	Role     string `json:"role"` // driver or admin
	jwt.RegisteredClaims
}

// GenerateToken issues an HS256 token for a driver.
func GenerateToken(secret, driverID, role string) (string, error) {
	claims := &Claims{
		DriverID: driverID,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Auth validates the bearer token and stores the driver id on the context.
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := parseToken(c, secret)
		if !ok {
			return
		}

		c.Set(ContextDriverID, claims.DriverID)
		c.Next()
	}
}

// AdminOnly validates the bearer token and requires the admin role.
func AdminOnly(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := parseToken(c, secret)
		if !ok {
			return
		}
		if claims.Role != "admin" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":    http.StatusForbidden,
				"message": "Admin access required",
			})
			return
		}

		c.Set(ContextDriverID, claims.DriverID)
		c.Next()
	}
}

func parseToken(c *gin.Context, secret string) (*Claims, bool) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"code":    http.StatusUnauthorized,
			"message": "Missing bearer token",
		})
		return nil, false
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(strings.TrimPrefix(header, "Bearer "), claims,
		func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		})
	if err != nil || !token.Valid || claims.DriverID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"code":    http.StatusUnauthorized,
			"message": "Invalid token",
		})
		return nil, false
	}

	return claims, true
}
