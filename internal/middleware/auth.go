package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"quickbite/internal/models"
)

// AuthGuard validates the bearer token and injects userId and role into the
// context. With allowedRoles set, any other role gets a 403.
func AuthGuard(secret string, allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader("Authorization"))
		if raw == "" {
			// Browsers cannot set headers on websocket upgrades; those
			// requests carry the token in a query param instead.
			if token := strings.TrimSpace(c.Query("token")); token != "" {
				raw = "Bearer " + token
			}
		}
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		parts := strings.Split(raw, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		token, err := jwt.Parse(parts[1], func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		userIDValue, _ := claims["userId"].(string)
		userID, err := primitive.ObjectIDFromHex(strings.TrimSpace(userIDValue))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		role, _ := claims["role"].(string)
		if !models.ValidRole(role) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if len(allowedRoles) > 0 {
			match := false
			for _, r := range allowedRoles {
				if role == r {
					match = true
					break
				}
			}
			if !match {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
				return
			}
		}

		c.Set("userId", userID)
		c.Set("role", role)
		c.Next()
	}
}

// OwnerAuth allows only shop owners.
func OwnerAuth(secret string) gin.HandlerFunc {
	return AuthGuard(secret, models.RoleOwner)
}

// CourierAuth allows only couriers.
func CourierAuth(secret string) gin.HandlerFunc {
	return AuthGuard(secret, models.RoleCourier)
}
