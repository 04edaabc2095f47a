package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	utils "ashasetu-backend/shared/utils/auth"
	"ashasetu-backend/shared/utils/response"
)

// AuthMiddleware verifies the bearer token and sets the caller's identity in
// the request context. A missing header is reported distinctly from a
// rejected token.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Error(c, http.StatusUnauthorized, "Access token is missing")
			c.Abort()
			return
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			response.Error(c, http.StatusUnauthorized, "Invalid authorization format. Expected Bearer {token}")
			c.Abort()
			return
		}

		claims, err := utils.ValidateJWT(tokenParts[1])
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "Invalid or expired token")
			c.Abort()
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "Invalid user ID in token")
			c.Abort()
			return
		}

		c.Set("userID", userID)
		c.Set("userEmail", claims.Email)
		c.Set("isAdmin", claims.IsAdmin)

		c.Next()
	}
}

// CallerID returns the authenticated user's id from the context.
func CallerID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get("userID"); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

// CallerIsAdmin reports whether the authenticated user carries the admin flag.
func CallerIsAdmin(c *gin.Context) bool {
	if v, ok := c.Get("isAdmin"); ok {
		if isAdmin, ok := v.(bool); ok {
			return isAdmin
		}
	}
	return false
}
