package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopfloor/board/backend/internal/services"
	"github.com/shopfloor/board/backend/internal/utils"
	"github.com/shopfloor/board/backend/pkg/response"
)

const (
	ContextUserID  = "user_id"
	ContextOrgID   = "org_id"
	ContextOrgRole = "org_role"
	ContextEmail   = "email"
)

// SessionRequired verifies the identity-provider token and stores the session in the context.
// A token without an active organization is rejected.
func SessionRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "authorization header required")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := utils.ParseToken(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		if claims.OrgID == "" {
			response.Unauthorized(c, "no active organization")
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID())
		c.Set(ContextOrgID, claims.OrgID)
		c.Set(ContextOrgRole, claims.OrgRole)
		c.Set(ContextEmail, claims.Email)

		c.Next()
	}
}

// AdminRequired allows only organization admins through.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !GetSession(c).IsOrgAdmin() {
			response.Forbidden(c, "admin access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetSession returns the session set by SessionRequired. Missing values stay empty,
// which Session.Validate rejects.
func GetSession(c *gin.Context) services.Session {
	return services.Session{
		UserID:         c.GetString(ContextUserID),
		OrganizationID: c.GetString(ContextOrgID),
		OrgRole:        c.GetString(ContextOrgRole),
	}
}

func GetEmail(c *gin.Context) string {
	return c.GetString(ContextEmail)
}
