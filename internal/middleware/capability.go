package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/ultraval/secure-desk-api/internal/models"
	"github.com/ultraval/secure-desk-api/internal/service"
	appErrors "github.com/ultraval/secure-desk-api/pkg/errors"
	"github.com/ultraval/secure-desk-api/pkg/response"
)

// RequireCapability gates a route on one capability. Routes never name
// roles directly; the grant table inside CapabilityService is the only
// place access rules live.
func RequireCapability(caps *service.CapabilityService, capability models.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims, ok := claimsValue.(*models.JWTClaims)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if !caps.Has(claims.Role, capability) {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "missing capability "+string(capability)))
			c.Abort()
			return
		}
		c.Next()
	}
}
