package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/procure-mr-api/pkg/errors"
	"github.com/noah-isme/procure-mr-api/pkg/response"
)

// ContextBusinessUnitKey is the gin context key storing the active business unit ID.
const ContextBusinessUnitKey = "businessUnit"

// BusinessUnitHeader carries the business unit selected by the client.
const BusinessUnitHeader = "X-Business-Unit"

type membershipChecker interface {
	IsMember(ctx context.Context, businessUnitID, userID string) (bool, error)
}

// BusinessUnitScope resolves the active business unit from the request header
// and verifies the caller belongs to it. Admin roles bypass the membership check.
func BusinessUnitScope(memberships membershipChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		businessUnitID := c.GetHeader(BusinessUnitHeader)
		if businessUnitID == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "missing X-Business-Unit header"))
			c.Abort()
			return
		}

		claims := ClaimsFrom(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if !claims.Role.IsAdmin() {
			member, err := memberships.IsMember(c.Request.Context(), businessUnitID, claims.UserID)
			if err != nil {
				response.Error(c, err)
				c.Abort()
				return
			}
			if !member {
				response.Error(c, appErrors.ErrBusinessUnitScope)
				c.Abort()
				return
			}
		}

		c.Set(ContextBusinessUnitKey, businessUnitID)
		c.Next()
	}
}
