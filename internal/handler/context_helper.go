package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/procure-mr-api/internal/middleware"
	"github.com/noah-isme/procure-mr-api/internal/models"
	appErrors "github.com/noah-isme/procure-mr-api/pkg/errors"
	"github.com/noah-isme/procure-mr-api/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.ClaimsFrom(c)
}

// requireClaims fetches the caller's claims, writing a 401 when absent. The
// bool reports whether the handler may proceed.
func requireClaims(c *gin.Context) (*models.JWTClaims, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	return claims, true
}

// bindJSON binds the request body into dest, writing a 400 with msg on
// failure. The bool reports whether binding succeeded.
func bindJSON(c *gin.Context, dest interface{}, msg string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, msg))
		return false
	}
	return true
}

// bindOptionalJSON binds the body only when one is present. Workflow
// endpoints accept an empty body for transitions without a note.
func bindOptionalJSON(c *gin.Context, dest interface{}) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	return bindJSON(c, dest, "invalid payload")
}

// clientMeta captures the caller's network identity for audit trails.
func clientMeta(c *gin.Context) models.LoginRequest {
	return models.LoginRequest{IP: c.ClientIP(), UserAgent: c.GetHeader("User-Agent")}
}

func businessUnitFromContext(c *gin.Context) string {
	if v, ok := c.Get(middleware.ContextBusinessUnitKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
