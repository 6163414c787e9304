package testutil

import (
	"net/http"
	"strings"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"

	"github.com/repairhub/repairhub-api/middleware"
	"github.com/repairhub/repairhub-api/models"
	"github.com/repairhub/repairhub-api/services"
)

// MockValidatedClaims creates a mock ValidatedClaims for testing
func MockValidatedClaims(subject, issuer string, role models.Role, scopes []string) *validator.ValidatedClaims {
	return &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{
			Issuer:  issuer,
			Subject: subject,
		},
		CustomClaims: &middleware.CustomClaims{
			Scope: strings.Join(scopes, " "),
			Role:  string(role),
		},
	}
}

// SetMockAuthContext sets up the context the way EnsureValidToken does
func SetMockAuthContext(c *gin.Context, userID, issuer string, role models.Role, scopes []string) {
	c.Set("user_id", userID)
	c.Set("validated_claims", MockValidatedClaims(userID, issuer, role, scopes))
	c.Set("access_token", "mock-token-"+userID)
}

// MockAuth returns a middleware that authenticates every request as user.
// The resolved actor is set as well, so handlers behind ResolveActor work
// without a token round trip.
func MockAuth(user *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		SetMockAuthContext(c, user.Auth0ID, "https://test.auth0.com/", user.Role, nil)
		middleware.SetActor(c, services.ActorFromUser(user))
		c.Next()
	}
}

// BearerSubjectAuth stands in for EnsureValidToken in router tests: the
// bearer token is taken verbatim as the Auth0 subject. Requests without a
// token are rejected the way the real middleware rejects them.
func BearerSubjectAuth(c *gin.Context) {
	header := c.GetHeader("Authorization")
	subject := strings.TrimPrefix(header, "Bearer ")
	if subject == "" || subject == header {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_TOKEN",
				"message": "Failed to validate JWT.",
			},
		})
		return
	}
	SetMockAuthContext(c, subject, "https://test.auth0.com/", "", nil)
	c.Next()
}

// CreateTestContext creates a test Gin context
func CreateTestContext() (*gin.Context, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	c, engine := gin.CreateTestContext(nil)
	return c, engine
}
