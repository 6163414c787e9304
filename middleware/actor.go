package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/repairhub/repairhub-api/models"
	"github.com/repairhub/repairhub-api/services"
)

const actorKey = "actor"

// UserLookup finds the stored user for a verified Auth0 subject
type UserLookup interface {
	GetByAuth0ID(ctx context.Context, auth0ID string) (*models.User, error)
}

// ResolveActor loads the user behind the validated token and stores the
// resulting actor in the context. Callers without a profile are rejected.
func ResolveActor(users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth0ID, err := GetUserID(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "UNAUTHORIZED",
					"message": "Could not extract user information",
				},
			})
			return
		}

		user, err := users.GetByAuth0ID(c.Request.Context(), auth0ID)
		if err != nil {
			if errors.Is(err, services.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"success": false,
					"error": gin.H{
						"code":    "PROFILE_REQUIRED",
						"message": "User profile not found. Please create a profile first.",
					},
				})
				return
			}
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "SERVICE_UNAVAILABLE",
					"message": "Service temporarily unavailable, please try again",
				},
			})
			return
		}

		c.Set(actorKey, services.ActorFromUser(user))
		c.Next()
	}
}

// GetActor returns the actor stored by ResolveActor
func GetActor(c *gin.Context) (services.Actor, error) {
	value, exists := c.Get(actorKey)
	if !exists {
		return services.Actor{}, &AuthError{Code: "MISSING_ACTOR", Message: "Actor not found in context"}
	}

	actor, ok := value.(services.Actor)
	if !ok {
		return services.Actor{}, &AuthError{Code: "INVALID_ACTOR", Message: "Actor is not in the expected format"}
	}

	return actor, nil
}

// SetActor stores actor in the context (primarily for testing)
func SetActor(c *gin.Context, actor services.Actor) {
	c.Set(actorKey, actor)
}

// RequireRole rejects actors whose role is not one of roles
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := GetActor(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "UNAUTHORIZED",
					"message": "Could not resolve the calling user",
				},
			})
			return
		}

		for _, role := range roles {
			if actor.Role == role {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "Insufficient permissions to access this resource",
			},
		})
	}
}
