package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/repairhub/repairhub-api/config"
	"github.com/repairhub/repairhub-api/middleware"
	"github.com/repairhub/repairhub-api/services"
)

func userService() *services.UserService {
	return services.NewUserService(config.GetDB(), serviceOptions())
}

// CreateUser handles POST /api/v1/users - creates a new user from Auth0 userinfo
// This endpoint requires authentication and fetches user data from Auth0's /userinfo endpoint
func CreateUser(c *gin.Context) {
	// Get the Auth0 user ID from the validated JWT
	auth0ID, err := middleware.GetUserID(c)
	if err != nil {
		respondErrorCode(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user ID from token", nil)
		return
	}

	// Get the access token to call Auth0's /userinfo endpoint
	accessToken, err := middleware.GetAccessToken(c)
	if err != nil {
		respondErrorCode(c, http.StatusUnauthorized, "MISSING_TOKEN", "Access token not found", nil)
		return
	}

	userInfo, err := services.NewAuth0Service(config.GetConfig()).GetUserInfo(c.Request.Context(), accessToken)
	if err != nil {
		config.GetLogger().WithError(err).Warn("userinfo lookup failed")
		respondErrorCode(c, http.StatusBadGateway, "AUTH0_ERROR", "Failed to fetch user information from Auth0", nil)
		return
	}

	// The role claim defaults to customer when absent
	user, err := userService().Register(c.Request.Context(), auth0ID, *userInfo, middleware.GetRoleClaim(c))
	if err != nil {
		if errors.Is(err, services.ErrConflict) {
			respondErrorCode(c, http.StatusConflict, "USER_EXISTS", "A user with this Auth0 ID or email already exists", nil)
			return
		}
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, user)
}

// GetMyProfile handles GET /api/v1/users/me - gets current user's profile
func GetMyProfile(c *gin.Context) {
	auth0ID, err := middleware.GetUserID(c)
	if err != nil {
		respondErrorCode(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information", nil)
		return
	}

	user, err := userService().GetByAuth0ID(c.Request.Context(), auth0ID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			respondErrorCode(c, http.StatusNotFound, "USER_NOT_FOUND", "User profile not found. Please create a profile first.", nil)
			return
		}
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, user)
}

// UpdateMyProfile handles PUT /api/v1/users/me - updates current user's profile
func UpdateMyProfile(c *gin.Context) {
	auth0ID, err := middleware.GetUserID(c)
	if err != nil {
		respondErrorCode(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information", nil)
		return
	}

	var req services.ProfileInput
	if !bindJSON(c, &req) {
		return
	}

	user, err := userService().UpdateProfile(c.Request.Context(), auth0ID, req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			respondErrorCode(c, http.StatusNotFound, "USER_NOT_FOUND", "User profile not found", nil)
		case errors.Is(err, services.ErrConflict):
			respondErrorCode(c, http.StatusConflict, "EMAIL_EXISTS", "A user with this email already exists", nil)
		default:
			respondError(c, err)
		}
		return
	}
	respondData(c, http.StatusOK, user)
}

// SetStaff handles PUT /api/v1/users/:id/staff - sets a user's role and center (admins only)
func SetStaff(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req services.StaffInput
	if !bindJSON(c, &req) {
		return
	}

	user, err := userService().SetStaff(c.Request.Context(), actor, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, user)
}

// ListTechnicians handles GET /api/v1/technicians - technicians a booking can be assigned to
func ListTechnicians(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	users, err := userService().ListTechnicians(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, users)
}
