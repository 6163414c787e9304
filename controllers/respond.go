package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/repairhub/repairhub-api/config"
	"github.com/repairhub/repairhub-api/middleware"
	"github.com/repairhub/repairhub-api/services"
)

// serviceOptions builds the options every service is created with
func serviceOptions() services.Options {
	opts := services.Options{Logger: config.GetLogger()}
	if cfg := config.GetConfig(); cfg != nil {
		opts.Timeout = cfg.DBTimeout
	}
	return opts
}

func respondData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

func respondErrorCode(c *gin.Context, status int, code, message string, details interface{}) {
	body := gin.H{
		"code":    code,
		"message": message,
	}
	if details != nil {
		body["details"] = details
	}
	c.JSON(status, gin.H{
		"success": false,
		"error":   body,
	})
}

// respondError maps a service error onto the response envelope
func respondError(c *gin.Context, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		respondErrorCode(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data", verr.Fields)
	case errors.Is(err, services.ErrNotFound):
		respondErrorCode(c, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, services.ErrConflict):
		respondErrorCode(c, http.StatusConflict, "CONFLICT", err.Error(), nil)
	case errors.Is(err, services.ErrForbidden):
		respondErrorCode(c, http.StatusForbidden, "FORBIDDEN", err.Error(), nil)
	default:
		config.GetLogger().WithError(err).WithField("path", c.Request.URL.Path).Error("request failed")
		respondErrorCode(c, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Service temporarily unavailable, please try again", nil)
	}
}

// bindJSON decodes the request body, answering 400 itself on failure
func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		respondErrorCode(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data", err.Error())
		return false
	}
	return true
}

// pathID parses a numeric path parameter, answering 400 itself on failure
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondErrorCode(c, http.StatusBadRequest, "INVALID_ID", "Invalid "+name+" parameter", nil)
		return 0, false
	}
	return uint(id), true
}

// currentActor returns the resolved caller, answering 401 itself when missing
func currentActor(c *gin.Context) (services.Actor, bool) {
	actor, err := middleware.GetActor(c)
	if err != nil {
		respondErrorCode(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information", nil)
		return services.Actor{}, false
	}
	return actor, true
}
