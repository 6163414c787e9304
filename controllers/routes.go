package controllers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/repairhub/repairhub-api/middleware"
	"github.com/repairhub/repairhub-api/models"
)

// RegisterRoutes mounts the authenticated API under v1. authenticate
// validates the bearer token; everything past the user routes also
// needs a stored profile.
func RegisterRoutes(v1 *gin.RouterGroup, authenticate gin.HandlerFunc) {
	api := v1.Group("", authenticate)

	// Profile routes work before the caller has a profile
	api.POST("/users", CreateUser)
	api.GET("/users/me", GetMyProfile)
	api.PUT("/users/me", UpdateMyProfile)

	authed := api.Group("", middleware.ResolveActor(actorUsers{}))

	admin := middleware.RequireRole(models.RoleAdmin)
	technician := middleware.RequireRole(models.RoleTechnician)

	authed.PUT("/users/:id/staff", admin, SetStaff)
	authed.GET("/technicians", ListTechnicians)

	authed.POST("/service-centers", admin, CreateServiceCenter)
	authed.GET("/service-centers", ListServiceCenters)
	authed.GET("/service-centers/:id", GetServiceCenter)

	authed.POST("/bookings", CreateBooking)
	authed.GET("/bookings", ListBookings)
	authed.GET("/bookings/:id", GetBooking)
	authed.PUT("/bookings/:id", UpdateBooking)
	authed.DELETE("/bookings/:id", DeleteBooking)
	authed.PUT("/bookings/:id/cancel", CancelBooking)
	authed.PUT("/bookings/:id/start", technician, StartBooking)
	authed.PUT("/bookings/:id/complete", technician, CompleteBooking)
	authed.POST("/bookings/:id/service-center", admin, AssignServiceCenter)
	authed.GET("/technician/bookings", technician, ListTechnicianBookings)

	authed.GET("/assignments", ListAssignments)
	authed.GET("/assignments/:id", GetAssignment)
	authed.PUT("/assignments/:id/technician", AssignTechnician)
	authed.PUT("/assignments/:id/technician-job", AssignTechnicianWithJob)
	authed.POST("/assignments/:id/jobs", DeriveJob)

	authed.POST("/jobs", CreateJob)
	authed.GET("/jobs", ListJobs)
	authed.GET("/jobs/:id", GetJob)
	authed.PUT("/jobs/:id", UpdateJob)
	authed.DELETE("/jobs/:id", DeleteJob)
	authed.PUT("/jobs/:id/start", StartJob)
	authed.PUT("/jobs/:id/complete", CompleteJob)
	authed.PUT("/jobs/:id/cancel", CancelJob)

	authed.POST("/transport-requests", CreateTransportRequest)
	authed.GET("/transport-requests", ListTransportRequests)
	authed.GET("/transport-requests/:id", GetTransportRequest)
	authed.PUT("/transport-requests/:id", UpdateTransportRequest)
	authed.DELETE("/transport-requests/:id", admin, DeleteTransportRequest)
}

// actorUsers resolves profiles against the current database handle, so
// tests that swap the DB after routing still see their data.
type actorUsers struct{}

func (actorUsers) GetByAuth0ID(ctx context.Context, auth0ID string) (*models.User, error) {
	return userService().GetByAuth0ID(ctx, auth0ID)
}

var _ middleware.UserLookup = actorUsers{}
