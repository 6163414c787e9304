package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/repairhub/repairhub-api/config"
	"github.com/repairhub/repairhub-api/services"
)

// AssignServiceCenterRequest names the center a booking is routed to
type AssignServiceCenterRequest struct {
	ServiceCenterID uint `json:"service_center_id" binding:"required"`
}

// AssignTechnicianRequest names the technician bound to an assignment
type AssignTechnicianRequest struct {
	TechnicianID uint `json:"technician_id" binding:"required"`
}

func assignmentService() *services.AssignmentService {
	return services.NewAssignmentService(config.GetDB(), serviceOptions())
}

// AssignServiceCenter handles POST /api/v1/bookings/:id/service-center (admins only)
func AssignServiceCenter(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	bookingID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req AssignServiceCenterRequest
	if !bindJSON(c, &req) {
		return
	}

	link, err := assignmentService().AssignServiceCenter(c.Request.Context(), actor, bookingID, req.ServiceCenterID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, link)
}

// ListAssignments handles GET /api/v1/assignments
func ListAssignments(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	links, err := assignmentService().List(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, links)
}

// GetAssignment handles GET /api/v1/assignments/:id
func GetAssignment(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	link, err := assignmentService().Get(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, link)
}

// AssignTechnician handles PUT /api/v1/assignments/:id/technician
func AssignTechnician(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req AssignTechnicianRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := assignmentService().AssignTechnician(c.Request.Context(), actor, id, req.TechnicianID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, result)
}

// AssignTechnicianWithJob handles PUT /api/v1/assignments/:id/technician-job
// Assigns the technician and derives their job in one step
func AssignTechnicianWithJob(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req AssignTechnicianRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := assignmentService().AssignTechnicianWithJob(c.Request.Context(), actor, id, req.TechnicianID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, result)
}

// DeriveJob handles POST /api/v1/assignments/:id/jobs
func DeriveJob(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req AssignTechnicianRequest
	if !bindJSON(c, &req) {
		return
	}

	job, err := assignmentService().DeriveJobFromAssignment(c.Request.Context(), actor, id, req.TechnicianID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, job)
}
