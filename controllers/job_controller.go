package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/repairhub/repairhub-api/config"
	"github.com/repairhub/repairhub-api/models"
	"github.com/repairhub/repairhub-api/services"
)

func jobService() *services.JobService {
	return services.NewJobService(config.GetDB(), serviceOptions())
}

// CreateJob handles POST /api/v1/jobs - technicians create their own jobs, admins name the technician
func CreateJob(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req services.JobInput
	if !bindJSON(c, &req) {
		return
	}

	job, err := jobService().Create(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, job)
}

// ListJobs handles GET /api/v1/jobs - optional ?status= filter
func ListJobs(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	filter := services.JobFilter{Status: models.JobStatus(c.Query("status"))}
	if filter.Status != "" && !filter.Status.IsValid() {
		respondErrorCode(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid status filter", nil)
		return
	}

	jobs, err := jobService().List(c.Request.Context(), actor, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, jobs)
}

// GetJob handles GET /api/v1/jobs/:id
func GetJob(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	job, err := jobService().Get(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, job)
}

// UpdateJob handles PUT /api/v1/jobs/:id
func UpdateJob(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req services.JobPatch
	if !bindJSON(c, &req) {
		return
	}

	job, err := jobService().Update(c.Request.Context(), actor, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, job)
}

// DeleteJob handles DELETE /api/v1/jobs/:id
func DeleteJob(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := jobService().Delete(c.Request.Context(), actor, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Job deleted",
	})
}

// StartJob handles PUT /api/v1/jobs/:id/start
func StartJob(c *gin.Context) {
	transitionJob(c, (*services.JobService).Start)
}

// CompleteJob handles PUT /api/v1/jobs/:id/complete
func CompleteJob(c *gin.Context) {
	transitionJob(c, (*services.JobService).Complete)
}

// CancelJob handles PUT /api/v1/jobs/:id/cancel
func CancelJob(c *gin.Context) {
	transitionJob(c, (*services.JobService).Cancel)
}

type jobTransition func(*services.JobService, context.Context, services.Actor, uint) (*models.Job, error)

func transitionJob(c *gin.Context, move jobTransition) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	job, err := move(jobService(), c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, job)
}
