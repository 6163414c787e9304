package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/repairhub/repairhub-api/config"
	"github.com/repairhub/repairhub-api/services"
)

func transportService() *services.TransportService {
	return services.NewTransportService(config.GetDB(), serviceOptions())
}

// CreateTransportRequest handles POST /api/v1/transport-requests
func CreateTransportRequest(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req services.TransportInput
	if !bindJSON(c, &req) {
		return
	}

	request, err := transportService().Create(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, request)
}

// ListTransportRequests handles GET /api/v1/transport-requests
func ListTransportRequests(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	requests, err := transportService().List(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, requests)
}

// GetTransportRequest handles GET /api/v1/transport-requests/:id
func GetTransportRequest(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	request, err := transportService().Get(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, request)
}

// UpdateTransportRequest handles PUT /api/v1/transport-requests/:id
func UpdateTransportRequest(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req services.TransportPatch
	if !bindJSON(c, &req) {
		return
	}

	request, err := transportService().Update(c.Request.Context(), actor, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, request)
}

// DeleteTransportRequest handles DELETE /api/v1/transport-requests/:id (admins only)
func DeleteTransportRequest(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := transportService().Delete(c.Request.Context(), actor, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Transport request deleted",
	})
}
