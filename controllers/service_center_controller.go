package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/repairhub/repairhub-api/config"
	"github.com/repairhub/repairhub-api/services"
)

func serviceCenterService() *services.ServiceCenterService {
	return services.NewServiceCenterService(config.GetDB(), serviceOptions())
}

// CreateServiceCenter handles POST /api/v1/service-centers (admins only)
func CreateServiceCenter(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req services.ServiceCenterInput
	if !bindJSON(c, &req) {
		return
	}

	center, err := serviceCenterService().Create(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, center)
}

// ListServiceCenters handles GET /api/v1/service-centers
func ListServiceCenters(c *gin.Context) {
	centers, err := serviceCenterService().List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, centers)
}

// GetServiceCenter handles GET /api/v1/service-centers/:id
func GetServiceCenter(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	center, err := serviceCenterService().Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, center)
}
