package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/repairhub/repairhub-api/config"
	"github.com/repairhub/repairhub-api/models"
	"github.com/repairhub/repairhub-api/services"
)

func bookingService() *services.BookingService {
	return services.NewBookingService(config.GetDB(), serviceOptions())
}

// CreateBooking handles POST /api/v1/bookings - creates a repair request (customers only)
func CreateBooking(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req services.BookingInput
	if !bindJSON(c, &req) {
		return
	}

	booking, err := bookingService().Create(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, booking)
}

// ListBookings handles GET /api/v1/bookings - customers see their own, admins see all
// Admins may filter with ?status=
func ListBookings(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	filter := services.BookingFilter{Status: models.BookingStatus(c.Query("status"))}
	if filter.Status != "" && !filter.Status.IsValid() {
		respondErrorCode(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid status filter", nil)
		return
	}

	bookings, err := bookingService().List(c.Request.Context(), actor, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, bookings)
}

// GetBooking handles GET /api/v1/bookings/:id
func GetBooking(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	booking, err := bookingService().Get(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, booking)
}

// UpdateBooking handles PUT /api/v1/bookings/:id - edits an open booking
func UpdateBooking(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req services.BookingPatch
	if !bindJSON(c, &req) {
		return
	}

	booking, err := bookingService().Update(c.Request.Context(), actor, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, booking)
}

// CancelBooking handles PUT /api/v1/bookings/:id/cancel
func CancelBooking(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	booking, err := bookingService().Cancel(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, booking)
}

// DeleteBooking handles DELETE /api/v1/bookings/:id
func DeleteBooking(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := bookingService().Delete(c.Request.Context(), actor, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Booking deleted",
	})
}

// StartBooking handles PUT /api/v1/bookings/:id/start (technicians only)
func StartBooking(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	booking, err := bookingService().Start(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, booking)
}

// CompleteBooking handles PUT /api/v1/bookings/:id/complete (technicians only)
func CompleteBooking(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	booking, err := bookingService().Complete(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, booking)
}

// ListTechnicianBookings handles GET /api/v1/technician/bookings - the technician's worklist
func ListTechnicianBookings(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	bookings, err := bookingService().ListAssigned(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, bookings)
}
