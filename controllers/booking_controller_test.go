package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repairhub/repairhub-api/models"
	"github.com/repairhub/repairhub-api/services"
)

func TestCreateBooking(t *testing.T) {
	w := newWorld(t)

	booking := w.createBooking(t, futureDate(3))

	assert.Equal(t, models.BookingPending, booking.Status)
	assert.Equal(t, w.customer.ID, booking.CustomerID)
	assert.Equal(t, "+5551234567", booking.Phone)
	assert.NotEmpty(t, booking.BookingReference)
}

func TestCreateBooking_ValidationErrorListsFields(t *testing.T) {
	w := newWorld(t)
	router := routerAs(w.customer, http.MethodPost, "/bookings", CreateBooking)

	payload := bookingPayload(futureDate(3))
	payload["email"] = "not-an-email"
	payload["service_type"] = "toaster"

	rec, resp := doJSON(t, router, http.MethodPost, "/bookings", payload)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(resp))

	var fields []services.FieldError
	require.NoError(t, json.Unmarshal(resp.Error.Details, &fields))
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Field)
	}
	assert.ElementsMatch(t, []string{"email", "service_type"}, names)
}

func TestCreateBooking_MalformedJSON(t *testing.T) {
	w := newWorld(t)
	router := routerAs(w.customer, http.MethodPost, "/bookings", CreateBooking)

	rec, resp := doJSON(t, router, http.MethodPost, "/bookings", "just a string")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(resp))
}

func TestCreateBooking_DuplicateConflicts(t *testing.T) {
	w := newWorld(t)
	date := futureDate(4)
	w.createBooking(t, date)

	router := routerAs(w.customer, http.MethodPost, "/bookings", CreateBooking)
	rec, resp := doJSON(t, router, http.MethodPost, "/bookings", bookingPayload(date))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "CONFLICT", errorCode(resp))
}

func TestCreateBooking_StaffForbidden(t *testing.T) {
	w := newWorld(t)
	router := routerAs(w.technician, http.MethodPost, "/bookings", CreateBooking)

	rec, resp := doJSON(t, router, http.MethodPost, "/bookings", bookingPayload(futureDate(3)))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(resp))
}

func TestGetBooking_OtherCustomerSeesNotFound(t *testing.T) {
	w := newWorld(t)
	booking := w.createBooking(t, futureDate(3))
	path := fmt.Sprintf("/bookings/%d", booking.ID)

	rec, resp := doJSON(t, routerAs(w.stranger, http.MethodGet, "/bookings/:id", GetBooking), http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(resp))

	rec, _ = doJSON(t, routerAs(w.customer, http.MethodGet, "/bookings/:id", GetBooking), http.MethodGet, path, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetBooking_InvalidID(t *testing.T) {
	w := newWorld(t)
	router := routerAs(w.customer, http.MethodGet, "/bookings/:id", GetBooking)

	rec, resp := doJSON(t, router, http.MethodGet, "/bookings/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_ID", errorCode(resp))
}

func TestListBookings(t *testing.T) {
	w := newWorld(t)
	w.createBooking(t, futureDate(3))
	w.createBooking(t, futureDate(5))

	rec, resp := doJSON(t, routerAs(w.admin, http.MethodGet, "/bookings", ListBookings), http.MethodGet, "/bookings?status=pending", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var bookings []models.Booking
	decodeData(t, resp, &bookings)
	assert.Len(t, bookings, 2)

	rec, resp = doJSON(t, routerAs(w.admin, http.MethodGet, "/bookings", ListBookings), http.MethodGet, "/bookings?status=lost", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(resp))

	rec, resp = doJSON(t, routerAs(w.stranger, http.MethodGet, "/bookings", ListBookings), http.MethodGet, "/bookings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, resp, &bookings)
	assert.Empty(t, bookings)
}

func TestUpdateAndCancelBooking(t *testing.T) {
	w := newWorld(t)
	booking := w.createBooking(t, futureDate(3))
	path := fmt.Sprintf("/bookings/%d", booking.ID)

	router := routerAs(w.customer, http.MethodPut, "/bookings/:id", UpdateBooking)
	rec, resp := doJSON(t, router, http.MethodPut, path, map[string]interface{}{"description": "Now it leaks too"})
	require.Equal(t, http.StatusOK, rec.Code, "Response body: %s", rec.Body.String())
	var updated models.Booking
	decodeData(t, resp, &updated)
	assert.Equal(t, "Now it leaks too", updated.Description)

	router = routerAs(w.customer, http.MethodPut, "/bookings/:id/cancel", CancelBooking)
	rec, resp = doJSON(t, router, http.MethodPut, path+"/cancel", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, resp, &updated)
	assert.Equal(t, models.BookingCancelled, updated.Status)

	rec, resp = doJSON(t, router, http.MethodPut, path+"/cancel", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "CONFLICT", errorCode(resp))
}

func TestDeleteBooking(t *testing.T) {
	w := newWorld(t)
	booking := w.createBooking(t, futureDate(3))
	path := fmt.Sprintf("/bookings/%d", booking.ID)

	router := routerAs(w.customer, http.MethodDelete, "/bookings/:id", DeleteBooking)
	rec, resp := doJSON(t, router, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)

	rec, _ = doJSON(t, router, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBookingExecutionEndpoints(t *testing.T) {
	w := newWorld(t)
	booking := w.createBooking(t, futureDate(3))
	link := w.assign(t, booking.ID)

	router := routerAs(w.admin, http.MethodPut, "/assignments/:id/technician", AssignTechnician)
	rec, _ := doJSON(t, router, http.MethodPut, fmt.Sprintf("/assignments/%d/technician", link.ID),
		AssignTechnicianRequest{TechnicianID: w.technician.ID})
	require.Equal(t, http.StatusOK, rec.Code, "Response body: %s", rec.Body.String())

	rec, resp := doJSON(t, routerAs(w.technician, http.MethodGet, "/technician/bookings", ListTechnicianBookings),
		http.MethodGet, "/technician/bookings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var assigned []models.Booking
	decodeData(t, resp, &assigned)
	require.Len(t, assigned, 1)
	assert.Equal(t, booking.ID, assigned[0].ID)

	path := fmt.Sprintf("/bookings/%d", booking.ID)
	rec, resp = doJSON(t, routerAs(w.technician, http.MethodPut, "/bookings/:id/start", StartBooking), http.MethodPut, path+"/start", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var started models.Booking
	decodeData(t, resp, &started)
	assert.Equal(t, models.BookingInProgress, started.Status)

	rec, resp = doJSON(t, routerAs(w.technician, http.MethodPut, "/bookings/:id/complete", CompleteBooking), http.MethodPut, path+"/complete", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var completed models.Booking
	decodeData(t, resp, &completed)
	assert.Equal(t, models.BookingCompleted, completed.Status)

	rec, _ = doJSON(t, routerAs(w.customer, http.MethodDelete, "/bookings/:id", DeleteBooking), http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusConflict, rec.Code, "completed bookings cannot be deleted")
}

func TestHandlersRequireActor(t *testing.T) {
	router := setupTestRouter()
	router.GET("/bookings", ListBookings)

	rec, resp := doJSON(t, router, http.MethodGet, "/bookings", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", errorCode(resp))
}
