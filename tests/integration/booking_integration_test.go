package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/repairhub/repairhub-api/config"
	"github.com/repairhub/repairhub-api/controllers"
	"github.com/repairhub/repairhub-api/models"
	"github.com/repairhub/repairhub-api/tests/testutil"
)

// BookingIntegrationTestSuite drives the booking workflow through the full router
type BookingIntegrationTestSuite struct {
	suite.Suite
	router *gin.Engine
	db     *gorm.DB

	customer   *models.User
	admin      *models.User
	technician *models.User
	staff      *models.User
	center     *models.ServiceCenter
}

// SetupSuite runs once before all tests
func (suite *BookingIntegrationTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	testutil.UseTestEnvironment(suite.T())

	log := logrus.New()
	log.SetOutput(io.Discard)
	config.SetLogger(log)
	config.SetConfig(&config.Config{GoEnv: "test", DBTimeout: 5 * time.Second})
}

// SetupTest runs before each test
func (suite *BookingIntegrationTestSuite) SetupTest() {
	suite.db = testutil.NewTestDB(suite.T())
	config.SetDB(suite.db)

	t := suite.T()
	suite.customer = testutil.CreateUser(t, suite.db, "auth0|customer", "Jane Doe", "jane@example.com", models.RoleCustomer)
	suite.admin = testutil.CreateUser(t, suite.db, "auth0|admin", "Ada Admin", "ada@example.com", models.RoleAdmin)
	suite.technician = testutil.CreateUser(t, suite.db, "auth0|tech", "Tom Tech", "tom@example.com", models.RoleTechnician)
	suite.center = testutil.CreateServiceCenter(t, suite.db, "Downtown Repairs", "1 Workshop Way, Springfield")
	suite.staff = testutil.CreateUser(t, suite.db, "auth0|staff", "Sam Staff", "sam@example.com", models.RoleServiceCenter)
	suite.NoError(suite.db.Model(suite.staff).Update("service_center_id", suite.center.ID).Error)

	suite.router = gin.New()
	controllers.RegisterRoutes(suite.router.Group("/api/v1"), testutil.BearerSubjectAuth)
}

// TearDownTest runs after each test
func (suite *BookingIntegrationTestSuite) TearDownTest() {
	config.SetDB(nil)
}

func (suite *BookingIntegrationTestSuite) request(method, path string, as *models.User, body interface{}) (int, map[string]interface{}) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		suite.Require().NoError(err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+as.Auth0ID)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	var response map[string]interface{}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response), "Response body: %s", w.Body.String())
	return w.Code, response
}

func data(response map[string]interface{}) map[string]interface{} {
	d, _ := response["data"].(map[string]interface{})
	return d
}

func errorCode(response map[string]interface{}) string {
	e, _ := response["error"].(map[string]interface{})
	code, _ := e["code"].(string)
	return code
}

func idOf(m map[string]interface{}) uint {
	return uint(m["id"].(float64))
}

func (suite *BookingIntegrationTestSuite) createBooking(days int) map[string]interface{} {
	status, response := suite.request(http.MethodPost, "/api/v1/bookings", suite.customer, map[string]interface{}{
		"name":           "Jane Doe",
		"email":          "jane@example.com",
		"phone":          "555-123-4567",
		"address":        "12 Main Street, Springfield",
		"service_type":   "washing_machine",
		"preferred_date": time.Now().AddDate(0, 0, days).Format(models.DateLayout),
		"preferred_time": "afternoon",
	})
	suite.Require().Equal(http.StatusCreated, status, "create booking: %v", response)
	return data(response)
}

// TestBookingWorkflow_AssignAndComplete walks a booking from request to completion
func (suite *BookingIntegrationTestSuite) TestBookingWorkflow_AssignAndComplete() {
	booking := suite.createBooking(2)
	bookingID := idOf(booking)
	assert.Equal(suite.T(), "pending", booking["status"])

	status, response := suite.request(http.MethodPost, fmt.Sprintf("/api/v1/bookings/%d/service-center", bookingID), suite.admin,
		map[string]interface{}{"service_center_id": suite.center.ID})
	suite.Require().Equal(http.StatusCreated, status, "%v", response)
	linkID := idOf(data(response))

	status, response = suite.request(http.MethodPut, fmt.Sprintf("/api/v1/assignments/%d/technician-job", linkID), suite.staff,
		map[string]interface{}{"technician_id": suite.technician.ID})
	suite.Require().Equal(http.StatusOK, status, "%v", response)
	job := data(response)["job"].(map[string]interface{})
	assert.Equal(suite.T(), "Pending", job["status"])
	assert.Equal(suite.T(), "washing_machine", job["appliance"])

	status, response = suite.request(http.MethodGet, fmt.Sprintf("/api/v1/bookings/%d", bookingID), suite.customer, nil)
	suite.Require().Equal(http.StatusOK, status)
	assert.Equal(suite.T(), "confirmed", data(response)["status"])
	assert.Equal(suite.T(), float64(suite.technician.ID), data(response)["technician_assigned"])

	status, _ = suite.request(http.MethodPut, fmt.Sprintf("/api/v1/bookings/%d/start", bookingID), suite.technician, nil)
	suite.Require().Equal(http.StatusOK, status)

	status, response = suite.request(http.MethodPut, fmt.Sprintf("/api/v1/bookings/%d/complete", bookingID), suite.technician, nil)
	suite.Require().Equal(http.StatusOK, status)
	assert.Equal(suite.T(), "completed", data(response)["status"])

	status, response = suite.request(http.MethodGet, fmt.Sprintf("/api/v1/assignments/%d", linkID), suite.admin, nil)
	suite.Require().Equal(http.StatusOK, status)
	assert.Equal(suite.T(), "completed", data(response)["status"])

	status, response = suite.request(http.MethodPut, fmt.Sprintf("/api/v1/bookings/%d", bookingID), suite.customer,
		map[string]interface{}{"description": "One more thing"})
	assert.Equal(suite.T(), http.StatusConflict, status)
	assert.Equal(suite.T(), "CONFLICT", errorCode(response))
}

// TestBookingWorkflow_CancelBlocksTechnician checks a cancelled booking stays out of reach
func (suite *BookingIntegrationTestSuite) TestBookingWorkflow_CancelBlocksTechnician() {
	bookingID := idOf(suite.createBooking(3))

	status, response := suite.request(http.MethodPost, fmt.Sprintf("/api/v1/bookings/%d/service-center", bookingID), suite.admin,
		map[string]interface{}{"service_center_id": suite.center.ID})
	suite.Require().Equal(http.StatusCreated, status)
	linkID := idOf(data(response))

	status, _ = suite.request(http.MethodPut, fmt.Sprintf("/api/v1/bookings/%d/cancel", bookingID), suite.customer, nil)
	suite.Require().Equal(http.StatusOK, status)

	status, response = suite.request(http.MethodPut, fmt.Sprintf("/api/v1/assignments/%d/technician", linkID), suite.admin,
		map[string]interface{}{"technician_id": suite.technician.ID})
	assert.Equal(suite.T(), http.StatusConflict, status)
	assert.Equal(suite.T(), "CONFLICT", errorCode(response))

	status, response = suite.request(http.MethodGet, fmt.Sprintf("/api/v1/assignments/%d", linkID), suite.admin, nil)
	suite.Require().Equal(http.StatusOK, status)
	assert.Equal(suite.T(), "assigned", data(response)["status"], "a failed assignment leaves the link untouched")
}

// TestBookingWorkflow_Visibility checks each role only reaches what it owns
func (suite *BookingIntegrationTestSuite) TestBookingWorkflow_Visibility() {
	bookingID := idOf(suite.createBooking(2))
	stranger := testutil.CreateUser(suite.T(), suite.db, "auth0|stranger", "Omar Ali", "omar@example.com", models.RoleCustomer)

	status, _ := suite.request(http.MethodGet, fmt.Sprintf("/api/v1/bookings/%d", bookingID), stranger, nil)
	assert.Equal(suite.T(), http.StatusNotFound, status)

	status, _ = suite.request(http.MethodPut, fmt.Sprintf("/api/v1/bookings/%d/start", bookingID), suite.technician, nil)
	assert.Equal(suite.T(), http.StatusNotFound, status, "unassigned technicians cannot see the booking")

	status, response := suite.request(http.MethodGet, "/api/v1/bookings", suite.admin, nil)
	suite.Require().Equal(http.StatusOK, status)
	assert.Len(suite.T(), response["data"], 1)
}

// TestJobAndTransportWorkflow covers a job created directly and moved to a workshop
func (suite *BookingIntegrationTestSuite) TestJobAndTransportWorkflow() {
	status, response := suite.request(http.MethodPost, "/api/v1/jobs", suite.technician, map[string]interface{}{
		"customer_name": "Lee Park",
		"appliance":     "dishwasher",
		"issue":         "Does not drain",
		"address":       "5 Elm Street, Springfield",
	})
	suite.Require().Equal(http.StatusCreated, status, "%v", response)
	jobID := idOf(data(response))
	assert.Equal(suite.T(), "Medium", data(response)["urgency"])

	status, response = suite.request(http.MethodPost, "/api/v1/transport-requests", suite.technician, map[string]interface{}{
		"job_id":            jobID,
		"service_center_id": suite.center.ID,
	})
	suite.Require().Equal(http.StatusCreated, status, "%v", response)
	requestID := idOf(data(response))

	for _, next := range []string{"Approved", "In Transit", "Delivered"} {
		status, response = suite.request(http.MethodPut, fmt.Sprintf("/api/v1/transport-requests/%d", requestID), suite.admin,
			map[string]interface{}{"status": next})
		suite.Require().Equal(http.StatusOK, status, "%s: %v", next, response)
		assert.Equal(suite.T(), next, data(response)["status"])
	}

	status, response = suite.request(http.MethodGet, "/api/v1/transport-requests", suite.staff, nil)
	suite.Require().Equal(http.StatusOK, status)
	assert.Len(suite.T(), response["data"], 1)

	status, _ = suite.request(http.MethodPut, fmt.Sprintf("/api/v1/jobs/%d/start", jobID), suite.technician, nil)
	suite.Require().Equal(http.StatusOK, status)
	status, response = suite.request(http.MethodPut, fmt.Sprintf("/api/v1/jobs/%d/complete", jobID), suite.technician, nil)
	suite.Require().Equal(http.StatusOK, status)
	assert.Equal(suite.T(), "Completed", data(response)["status"])
}

// TestBookingIntegrationTestSuite runs the test suite
func TestBookingIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(BookingIntegrationTestSuite))
}
