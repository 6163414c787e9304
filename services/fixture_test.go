package services_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/repairhub/repairhub-api/models"
	"github.com/repairhub/repairhub-api/services"
	"github.com/repairhub/repairhub-api/tests/testutil"
)

// testNow is the fixed clock every service test runs at
var testNow = time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)

type fixture struct {
	ctx         context.Context
	db          *gorm.DB
	bookings    *services.BookingService
	assignments *services.AssignmentService
	jobs        *services.JobService
	transport   *services.TransportService
	centers     *services.ServiceCenterService
	users       *services.UserService

	customer      *models.User
	otherCustomer *models.User
	admin         *models.User
	technician    *models.User
	otherTech     *models.User
	center        *models.ServiceCenter
	otherCenter   *models.ServiceCenter
	staff         *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewTestDB(t)
	log := logrus.New()
	log.SetOutput(io.Discard)
	opts := services.Options{Logger: log, Now: func() time.Time { return testNow }}

	f := &fixture{
		ctx:         context.Background(),
		db:          db,
		bookings:    services.NewBookingService(db, opts),
		assignments: services.NewAssignmentService(db, opts),
		jobs:        services.NewJobService(db, opts),
		transport:   services.NewTransportService(db, opts),
		centers:     services.NewServiceCenterService(db, opts),
		users:       services.NewUserService(db, opts),
	}

	f.customer = testutil.CreateUser(t, db, "auth0|customer", "Jane Doe", "jane@example.com", models.RoleCustomer)
	f.otherCustomer = testutil.CreateUser(t, db, "auth0|other", "Omar Ali", "omar@example.com", models.RoleCustomer)
	f.admin = testutil.CreateUser(t, db, "auth0|admin", "Ada Admin", "ada@example.com", models.RoleAdmin)
	f.technician = testutil.CreateUser(t, db, "auth0|tech", "Tom Tech", "tom@example.com", models.RoleTechnician)
	f.otherTech = testutil.CreateUser(t, db, "auth0|tech2", "Tia Tech", "tia@example.com", models.RoleTechnician)
	f.center = testutil.CreateServiceCenter(t, db, "Downtown Repairs", "1 Workshop Way, Springfield")
	f.otherCenter = testutil.CreateServiceCenter(t, db, "Uptown Repairs", "99 Hill Road, Shelbyville")

	f.staff = testutil.CreateUser(t, db, "auth0|staff", "Sam Staff", "sam@example.com", models.RoleServiceCenter)
	require.NoError(t, db.Model(f.staff).Update("service_center_id", f.center.ID).Error)
	f.staff.ServiceCenterID = &f.center.ID

	return f
}

func (f *fixture) asCustomer() services.Actor   { return services.Customer(f.customer.ID) }
func (f *fixture) asAdmin() services.Actor      { return services.Admin(f.admin.ID) }
func (f *fixture) asTechnician() services.Actor { return services.Technician(f.technician.ID) }
func (f *fixture) asStaff() services.Actor      { return services.ActorFromUser(f.staff) }

func validBookingInput() services.BookingInput {
	return services.BookingInput{
		Name:          "Jane Doe",
		Email:         "jane@example.com",
		Phone:         "(555) 123-4567",
		Address:       "12 Main Street, Springfield",
		ServiceType:   "refrigerator",
		PreferredDate: "2026-10-20",
		PreferredTime: "morning",
		Description:   "Fridge is not cooling",
	}
}

// createBooking stores a valid pending booking for the fixture customer
func (f *fixture) createBooking(t *testing.T) *models.Booking {
	t.Helper()

	booking, err := f.bookings.Create(f.ctx, f.asCustomer(), validBookingInput())
	require.NoError(t, err)
	return booking
}

// createBookingOn stores a valid pending booking for the fixture customer on date
func (f *fixture) createBookingOn(t *testing.T, date string) *models.Booking {
	t.Helper()

	input := validBookingInput()
	input.PreferredDate = date
	booking, err := f.bookings.Create(f.ctx, f.asCustomer(), input)
	require.NoError(t, err)
	return booking
}

// assignCenter routes a new booking to the fixture's main center
func (f *fixture) assignCenter(t *testing.T) (*models.Booking, *models.ServiceCenterBooking) {
	t.Helper()

	booking := f.createBooking(t)
	link, err := f.assignments.AssignServiceCenter(f.ctx, f.asAdmin(), booking.ID, f.center.ID)
	require.NoError(t, err)
	return booking, link
}

// confirmBooking walks a new booking through center and technician assignment
func (f *fixture) confirmBooking(t *testing.T) (*models.Booking, *models.ServiceCenterBooking) {
	t.Helper()

	_, link := f.assignCenter(t)
	result, err := f.assignments.AssignTechnician(f.ctx, f.asStaff(), link.ID, f.technician.ID)
	require.NoError(t, err)
	return result.Booking, result.Assignment
}

func (f *fixture) reloadBooking(t *testing.T, id uint) models.Booking {
	t.Helper()

	var booking models.Booking
	require.NoError(t, f.db.First(&booking, id).Error)
	return booking
}

func (f *fixture) reloadLink(t *testing.T, id uint) models.ServiceCenterBooking {
	t.Helper()

	var link models.ServiceCenterBooking
	require.NoError(t, f.db.First(&link, id).Error)
	return link
}

// fieldNames returns the fields named by a validation error
func fieldNames(t *testing.T, err error) []string {
	t.Helper()

	var verr *services.ValidationError
	require.ErrorAs(t, err, &verr)
	names := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		names = append(names, f.Field)
	}
	return names
}

func strPtr(s string) *string { return &s }

func uintPtr(u uint) *uint { return &u }
