package services

import "github.com/repairhub/repairhub-api/models"

// Actor is the already-authenticated caller of a service operation.
// Customers act on their own bookings; staff act according to their role.
type Actor struct {
	ID   uint
	Role models.Role
	// ServiceCenterID is the center operated by service-center staff
	ServiceCenterID *uint
}

// Customer returns the actor for a customer
func Customer(id uint) Actor {
	return Actor{ID: id, Role: models.RoleCustomer}
}

// Admin returns the actor for an administrator
func Admin(id uint) Actor {
	return Actor{ID: id, Role: models.RoleAdmin}
}

// Technician returns the actor for a technician
func Technician(id uint) Actor {
	return Actor{ID: id, Role: models.RoleTechnician}
}

// Staff returns the actor for a staff member with the given role
func Staff(id uint, role models.Role) Actor {
	return Actor{ID: id, Role: role}
}

// ServiceCenterStaff returns the actor for a user operating centerID
func ServiceCenterStaff(id, centerID uint) Actor {
	return Actor{ID: id, Role: models.RoleServiceCenter, ServiceCenterID: &centerID}
}

// ActorFromUser derives the actor for a stored user
func ActorFromUser(u *models.User) Actor {
	return Actor{ID: u.ID, Role: u.Role, ServiceCenterID: u.ServiceCenterID}
}

func (a Actor) IsCustomer() bool      { return a.Role == models.RoleCustomer }
func (a Actor) IsAdmin() bool         { return a.Role == models.RoleAdmin }
func (a Actor) IsTechnician() bool    { return a.Role == models.RoleTechnician }
func (a Actor) IsServiceCenter() bool { return a.Role == models.RoleServiceCenter }

// operatesCenter reports whether a service-center actor runs centerID
func (a Actor) operatesCenter(centerID uint) bool {
	return a.IsServiceCenter() && a.ServiceCenterID != nil && *a.ServiceCenterID == centerID
}
