// Package users holds the user model shared by the session, auth and admin
// surfaces.
package users

import "time"

// Role identifies the access level of a user account.
type Role string

const (
	RoleClient        Role = "Cliente"
	RoleAdministrator Role = "Administrador"
)

// Address is a postal address used for shipping and billing.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Code    string `json:"code"`
	Country string `json:"country"`
}

// User is the account profile returned by the API.
type User struct {
	ID                       int64     `json:"id"`
	Email                    string    `json:"email"`
	FirstName                string    `json:"firstName"`
	LastName                 string    `json:"lastName"`
	Role                     Role      `json:"role"`
	ShippingAddress          *Address  `json:"shippingAddress,omitempty"`
	BillingAddress           *Address  `json:"billingAddress,omitempty"`
	UseSameAddressForBilling bool      `json:"useSameAddressForBilling,omitempty"`
	CreatedAt                time.Time `json:"createdAt"`
	UpdatedAt                time.Time `json:"updatedAt"`
}

// FullName returns the display name for the user.
func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// IsAdmin reports whether the user may access the admin back-office.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdministrator
}
