package models

import (
	"github.com/google/uuid"
)

// Role controls what a user may do across the order pipeline.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleStaff    Role = "staff"
	RoleAdmin    Role = "admin"
)

// IsStaffOrAdmin reports whether the role may work on orders.
func (r Role) IsStaffOrAdmin() bool {
	return r == RoleStaff || r == RoleAdmin
}

// User represents a customer, staff member or admin.
type User struct {
	BaseModel
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	Phone        string  `gorm:"uniqueIndex" json:"phone"`
	Email        string  `json:"email"`
	Role         Role    `gorm:"index;default:customer" json:"role"`
	PasswordHash string  `json:"-"`
	IsActive     bool    `gorm:"default:true" json:"is_active"`
	Orders       []Order `gorm:"foreignKey:UserID" json:"orders,omitempty"`
}

// FullName joins first and last name for display.
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Actor is the authenticated identity attached to every mutating call.
// The core trusts the role claim and applies its own guards on top.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

// SystemActor marks transitions triggered by the system itself
// (payment verification, completeness checks) rather than a person.
func SystemActor() Actor {
	return Actor{ID: uuid.Nil, Role: RoleAdmin}
}
