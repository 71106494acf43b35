package models

import (
	"time"
)

// Role is the closed set of marketplace roles.
type Role string

const (
	RoleFarmer Role = "Farmer"
	RoleMiller Role = "Miller"
	RoleAdmin  Role = "Admin"
)

// Roles lists every valid role.
var Roles = []Role{RoleFarmer, RoleMiller, RoleAdmin}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// AccountStatus gates whether a user may log in. Only administrators change it.
type AccountStatus string

const (
	AccountPending   AccountStatus = "Pending"
	AccountActive    AccountStatus = "Active"
	AccountSuspended AccountStatus = "Suspended"
)

func (s AccountStatus) Valid() bool {
	switch s {
	case AccountPending, AccountActive, AccountSuspended:
		return true
	}
	return false
}

// GeoPoint is a GeoJSON point; Coordinates are [longitude, latitude].
type GeoPoint struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

type ProfileContact struct {
	Phone string `json:"phone,omitempty"`
}

type ProfileLocation struct {
	District    string    `json:"district,omitempty"`
	GeoLocation *GeoPoint `json:"geoLocation,omitempty"`
}

// Profile is stored as a single JSONB document on the users table.
type Profile struct {
	Name     string          `json:"name"`
	Contact  ProfileContact  `json:"contact"`
	Location ProfileLocation `json:"location"`
}

type User struct {
	ID               string
	Username         string
	Email            string
	PasswordHash     string
	Role             Role
	Profile          Profile
	AccountStatus    AccountStatus
	RegistrationDate time.Time
	UpdatedAt        time.Time
}

// UserSummary is the owner view attached to mills in admin listings.
type UserSummary struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}
