package model

import "strings"

// Staff roles known to the clinic API.
const (
	RoleAdmin        = "admin"
	RolePhlebotomist = "phlebotomist"
	RoleClinician    = "clinician"
	RoleLab          = "lab"
	RolePharmacy     = "pharmacy"
	RoleUltrasound   = "ultrasound"
)

// User is the signed-in staff member's profile.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// DisplayName returns the full name, falling back to the username.
func (u User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// HasRole reports whether the user's role is exactly one of roles.
func (u User) HasRole(roles ...string) bool {
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}
