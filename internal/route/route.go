// Package route defines the navigable sections of the application and
// the navigation history the root model moves through.
package route

import (
	"strings"

	"github.com/nhle/clinicdesk/internal/model"
)

// ID identifies a navigable section.
type ID string

const (
	Landing       ID = "landing"
	Admin         ID = "admin"
	Phlebotomist  ID = "phlebotomist"
	Clinician     ID = "clinician"
	Lab           ID = "lab"
	Pharmacy      ID = "pharmacy"
	Ultrasound    ID = "ultrasound"
	Notifications ID = "notifications"
)

// Route describes a section and who may see it.
type Route struct {
	ID    ID
	Title string

	// Roles lists the staff roles allowed into the section. An empty list
	// means any signed-in user.
	Roles []string

	// Public routes are never gated.
	Public bool
}

// table holds every route the application knows about. All role sections
// are gated, unlike the browser client where lab, pharmacy and ultrasound
// were left open.
var table = map[ID]Route{
	Landing:       {ID: Landing, Title: "Sign in", Public: true},
	Admin:         {ID: Admin, Title: "Administration", Roles: []string{model.RoleAdmin}},
	Phlebotomist:  {ID: Phlebotomist, Title: "Phlebotomy", Roles: []string{model.RolePhlebotomist}},
	Clinician:     {ID: Clinician, Title: "Clinic", Roles: []string{model.RoleClinician}},
	Lab:           {ID: Lab, Title: "Laboratory", Roles: []string{model.RoleLab}},
	Pharmacy:      {ID: Pharmacy, Title: "Pharmacy", Roles: []string{model.RolePharmacy}},
	Ultrasound:    {ID: Ultrasound, Title: "Ultrasound", Roles: []string{model.RoleUltrasound}},
	Notifications: {ID: Notifications, Title: "Notifications", Roles: []string{model.RoleAdmin}},
}

// order is the display order used by help and the command palette.
var order = []ID{
	Admin, Phlebotomist, Clinician, Lab, Pharmacy, Ultrasound, Notifications,
}

// Lookup returns the route registered under id.
func Lookup(id ID) (Route, bool) {
	r, ok := table[id]
	return r, ok
}

// Parse resolves a user-typed section name to a route ID.
func Parse(name string) (ID, bool) {
	id := ID(strings.ToLower(strings.TrimSpace(name)))
	_, ok := table[id]
	return id, ok
}

// Sections returns the gated routes in display order.
func Sections() []Route {
	out := make([]Route, 0, len(order))
	for _, id := range order {
		out = append(out, table[id])
	}
	return out
}

// HomeFor returns the default section for a role. Unknown roles land on
// the sign-in screen.
func HomeFor(role string) ID {
	switch role {
	case model.RoleAdmin:
		return Admin
	case model.RolePhlebotomist:
		return Phlebotomist
	case model.RoleClinician:
		return Clinician
	case model.RoleLab:
		return Lab
	case model.RolePharmacy:
		return Pharmacy
	case model.RoleUltrasound:
		return Ultrasound
	default:
		return Landing
	}
}
