// Package nav maps roles to visible navigation and switches between pages.
package nav

import (
	"electoral-app/internal/models"
)

// Page is a section of the main app
type Page string

const (
	PageProfile   Page = "profile"
	PageEmergency Page = "emergency"
	PageMessages  Page = "messages"
	PageAdmin     Page = "admin"
)

// Pages lists every page in navigation order
var Pages = []Page{PageProfile, PageEmergency, PageMessages, PageAdmin}

// ParsePage validates a page name
func ParsePage(name string) (Page, bool) {
	for _, p := range Pages {
		if string(p) == name {
			return p, true
		}
	}
	return "", false
}

// Label returns the navigation label of p
func (p Page) Label() string {
	switch p {
	case PageProfile:
		return "Perfil"
	case PageEmergency:
		return "Emergencia"
	case PageMessages:
		return "Mensajes"
	case PageAdmin:
		return "Admin"
	}
	return string(p)
}

// Screen is the top-level view
type Screen string

const (
	ScreenLoading Screen = "loading"
	ScreenAuth    Screen = "auth"
	ScreenMain    Screen = "main"
)

// Visibility is the set of navigation items shown for a role
type Visibility struct {
	Profile   bool
	Emergency bool
	Messages  bool
	Admin     bool
}

// VisibleNavigation returns the navigation items visible to role.
// Unknown roles see what a plain user sees.
func VisibleNavigation(role models.Role) Visibility {
	v := Visibility{Profile: true, Emergency: true}
	switch role {
	case models.RoleAdmin:
		v.Messages = true
		v.Admin = true
	case models.RoleElectoralSection:
		v.Messages = true
	}
	return v
}

// Shows reports whether page p is visible
func (v Visibility) Shows(p Page) bool {
	switch p {
	case PageProfile:
		return v.Profile
	case PageEmergency:
		return v.Emergency
	case PageMessages:
		return v.Messages
	case PageAdmin:
		return v.Admin
	}
	return false
}
