package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Role is the authorization level the server assigns to a user
type Role string

const (
	RoleUser             Role = "user"
	RoleElectoralSection Role = "electoral_section"
	RoleAdmin            Role = "admin"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleElectoralSection, RoleAdmin:
		return true
	}
	return false
}

// ID is a server identifier. The API may send it as a string or a number.
type ID string

// UnmarshalJSON accepts both JSON strings and numbers
func (id *ID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", string(data), err)
	}
	*id = ID(n.String())
	return nil
}

// User is the server-owned account record, cached read-mostly by the client
type User struct {
	ID               ID     `json:"id"`
	Username         string `json:"username"`
	Email            string `json:"email"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	Phone            string `json:"phone"`
	Role             Role   `json:"role"`
	ElectoralSection *int   `json:"electoral_section,omitempty"`
	ProfilePhoto     string `json:"profile_photo,omitempty"`
}

// FullName returns "First Last"
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Handle returns the "@username" form
func (u *User) Handle() string {
	return "@" + u.Username
}

// Initials returns up to two upper-case initials for avatar placeholders
func (u *User) Initials() string {
	var b strings.Builder
	for _, part := range []string{u.FirstName, u.LastName} {
		if r := []rune(strings.TrimSpace(part)); len(r) > 0 {
			b.WriteString(strings.ToUpper(string(r[0])))
		}
	}
	if b.Len() == 0 && u.Username != "" {
		b.WriteString(strings.ToUpper(string([]rune(u.Username)[0])))
	}
	return b.String()
}

// HasSection reports whether the user is bound to an electoral section
func (u *User) HasSection() bool {
	return u.ElectoralSection != nil && *u.ElectoralSection != 0
}
