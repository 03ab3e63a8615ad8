package models

import "strings"

// SessionUser is the authenticated-user snapshot handed to the wizard when a
// session starts. Only patients may book appointments.
type SessionUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// IsPatient reports whether the user holds the patient role.
func (u SessionUser) IsPatient() bool {
	return strings.EqualFold(u.Role, "patient")
}
