package models

import "fmt"

// Role is the participant role inside a room. Stored uppercase, carried on
// the wire lowercase.
type Role string

// The two roles a room supports
const (
	RoleConsult Role = "CONSULT"
	RolePatient Role = "PATIENT"
)

// ParseRole converts the wire form ("consult"/"patient") to a Role
func ParseRole(s string) (Role, error) {
	switch s {
	case "consult":
		return RoleConsult, nil
	case "patient":
		return RolePatient, nil
	default:
		return "", fmt.Errorf("invalid role %q", s)
	}
}

// Label returns the wire form of the role, used in system notices
func (r Role) Label() string {
	switch r {
	case RoleConsult:
		return "consult"
	case RolePatient:
		return "patient"
	default:
		return string(r)
	}
}
