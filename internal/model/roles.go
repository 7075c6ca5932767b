package model

import "strings"

type Role string

const (
	RoleAdviser   Role = "adviser"
	RolePresident Role = "president"
	RoleOfficer   Role = "officer"
	RoleMember    Role = "member"
)

var (
	AllRoles      = []Role{RoleAdviser, RolePresident, RoleOfficer, RoleMember}
	OperatorRoles = []Role{RoleAdviser, RolePresident, RoleOfficer}
)

// ParseRole normalizes a stored or submitted role string. Roles compare
// case-insensitively everywhere.
func ParseRole(s string) Role {
	return Role(strings.ToLower(strings.TrimSpace(s)))
}

func (r Role) Is(other Role) bool {
	return strings.EqualFold(string(r), string(other))
}

func (r Role) In(roles []Role) bool {
	for _, other := range roles {
		if r.Is(other) {
			return true
		}
	}
	return false
}

func (r Role) Known() bool {
	return r.In(AllRoles)
}

func (r Role) IsOperator() bool {
	return r.In(OperatorRoles)
}

// Actor is the server-verified identity every workflow operation runs as.
type Actor struct {
	UserID int64
	Role   Role
	ClubID int64
}
