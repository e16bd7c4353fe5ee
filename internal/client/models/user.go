package models

import (
	"fmt"
	"strings"
)

// Role is the fixed set of account roles the backend hands out.
type Role string

const (
	RoleAdmin           Role = "admin"
	RoleStudent         Role = "student"
	RoleDAF             Role = "daf"
	RoleCommunications  Role = "communications"
	RoleAcademic        Role = "academic"
	RoleIT              Role = "it"
	RoleHumanResources  Role = "humanResources"
	RoleAdmissions      Role = "admissions"
	RoleStudentServices Role = "studentServices"
)

var roles = []Role{
	RoleAdmin, RoleStudent, RoleDAF, RoleCommunications, RoleAcademic,
	RoleIT, RoleHumanResources, RoleAdmissions, RoleStudentServices,
}

// ParseRole matches s against the known roles ignoring case and the
// "_"/"-" separators some backend versions use (human_resources).
func ParseRole(s string) (Role, error) {
	key := strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.ToLower(s))
	for _, r := range roles {
		if strings.ToLower(string(r)) == key {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// User is the minimal profile snapshot kept alongside the token.
type User struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	SurnamePaternal string `json:"surnamePaternal"`
	SurnameMaternal string `json:"surnameMaternal"`
	Email           string `json:"email"`
	Role            Role   `json:"role"`
}

func (u User) FullName() string {
	return strings.Join(strings.Fields(u.Name+" "+u.SurnamePaternal+" "+u.SurnameMaternal), " ")
}

// Credential is what the credential store persists. Token and User are
// written and cleared together.
type Credential struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Valid reports whether c carries both halves of a session.
func (c *Credential) Valid() bool {
	return c != nil && c.Token != "" && (c.User.ID != 0 || c.User.Email != "")
}
