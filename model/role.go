package model

type Role string

const (
	RoleEmployee   Role = "employee"
	RoleSupervisor Role = "supervisor"
	RoleManager    Role = "manager"
)

var Roles = []Role{RoleEmployee, RoleSupervisor, RoleManager}

func (r Role) Valid() bool {
	switch r {
	case RoleEmployee, RoleSupervisor, RoleManager:
		return true
	}
	return false
}

// CanSupervise reports whether the role may sign off a shift.
func (r Role) CanSupervise() bool {
	return r == RoleSupervisor || r == RoleManager
}
