package entities

import "strings"

// Capability is a namespaced permission string exercised under a Role
// (e.g. "xrn:gateway:capability:device:model").
type Capability string

// Namespace returns the capability's namespace portion, the part before the
// final separator. Returns the whole string when there is no separator.
func (c Capability) Namespace() string {
	if i := strings.LastIndex(string(c), ":"); i >= 0 {
		return string(c)[:i]
	}
	return string(c)
}

// Short returns the final segment of the capability string.
func (c Capability) Short() string {
	if i := strings.LastIndex(string(c), ":"); i >= 0 {
		return string(c)[i+1:]
	}
	return string(c)
}

// Role is the verb under which a capability is exercised.
type Role string

const (
	RoleUse     Role = "use"
	RoleManage  Role = "manage"
	RoleProvide Role = "provide"
)

// Valid reports whether the role is one of the three recognized verbs.
func (r Role) Valid() bool {
	switch r {
	case RoleUse, RoleManage, RoleProvide:
		return true
	}
	return false
}

// GrantKey identifies a grant lookup: which app exercised which capability
// under which role.
type GrantKey struct {
	AppID      string
	Capability Capability
	Role       Role
}

// String renders the key in a stable form usable as a map key or
// coalescing key.
func (k GrantKey) String() string {
	return k.AppID + "\x00" + string(k.Capability) + "\x00" + string(k.Role)
}
