package domain

// Role is a named set of capabilities.
type Role string

const (
	RoleOperator   Role = "OPERATOR"
	RoleSupervisor Role = "SUPERVISOR"
	RoleAdmin      Role = "ADMIN"
)

// Capability is one action a role may perform. Core operations take the
// actor's capability set as an explicit parameter; nothing reads it from
// ambient state.
type Capability string

const (
	CapSubmit    Capability = "can-submit"
	CapApprove   Capability = "can-approve"
	CapSync      Capability = "can-sync"
	CapLock      Capability = "can-lock"
	CapUnlock    Capability = "can-unlock"
	CapViewAudit Capability = "can-view-audit"
	CapDiagnose  Capability = "can-diagnose"
)

// roleCapabilities is the fixed role -> capability table.
var roleCapabilities = map[Role][]Capability{
	RoleOperator:   {CapSubmit, CapSync},
	RoleSupervisor: {CapSubmit, CapApprove, CapSync, CapLock, CapUnlock, CapViewAudit},
	RoleAdmin:      {CapSubmit, CapApprove, CapSync, CapLock, CapUnlock, CapViewAudit, CapDiagnose},
}

// CapabilitiesForRole returns the capability set granted by a role.
func CapabilitiesForRole(r Role) []Capability {
	return roleCapabilities[r]
}

// Actor is the authenticated identity attached to every core operation and
// audit entry, together with its resolved capability set.
type Actor struct {
	UserID       string       `json:"userID"`
	Name         string       `json:"name"`
	Role         Role         `json:"role"`
	Capabilities []Capability `json:"capabilities"`
}

// Can reports whether the actor holds the given capability.
func (a Actor) Can(c Capability) bool {
	for _, have := range a.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

// User is a system account.
type User struct {
	UserID       string `json:"userID"` // Primary key (UUID)
	Username     string `json:"username"`
	Name         string `json:"name"`
	PasswordHash string `json:"-"`
	Role         Role   `json:"role"`
	IsActive     bool   `json:"isActive"`
	AuditFields
}

// ToActor resolves the user's capability set into an Actor.
func (u *User) ToActor() Actor {
	return Actor{
		UserID:       u.UserID,
		Name:         u.Name,
		Role:         u.Role,
		Capabilities: CapabilitiesForRole(u.Role),
	}
}
