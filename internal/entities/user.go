package entities

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Principal is the resolved caller identity supplied by the session layer.
type Principal struct {
	UserID int64
	Role   Role
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// CanAccessOrder gates own-resource operations: owner or admin.
func (p Principal) CanAccessOrder(o Order) bool {
	return p.IsAdmin() || p.UserID == o.UserID
}
