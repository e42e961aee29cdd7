package domain

// Role classifies an authenticated caller.
type Role string

const (
	RoleCitizen Role = "citizen" // buyer
	RolePlug    Role = "plug"    // vendor
	RoleAdmin   Role = "admin"   // council staff
)

// Identity is the authenticated caller extracted from the bearer token.
// StoreID is set only for plugs (one store per vendor).
type Identity struct {
	UserID  string
	Role    Role
	StoreID string
}

// IsAdmin reports whether the identity carries council privileges.
func (id Identity) IsAdmin() bool {
	return id.Role == RoleAdmin
}

// IsPlug reports whether the identity is a vendor.
func (id Identity) IsPlug() bool {
	return id.Role == RolePlug
}
