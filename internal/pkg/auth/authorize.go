// internal/pkg/auth/authorize.go
package auth

const (
	RoleAdmin = "Admin"
	RoleUser  = "User"
)

// Identity is the authenticated caller
type Identity struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// IsAdmin reports whether the identity holds the privileged role
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

// Authorize is the single capability check for role-gated operations.
// Admin satisfies every role; an empty required role only needs a caller.
func Authorize(identity *Identity, requiredRole string) bool {
	if identity == nil || identity.UserID == 0 {
		return false
	}
	switch requiredRole {
	case "":
		return true
	case RoleAdmin:
		return identity.Role == RoleAdmin
	case RoleUser:
		return identity.Role == RoleUser || identity.Role == RoleAdmin
	default:
		return identity.Role == requiredRole
	}
}

// CanAccess reports whether identity may act on a resource owned by ownerID
func CanAccess(identity *Identity, ownerID uint) bool {
	if identity == nil {
		return false
	}
	return identity.UserID == ownerID || identity.IsAdmin()
}
