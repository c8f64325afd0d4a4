package enums

import "fmt"

// UserRole is the authoritative platform role stored on a user record.
type UserRole string

const (
	UserRoleCustomer      UserRole = "CUSTOMER"
	UserRoleBusinessOwner UserRole = "BUSINESS_OWNER"
	UserRoleAdmin         UserRole = "ADMIN"
	UserRoleModerator     UserRole = "MODERATOR"
)

var validUserRoles = []UserRole{
	UserRoleCustomer,
	UserRoleBusinessOwner,
	UserRoleAdmin,
	UserRoleModerator,
}

// String implements fmt.Stringer.
func (r UserRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known UserRole.
func (r UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseUserRole converts raw input into a UserRole. Unknown values are an
// error, never silently defaulted.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
