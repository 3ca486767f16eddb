package models

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// ValidRole reports whether role is one of the roles the service issues.
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}
