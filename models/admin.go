package models

const (
	DefaultAdminName     = "Administrador"
	DefaultAdminUsername = "admin"
	DefaultAdminPassword = "123"
)

// Admin "inherits" from User via embedding. The distinguishing field is Role.
// Registration always yields operators; admins only come from bootstrap.
type Admin struct {
	User
}

// NewAdmin creates an admin model with Role preset to "admin".
func NewAdmin(name, username string) *Admin {
	return &Admin{User: User{Name: name, Username: username, Role: RoleAdmin}}
}

// DefaultAdmin is the account seeded on first initialization.
func DefaultAdmin() *Admin {
	return NewAdmin(DefaultAdminName, DefaultAdminUsername)
}
