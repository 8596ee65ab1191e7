package domain

import "time"

// Admin roles.
const (
	RoleSuperAdmin = "super_admin"
	RoleAdmin      = "admin"
	RoleSupport    = "support"
)

// DefaultAdminEmail is the email of the bootstrap super admin.
const DefaultAdminEmail = "admin@centraltradehub.com"

// SuperAdminPermissions is the permission set granted to the bootstrap admin.
var SuperAdminPermissions = []string{
	"user_management",
	"system_settings",
	"financial_data",
	"analytics",
	"support",
}

// AdminRecord is a back-office identity with a role and permission set.
type AdminRecord struct {
	ID       string        `json:"id"`
	Email    string        `json:"email"`
	Profile  AdminProfile  `json:"profile"`
	Auth     AdminAuth     `json:"auth"`
	Metadata AdminMetadata `json:"metadata"`
}

// AdminProfile holds display details.
type AdminProfile struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Avatar     string `json:"avatar"`
	Department string `json:"department"`
	Title      string `json:"title"`
}

// AdminAuth holds the credential and access control state.
type AdminAuth struct {
	PasswordHash string     `json:"password,omitempty"`
	Role         string     `json:"role"`
	Permissions  []string   `json:"permissions"`
	LastLogin    *time.Time `json:"lastLogin"`
	IsActive     bool       `json:"isActive"`
}

// AdminMetadata holds audit details.
type AdminMetadata struct {
	CreatedAt   time.Time `json:"createdAt"`
	CreatedBy   string    `json:"createdBy"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// HasPermission reports whether the admin holds the permission.
// Super admins hold every permission.
func (a *AdminRecord) HasPermission(permission string) bool {
	if a.Auth.Role == RoleSuperAdmin {
		return true
	}
	for _, p := range a.Auth.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// Sanitized returns a copy without the password hash.
func (a *AdminRecord) Sanitized() *AdminRecord {
	c := *a
	c.Auth.PasswordHash = ""
	c.Auth.Permissions = cloneSlice(a.Auth.Permissions)
	c.Auth.LastLogin = cloneTime(a.Auth.LastLogin)
	return &c
}
