package domain

// AdminCredentials is the single administrative login. Password holds either the
// plain password or a bcrypt hash, depending on the configured password mode.
type AdminCredentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Role is the kind of session a token grants.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleLicense Role = "license"
)
