package domain

// User roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User Model, the identities behind signer user IDs
type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`                    // Primary key
	Username string `gorm:"size:64;unique;not null" json:"username"` // Unique username
	Password string `gorm:"not null" json:"-"`                       // Hashed password
	Role     string `gorm:"size:16;default:user" json:"role"`        // Role: user or admin
}
