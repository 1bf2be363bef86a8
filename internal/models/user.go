package models

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is one of the known role literals.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username  string    `gorm:"type:varchar(150);uniqueIndex;not null" json:"username"`
	Email     string    `gorm:"type:varchar(254);uniqueIndex;not null" json:"email"`
	FirstName string    `gorm:"type:varchar(150)" json:"first_name"`
	LastName  string    `gorm:"type:varchar(150)" json:"last_name"`
	Bio       string    `gorm:"type:text" json:"bio"`
	Role      Role      `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	Superuser bool      `gorm:"not null;default:false" json:"-"`

	// Argon2id hash of the latest confirmation code; reissued on every
	// signup attempt, never exposed
	ConfirmationCodeHash string     `gorm:"type:varchar(255)" json:"-"`
	ConfirmedAt          *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsAdmin reports whether the user holds admin capabilities
// (the admin role or the superuser flag).
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.Superuser
}

func (u *User) IsModerator() bool {
	return u.Role == RoleModerator
}
