package user

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Username     string     `json:"username" db:"username"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	IsAdmin      bool       `json:"is_admin" db:"is_admin"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

// Actor - аутентифицированный пользователь, от имени которого идёт операция
type Actor struct {
	ID      uuid.UUID
	IsAdmin bool
}

func (u *User) Actor() Actor {
	return Actor{ID: u.ID, IsAdmin: u.IsAdmin}
}
