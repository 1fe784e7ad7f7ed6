package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the users table model. The email column carries a unique index
// on its normalized (lowercased) form; concurrent signups race on it and
// the loser sees a unique-constraint violation.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID              uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Email           string    `bun:"email,notnull,unique"`
	Name            string    `bun:"name,notnull"`
	PasswordHash    string    `bun:"password_hash,notnull"`
	UserType        string    `bun:"user_type,notnull"`
	IsEmailVerified bool      `bun:"is_email_verified,notnull,default:false"`
	CreatedAt       time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt       time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}
