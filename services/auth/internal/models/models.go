package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"   json:"id"`
	Email        string    `gorm:"uniqueIndex;not null"   json:"email"`
	Name         string    `gorm:"not null"               json:"name"`
	Phone        string    `gorm:"not null"               json:"phone"`
	PasswordHash string    `gorm:"not null"               json:"-"`
	Role         string    `gorm:"not null"               json:"role"`
	PhotoURL     string    `gorm:"not null"               json:"photo_url"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// RefreshToken is stored as a hash; the jti ties it to the signed token.
type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"           json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;index"      json:"user_id"`
	TokenHash string    `gorm:"uniqueIndex;not null" json:"-"`
	JTI       string    `gorm:"uniqueIndex;not null" json:"jti"`
	ExpiresAt int64     `gorm:"not null"             json:"expires_at"`
	Revoked   bool      `gorm:"not null"             json:"revoked"`
}
