package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a punchcard holder. The raw token is only known at creation time;
// the store keeps its SHA-256 hash.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"not null;size:255" json:"name"`
	TokenHash string    `gorm:"uniqueIndex;not null;size:64" json:"-"`
	Age       *int      `json:"age,omitempty"`
	Gender    *string   `gorm:"size:1" json:"gender,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
