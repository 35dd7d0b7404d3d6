package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Company is a business handing out punches. PublicID is the identifier
// exposed to clients; ID stays internal to the store.
type Company struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	PublicID          string    `gorm:"uniqueIndex;not null;size:36" json:"id"`
	Title             string    `gorm:"uniqueIndex;not null;size:255" json:"title"`
	Description       string    `gorm:"type:text;not null" json:"description"`
	URL               string    `gorm:"not null;size:2048" json:"url"`
	PunchcardLifetime *int      `json:"punchcard_lifetime,omitempty"`
	Created           time.Time `gorm:"not null" json:"created"`
	UpdatedAt         time.Time `json:"-"`
}

func (c *Company) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.PublicID == "" {
		c.PublicID = uuid.NewString()
	}
	if c.Created.IsZero() {
		c.Created = time.Now().UTC()
	}
	return nil
}
