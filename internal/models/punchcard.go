package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Punchcard marks that a user has collected a stamp for a company. The
// composite unique index keeps one row per (user, company).
type Punchcard struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_punchcards_user_company,priority:2" json:"company_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_punchcards_user_company,priority:1" json:"user_id"`
	Created   time.Time `gorm:"not null" json:"created"`
}

func (p *Punchcard) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Created.IsZero() {
		p.Created = time.Now().UTC()
	}
	return nil
}
