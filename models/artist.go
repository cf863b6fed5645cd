package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Artist is the bookable resource whose calendar must stay conflict free.
type Artist struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key"`
	SalonID  uuid.UUID `gorm:"type:uuid;index;not null"`
	Name     string    `gorm:"not null"`
	Phone    string
	IsActive bool `gorm:"default:true"`
}

func (a *Artist) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return
}
