package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Customer struct {
	ID      uuid.UUID `gorm:"type:uuid;primary_key"`
	SalonID uuid.UUID `gorm:"type:uuid;index;not null"`
	UserID  uuid.UUID `gorm:"type:uuid;index;not null"`

	Name        string `gorm:"not null"`
	Phone       string `gorm:"not null"`
	Email       string
	TotalVisits int             `gorm:"default:0"`
	TotalSpent  decimal.Decimal `gorm:"type:decimal(10,2);default:0"`
	LastVisit   *time.Time
	IsActive    bool `gorm:"default:true"`

	User         User              `gorm:"foreignKey:UserID"`
	Appointments []Appointment     `gorm:"foreignKey:CustomerID"`
	Redemptions  []OfferRedemption `gorm:"foreignKey:CustomerID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c *Customer) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return
}

// ConsumedOfferIDs lists offers this customer has redeemed. Redemptions must be preloaded.
func (c *Customer) ConsumedOfferIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(c.Redemptions))
	for _, r := range c.Redemptions {
		ids = append(ids, r.OfferID)
	}
	return ids
}
