package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Offer is append-only: there is no update path once created.
type Offer struct {
	ID      uuid.UUID `gorm:"type:uuid;primary_key"`
	SalonID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_offer_salon_code,priority:1"`
	Code    string    `gorm:"type:varchar(40);not null;uniqueIndex:idx_offer_salon_code,priority:2"`

	Description        string
	StartDate          time.Time       `gorm:"not null"`
	EndDate            time.Time       `gorm:"not null"`
	DiscountPercentage decimal.Decimal `gorm:"type:decimal(5,2);default:0"`
	CashbackPercentage decimal.Decimal `gorm:"type:decimal(5,2);default:0"`
	// Weekday names; empty means every day.
	EligibleDays    StringList `gorm:"type:text"`
	CreatedByUserID uuid.UUID  `gorm:"type:uuid;index"`

	CreatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (o *Offer) BeforeCreate(tx *gorm.DB) (err error) {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return
}

// OfferRedemption records that a customer consumed an offer. The unique index makes
// redeeming idempotent under concurrent bookings.
type OfferRedemption struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key"`
	CustomerID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_redemption_customer_offer,priority:1"`
	OfferID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_redemption_customer_offer,priority:2"`
	AppointmentID uuid.UUID `gorm:"type:uuid;index;not null"`
	RedeemedAt    time.Time
}

func (r *OfferRedemption) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}
