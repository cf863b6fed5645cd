package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Invoice is the receipt written when a payment for an appointment succeeds.
type Invoice struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key"`
	SalonID       uuid.UUID `gorm:"type:uuid;index;not null"`
	AppointmentID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	CustomerID    uuid.UUID `gorm:"type:uuid;index;not null"`

	InvoiceNumber string    `gorm:"uniqueIndex;not null"`
	InvoiceDate   time.Time `gorm:"not null"`

	Subtotal    decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	WalletUsed  decimal.Decimal `gorm:"type:decimal(10,2);default:0"`
	PlatformFee decimal.Decimal `gorm:"type:decimal(10,2);default:0"`
	Discount    decimal.Decimal `gorm:"type:decimal(10,2);default:0"`
	Tax         decimal.Decimal `gorm:"type:decimal(10,2);default:0"`
	Total       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	PaidAmount  decimal.Decimal `gorm:"type:decimal(10,2);not null"`

	Items []InvoiceItem `gorm:"foreignKey:InvoiceID"`
}

func (i *Invoice) BeforeCreate(tx *gorm.DB) (err error) {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return
}

type InvoiceItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	InvoiceID   uuid.UUID       `gorm:"type:uuid;index;not null"`
	ServiceID   uuid.UUID       `gorm:"type:uuid;index;not null"`
	ServiceName string          `gorm:"not null"`
	Quantity    int             `gorm:"default:1"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	TotalPrice  decimal.Decimal `gorm:"type:decimal(10,2);not null"`
}

func (i *InvoiceItem) BeforeCreate(tx *gorm.DB) (err error) {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return
}
