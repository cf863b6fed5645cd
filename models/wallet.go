package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Wallet is the stored balance of one user. Balance never goes negative.
type Wallet struct {
	ID      uuid.UUID       `gorm:"type:uuid;primary_key"`
	UserID  uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null"`
	Balance decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`

	Transactions []WalletTransaction `gorm:"foreignKey:WalletID"`

	UpdatedAt time.Time
}

func (w *Wallet) BeforeCreate(tx *gorm.DB) (err error) {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return
}

const (
	WalletDebit  = "debit"
	WalletCredit = "credit"

	WalletReasonBooking  = "booking"
	WalletReasonRefund   = "refund"
	WalletReasonCashback = "cashback"
	WalletReasonReversal = "cashback_reversal"
	WalletReasonTopUp    = "topup"
)

// WalletTransaction is the append-only ledger row behind every balance change.
type WalletTransaction struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key"`
	WalletID      uuid.UUID       `gorm:"type:uuid;index;not null"`
	AppointmentID *uuid.UUID      `gorm:"type:uuid;index"`
	Type          string          `gorm:"type:varchar(10);not null"`
	Reason        string          `gorm:"type:varchar(20);not null"`
	Amount        decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	BalanceAfter  decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CreatedAt     time.Time
}

func (t *WalletTransaction) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return
}
