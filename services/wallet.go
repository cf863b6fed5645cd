package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"salonpro-booking/models"
)

// WalletLedger owns every balance mutation. Debits are conditional writes so two
// concurrent bookings by one user can never push the balance below zero.
type WalletLedger struct {
	db *gorm.DB
}

func NewWalletLedger(db *gorm.DB) *WalletLedger {
	return &WalletLedger{db: db}
}

func (l *WalletLedger) WithTx(tx *gorm.DB) *WalletLedger {
	return &WalletLedger{db: tx}
}

func (l *WalletLedger) Get(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	var w models.Wallet
	if err := l.db.WithContext(ctx).Where("user_id = ?", userID).First(&w).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(CodeWalletNotFound, "wallet not found for user %s", userID)
		}
		return nil, internalError(err, "load wallet")
	}
	return &w, nil
}

func (l *WalletLedger) GetBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	w, err := l.Get(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return w.Balance, nil
}

// Open returns the user's wallet, creating an empty one if needed.
func (l *WalletLedger) Open(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	w := models.Wallet{UserID: userID, Balance: decimal.Zero}
	if err := l.db.WithContext(ctx).Where("user_id = ?", userID).FirstOrCreate(&w).Error; err != nil {
		return nil, internalError(err, "open wallet")
	}
	return &w, nil
}

// History lists the most recent ledger rows, newest first.
func (l *WalletLedger) History(ctx context.Context, userID uuid.UUID, limit int) ([]models.WalletTransaction, error) {
	w, err := l.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	var txns []models.WalletTransaction
	if err := l.db.WithContext(ctx).Where("wallet_id = ?", w.ID).
		Order("created_at DESC").Limit(limit).Find(&txns).Error; err != nil {
		return nil, internalError(err, "load wallet history")
	}
	return txns, nil
}

// Debit removes amount from the balance, failing INSUFFICIENT_BALANCE instead of going negative.
func (l *WalletLedger) Debit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, reason string, appointmentID *uuid.UUID) (*models.WalletTransaction, error) {
	if !amount.IsPositive() {
		return nil, newError(CodeInvalidAmount, "debit amount must be positive")
	}
	var entry *models.WalletTransaction
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Wallet{}).
			Where("user_id = ? AND balance >= ?", userID, amount).
			Update("balance", gorm.Expr("balance - ?", amount))
		if res.Error != nil {
			return internalError(res.Error, "debit wallet")
		}
		if res.RowsAffected == 0 {
			w, err := (&WalletLedger{db: tx}).Get(ctx, userID)
			if err != nil {
				return err
			}
			return newError(CodeInsufficientBalance, "wallet balance %s is less than %s", w.Balance.StringFixed(2), amount.StringFixed(2))
		}
		var err error
		entry, err = appendLedger(ctx, tx, userID, models.WalletDebit, reason, amount, appointmentID)
		return err
	})
	if err != nil {
		return nil, AsBookingError(err)
	}
	return entry, nil
}

func (l *WalletLedger) Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, reason string, appointmentID *uuid.UUID) (*models.WalletTransaction, error) {
	if !amount.IsPositive() {
		return nil, newError(CodeInvalidAmount, "credit amount must be positive")
	}
	var entry *models.WalletTransaction
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Wallet{}).
			Where("user_id = ?", userID).
			Update("balance", gorm.Expr("balance + ?", amount))
		if res.Error != nil {
			return internalError(res.Error, "credit wallet")
		}
		if res.RowsAffected == 0 {
			return newError(CodeWalletNotFound, "wallet not found for user %s", userID)
		}
		var err error
		entry, err = appendLedger(ctx, tx, userID, models.WalletCredit, reason, amount, appointmentID)
		return err
	})
	if err != nil {
		return nil, AsBookingError(err)
	}
	return entry, nil
}

func appendLedger(ctx context.Context, tx *gorm.DB, userID uuid.UUID, kind, reason string, amount decimal.Decimal, appointmentID *uuid.UUID) (*models.WalletTransaction, error) {
	w, err := (&WalletLedger{db: tx}).Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	entry := &models.WalletTransaction{
		WalletID:      w.ID,
		AppointmentID: appointmentID,
		Type:          kind,
		Reason:        reason,
		Amount:        amount,
		BalanceAfter:  w.Balance,
	}
	if err := tx.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, internalError(err, "write wallet ledger")
	}
	log.Debug().
		Str("user_id", userID.String()).
		Str("type", kind).
		Str("reason", reason).
		Str("amount", amount.StringFixed(2)).
		Str("balance", w.Balance.StringFixed(2)).
		Msg("wallet updated")
	return entry, nil
}
