package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"salonpro-booking/models"
	"salonpro-booking/utils"
)

// MarkPaid records a successful payment from the payment collaborator. The amount must match
// the frozen payable amount within the configured tolerance. Repeated calls for a paid
// appointment succeed without writing again.
func (s *BookingService) MarkPaid(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*models.Appointment, error) {
	ctx, span := tracer.Start(ctx, "BookingService.MarkPaid")
	defer span.End()
	span.SetAttributes(attribute.String("appointment.id", id.String()), attribute.String("payment.amount", amount.StringFixed(2)))

	if amount.IsNegative() {
		return nil, newError(CodeInvalidAmount, "payment amount must not be negative")
	}

	var appt models.Appointment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Services").First(&appt, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newError(CodeAppointmentNotFound, "appointment %s not found", id)
			}
			return internalError(err, "load appointment")
		}
		if appt.PaymentStatus == models.PaymentPaid {
			return nil
		}
		if appt.Status == models.StatusCancelled || appt.Status == models.StatusRejected {
			return newError(CodeInvalidPaymentState, "cannot take payment for a %s appointment", appt.Status)
		}
		due := appt.BillingDetails.FinalPayableAmount
		if amount.Sub(due).Abs().GreaterThan(s.pricing.PaymentTolerance) {
			return newError(CodeAmountMismatch, "paid %s but %s is due", amount.StringFixed(2), due.StringFixed(2))
		}

		now := s.clock()
		res := tx.Model(&models.Appointment{}).
			Where("id = ? AND payment_status IN ?", appt.ID, []models.PaymentStatus{models.PaymentPending, models.PaymentFailed}).
			Updates(map[string]interface{}{
				"payment_status": models.PaymentPaid,
				"paid_amount":    amount,
				"paid_at":        now,
			})
		if res.Error != nil {
			return internalError(res.Error, "mark appointment paid")
		}
		if res.RowsAffected == 0 {
			return newError(CodeInvalidPaymentState, "payment state changed concurrently")
		}
		appt.PaymentStatus = models.PaymentPaid
		appt.PaidAmount = &amount
		appt.PaidAt = &now

		return writeInvoice(ctx, tx, &appt, amount, now.In(s.loc))
	})
	if err != nil {
		be := AsBookingError(err)
		span.RecordError(be)
		return nil, be
	}

	log.Info().
		Str("appointment_id", appt.ID.String()).
		Str("amount", amount.StringFixed(2)).
		Msg("appointment paid")
	return &appt, nil
}

// MarkPaymentFailed records a failed payment attempt. A paid appointment cannot fail afterwards.
func (s *BookingService) MarkPaymentFailed(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	var appt models.Appointment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&appt, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newError(CodeAppointmentNotFound, "appointment %s not found", id)
			}
			return internalError(err, "load appointment")
		}
		switch appt.PaymentStatus {
		case models.PaymentPaid:
			return newError(CodeInvalidPaymentState, "appointment is already paid")
		case models.PaymentFailed:
			return nil
		}
		res := tx.Model(&models.Appointment{}).
			Where("id = ? AND payment_status = ?", appt.ID, models.PaymentPending).
			Update("payment_status", models.PaymentFailed)
		if res.Error != nil {
			return internalError(res.Error, "mark payment failed")
		}
		if res.RowsAffected == 0 {
			return newError(CodeInvalidPaymentState, "payment state changed concurrently")
		}
		appt.PaymentStatus = models.PaymentFailed
		return nil
	})
	if err != nil {
		return nil, AsBookingError(err)
	}
	log.Warn().Str("appointment_id", appt.ID.String()).Msg("payment failed")
	return &appt, nil
}

func writeInvoice(ctx context.Context, tx *gorm.DB, appt *models.Appointment, paid decimal.Decimal, now time.Time) error {
	b := appt.BillingDetails
	invoice := models.Invoice{
		SalonID:       appt.SalonID,
		AppointmentID: appt.ID,
		CustomerID:    appt.CustomerID,
		InvoiceNumber: invoiceNumber(now),
		InvoiceDate:   now,
		Subtotal:      b.TotalServiceCost,
		WalletUsed:    b.WalletSavingsUsed,
		PlatformFee:   b.PlatformFee,
		Discount:      b.DiscountAmount,
		Tax:           b.GST,
		Total:         b.FinalPayableAmount,
		PaidAmount:    paid,
	}
	for _, line := range appt.Services {
		name := line.ServiceName
		if line.OptionName != "" {
			name += " (" + line.OptionName + ")"
		}
		invoice.Items = append(invoice.Items, models.InvoiceItem{
			ServiceID:   line.ServiceID,
			ServiceName: name,
			Quantity:    1,
			UnitPrice:   line.CalculatedCost,
			TotalPrice:  line.CalculatedCost,
		})
	}
	if err := tx.WithContext(ctx).Create(&invoice).Error; err != nil {
		return internalError(err, "write invoice")
	}
	return nil
}

func invoiceNumber(now time.Time) string {
	return fmt.Sprintf("INV-%s-%s", now.Format("20060102"), utils.GenerateRandomString(6))
}

// Invoice returns the receipt written when the appointment was paid.
func (s *BookingService) Invoice(ctx context.Context, salonID, appointmentID uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	err := s.db.WithContext(ctx).Preload("Items").
		Where("salon_id = ? AND appointment_id = ?", salonID, appointmentID).
		First(&invoice).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(CodeAppointmentNotFound, "no invoice for appointment %s", appointmentID)
		}
		return nil, internalError(err, "load invoice")
	}
	return &invoice, nil
}
