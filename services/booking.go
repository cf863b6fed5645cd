package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"salonpro-booking/config"
	"salonpro-booking/models"
	"salonpro-booking/utils"
)

const minutesPerDay = 24 * 60

type BookingDeps struct {
	DB       *gorm.DB
	Composer *CostComposer
	Wallet   *WalletLedger
	Events   EventPublisher
	Locker   SlotLocker
	Pricing  config.Pricing
	Clock    utils.Clock
	Location *time.Location
	Metrics  *Metrics
}

// BookingService owns the appointment lifecycle:
//
//	Booked -> Confirmed | Rejected | Completed | Cancelled
//	Confirmed -> Completed | Cancelled
//
// Completed, Rejected and Cancelled are terminal. Every write runs in one
// transaction and events are published only after it commits.
type BookingService struct {
	db       *gorm.DB
	composer *CostComposer
	wallet   *WalletLedger
	events   EventPublisher
	locker   SlotLocker
	pricing  config.Pricing
	clock    utils.Clock
	loc      *time.Location
	metrics  *Metrics
}

func NewBookingService(d BookingDeps) *BookingService {
	s := &BookingService{
		db:       d.DB,
		composer: d.Composer,
		wallet:   d.Wallet,
		events:   d.Events,
		locker:   d.Locker,
		pricing:  d.Pricing,
		clock:    d.Clock,
		loc:      d.Location,
		metrics:  d.Metrics,
	}
	if s.wallet == nil {
		s.wallet = NewWalletLedger(d.DB)
	}
	if s.locker == nil {
		s.locker = NoopSlotLocker{}
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	return s
}

type CreateAppointmentInput struct {
	SalonID    uuid.UUID
	CustomerID uuid.UUID
	ArtistID   *uuid.UUID
	Date       string
	StartTime  string
	Services   []LineItemRequest
	OfferCode  string
	Notes      string
}

type AppointmentFilter struct {
	SalonID    uuid.UUID
	CustomerID *uuid.UUID
	ArtistID   *uuid.UUID
	Date       string
	Status     string
	Limit      int
	Offset     int
}

// Create books an appointment. The composition runs in commit mode, so a rejected
// offer fails the booking instead of being dropped.
func (s *BookingService) Create(ctx context.Context, in CreateAppointmentInput) (*models.Appointment, error) {
	ctx, span := tracer.Start(ctx, "BookingService.Create")
	defer span.End()
	span.SetAttributes(
		attribute.String("salon.id", in.SalonID.String()),
		attribute.String("customer.id", in.CustomerID.String()),
		attribute.String("appointment.date", in.Date),
	)

	appt, err := s.create(ctx, in)
	if err != nil {
		be := AsBookingError(err)
		s.metrics.booking(string(be.Code))
		span.RecordError(be)
		log.Info().
			Str("salon_id", in.SalonID.String()).
			Str("customer_id", in.CustomerID.String()).
			Str("code", string(be.Code)).
			Msg("booking rejected")
		return nil, be
	}

	s.metrics.booking("ok")
	s.metrics.observePayable(appt.BillingDetails.FinalPayableAmount)
	log.Info().
		Str("appointment_id", appt.ID.String()).
		Str("salon_id", appt.SalonID.String()).
		Str("status", string(appt.Status)).
		Str("payable", appt.BillingDetails.FinalPayableAmount.StringFixed(2)).
		Msg("appointment booked")
	s.publish(ctx, EventAppointmentCreated, appt.ID, "")
	return appt, nil
}

func (s *BookingService) create(ctx context.Context, in CreateAppointmentInput) (*models.Appointment, error) {
	date, start, err := s.parseSlot(in.Date, in.StartTime)
	if err != nil {
		return nil, err
	}

	var salon models.Salon
	if err := s.db.WithContext(ctx).First(&salon, "id = ?", in.SalonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(CodeSalonNotFound, "salon %s not found", in.SalonID)
		}
		return nil, internalError(err, "load salon")
	}

	if in.ArtistID != nil {
		release, err := s.locker.Acquire(ctx, slotLockKey(*in.ArtistID, in.Date))
		if err != nil {
			return nil, err
		}
		defer release()
	}

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, internalError(tx.Error, "begin transaction")
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	appt, err := s.createInTx(ctx, tx, &salon, in, date, start)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, internalError(err, "commit booking")
	}
	return appt, nil
}

func (s *BookingService) createInTx(ctx context.Context, tx *gorm.DB, salon *models.Salon, in CreateAppointmentInput, date time.Time, start int) (*models.Appointment, error) {
	if in.ArtistID != nil {
		if err := lockArtist(ctx, tx, salon.ID, *in.ArtistID); err != nil {
			return nil, err
		}
	}

	breakdown, err := s.composer.WithTx(tx).Compose(ctx, CostRequest{
		CustomerID:      in.CustomerID,
		SalonID:         in.SalonID,
		Services:        in.Services,
		OfferCode:       in.OfferCode,
		AppointmentDate: &date,
	})
	if err != nil {
		return nil, err
	}

	if breakdown.TotalDuration <= 0 {
		return nil, newError(CodeInvalidAppointmentTime, "selected services have no duration")
	}
	end := start + breakdown.TotalDuration
	if end > minutesPerDay {
		return nil, newError(CodeInvalidAppointmentTime, "appointment would end after midnight")
	}
	if err := checkWorkingHours(salon, date, start, end); err != nil {
		return nil, err
	}
	if in.ArtistID != nil {
		if err := checkOverlap(ctx, tx, *in.ArtistID, in.Date, start, end, uuid.Nil); err != nil {
			return nil, err
		}
	}

	appt := &models.Appointment{
		SalonID:        in.SalonID,
		CustomerID:     in.CustomerID,
		ArtistID:       in.ArtistID,
		Date:           in.Date,
		StartTime:      utils.FormatClock(start),
		EndTime:        utils.FormatClock(end),
		StartMinute:    start,
		EndMinute:      end,
		Duration:       breakdown.TotalDuration,
		Status:         models.StatusBooked,
		BillingDetails: breakdown.Billing(),
		PaymentStatus:  models.PaymentPending,
		Notes:          strings.TrimSpace(in.Notes),
	}
	for i, item := range breakdown.Items {
		appt.Services = append(appt.Services, models.AppointmentService{
			Position:         i,
			ServiceID:        item.ServiceID,
			ServiceName:      item.ServiceName,
			SelectedOptionID: item.SelectedOptionID,
			OptionName:       item.OptionName,
			Duration:         item.Duration,
			CalculatedCost:   item.Cost,
		})
	}
	if breakdown.Offer != nil {
		id := breakdown.Offer.OfferID
		appt.AppliedOfferID = &id
	}

	if err := tx.Omit("Customer", "Salon", "Artist").Create(appt).Error; err != nil {
		return nil, internalError(err, "create appointment")
	}

	ledger := s.wallet.WithTx(tx)
	userID := breakdown.customer.UserID
	if breakdown.WalletSavingsUsed.IsPositive() {
		if _, err := ledger.Debit(ctx, userID, breakdown.WalletSavingsUsed, models.WalletReasonBooking, &appt.ID); err != nil {
			return nil, err
		}
	}

	if breakdown.Offer != nil {
		if err := redeemOffer(ctx, tx, in.CustomerID, breakdown.Offer, appt.ID, s.clock()); err != nil {
			return nil, err
		}
		if s.pricing.CashbackPolicy == config.CashbackAtBooking && breakdown.CashbackAmount.IsPositive() {
			if _, err := ledger.Credit(ctx, userID, breakdown.CashbackAmount, models.WalletReasonCashback, &appt.ID); err != nil {
				return nil, err
			}
			if err := tx.Model(appt).Update("cashback_credited", true).Error; err != nil {
				return nil, internalError(err, "mark cashback credited")
			}
			appt.CashbackCredited = true
		}
	}
	return appt, nil
}

// redeemOffer records consumption exactly once. The unique (customer, offer) index turns a
// concurrent second redemption into zero affected rows.
func redeemOffer(ctx context.Context, tx *gorm.DB, customerID uuid.UUID, offer *AppliedOffer, appointmentID uuid.UUID, now time.Time) error {
	res := tx.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&models.OfferRedemption{
		CustomerID:    customerID,
		OfferID:       offer.OfferID,
		AppointmentID: appointmentID,
		RedeemedAt:    now,
	})
	if res.Error != nil {
		return internalError(res.Error, "redeem offer")
	}
	if res.RowsAffected == 0 {
		return offerError(CodeOfferAlreadyUsed, "offer %s has already been used", offer.Code)
	}
	return nil
}

// UpdateStatus moves an appointment to Confirmed, Rejected or Completed. Setting the
// current status again is a no-op.
func (s *BookingService) UpdateStatus(ctx context.Context, salonID, id uuid.UUID, status string) (*models.Appointment, error) {
	ctx, span := tracer.Start(ctx, "BookingService.UpdateStatus")
	defer span.End()
	span.SetAttributes(attribute.String("appointment.id", id.String()), attribute.String("appointment.status", status))

	target, err := parseTargetStatus(status)
	if err != nil {
		return nil, err
	}

	var (
		appt     models.Appointment
		previous models.AppointmentStatus
		changed  bool
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := loadAppointment(ctx, tx, salonID, id, &appt); err != nil {
			return err
		}
		previous = appt.Status
		if previous == target {
			return nil
		}
		if previous.IsTerminal() {
			return newError(CodeInvalidTransition, "appointment is already %s", previous)
		}
		if (target == models.StatusConfirmed || target == models.StatusRejected) && previous != models.StatusBooked {
			return newError(CodeInvalidTransition, "cannot move a %s appointment to %s", previous, target)
		}
		if err := compareAndSetStatus(ctx, tx, &appt, previous, target, nil); err != nil {
			return err
		}
		if target == models.StatusCompleted {
			if err := s.onCompleted(ctx, tx, &appt); err != nil {
				return err
			}
		}
		changed = true
		return nil
	})
	if err != nil {
		be := AsBookingError(err)
		span.RecordError(be)
		return nil, be
	}
	if !changed {
		return &appt, nil
	}

	s.metrics.transition(string(target))
	log.Info().
		Str("appointment_id", appt.ID.String()).
		Str("salon_id", appt.SalonID.String()).
		Str("from", string(previous)).
		Str("status", string(target)).
		Msg("appointment status changed")
	s.publish(ctx, EventAppointmentStatusChanged, appt.ID, string(previous))
	return &appt, nil
}

func (s *BookingService) onCompleted(ctx context.Context, tx *gorm.DB, appt *models.Appointment) error {
	err := tx.Model(&models.Customer{}).Where("id = ?", appt.CustomerID).Updates(map[string]interface{}{
		"total_visits": gorm.Expr("total_visits + ?", 1),
		"total_spent":  gorm.Expr("total_spent + ?", appt.BillingDetails.FinalPayableAmount),
		"last_visit":   s.clock(),
	}).Error
	if err != nil {
		return internalError(err, "update customer stats")
	}

	cashback := appt.BillingDetails.OfferCashbackEarned
	if s.pricing.CashbackPolicy != config.CashbackAtCompletion || !cashback.IsPositive() || appt.CashbackCredited {
		return nil
	}
	res := tx.Model(&models.Appointment{}).
		Where("id = ? AND cashback_credited = ?", appt.ID, false).
		Update("cashback_credited", true)
	if res.Error != nil {
		return internalError(res.Error, "mark cashback credited")
	}
	if res.RowsAffected == 0 {
		return nil
	}
	userID, err := customerUserID(ctx, tx, appt.CustomerID)
	if err != nil {
		return err
	}
	if _, err := s.wallet.WithTx(tx).Credit(ctx, userID, cashback, models.WalletReasonCashback, &appt.ID); err != nil {
		return err
	}
	appt.CashbackCredited = true
	return nil
}

// Cancel moves a Booked or Confirmed appointment to Cancelled. The billing snapshot is kept;
// wallet savings are refunded when the pricing policy says so. Redeemed offers stay consumed.
func (s *BookingService) Cancel(ctx context.Context, salonID, id uuid.UUID) (*models.Appointment, error) {
	ctx, span := tracer.Start(ctx, "BookingService.Cancel")
	defer span.End()
	span.SetAttributes(attribute.String("appointment.id", id.String()))

	var (
		appt     models.Appointment
		previous models.AppointmentStatus
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := loadAppointment(ctx, tx, salonID, id, &appt); err != nil {
			return err
		}
		previous = appt.Status
		switch previous {
		case models.StatusCancelled:
			return newError(CodeAlreadyCancelled, "appointment is already cancelled")
		case models.StatusCompleted:
			return newError(CodeAlreadyCompleted, "appointment is already completed")
		case models.StatusBooked, models.StatusConfirmed:
		default:
			return newError(CodeInvalidTransition, "cannot cancel a %s appointment", previous)
		}

		now := s.clock()
		if err := compareAndSetStatus(ctx, tx, &appt, previous, models.StatusCancelled, map[string]interface{}{"cancelled_at": now}); err != nil {
			return err
		}
		appt.CancelledAt = &now
		return s.settleCancellation(ctx, tx, &appt)
	})
	if err != nil {
		be := AsBookingError(err)
		span.RecordError(be)
		return nil, be
	}

	s.metrics.transition(string(models.StatusCancelled))
	log.Info().
		Str("appointment_id", appt.ID.String()).
		Str("salon_id", appt.SalonID.String()).
		Str("from", string(previous)).
		Str("status", string(models.StatusCancelled)).
		Msg("appointment cancelled")
	s.publish(ctx, EventAppointmentCancelled, appt.ID, string(previous))
	return &appt, nil
}

func (s *BookingService) settleCancellation(ctx context.Context, tx *gorm.DB, appt *models.Appointment) error {
	refund := appt.BillingDetails.WalletSavingsUsed
	refundable := s.pricing.RefundWalletOnCancel && refund.IsPositive()
	if !refundable && !appt.CashbackCredited {
		return nil
	}
	userID, err := customerUserID(ctx, tx, appt.CustomerID)
	if err != nil {
		return err
	}
	ledger := s.wallet.WithTx(tx)

	if refundable {
		if _, err := ledger.Credit(ctx, userID, refund, models.WalletReasonRefund, &appt.ID); err != nil {
			return err
		}
	}

	if appt.CashbackCredited {
		balance, err := ledger.GetBalance(ctx, userID)
		if err != nil {
			return err
		}
		reversal := decimal.Min(appt.BillingDetails.OfferCashbackEarned, balance)
		if reversal.IsPositive() {
			if _, err := ledger.Debit(ctx, userID, reversal, models.WalletReasonReversal, &appt.ID); err != nil {
				return err
			}
		}
		if err := tx.Model(appt).Update("cashback_credited", false).Error; err != nil {
			return internalError(err, "clear cashback flag")
		}
		appt.CashbackCredited = false
	}
	return nil
}

// Reschedule moves a live appointment to a new slot, keeping its duration and billing, and
// sends it back through approval as Booked.
func (s *BookingService) Reschedule(ctx context.Context, salonID, id uuid.UUID, dateStr, startStr string) (*models.Appointment, error) {
	ctx, span := tracer.Start(ctx, "BookingService.Reschedule")
	defer span.End()
	span.SetAttributes(attribute.String("appointment.id", id.String()), attribute.String("appointment.date", dateStr))

	date, start, err := s.parseSlot(dateStr, startStr)
	if err != nil {
		return nil, err
	}

	var current models.Appointment
	if err := loadAppointment(ctx, s.db, salonID, id, &current); err != nil {
		return nil, err
	}
	if current.ArtistID != nil {
		release, err := s.locker.Acquire(ctx, slotLockKey(*current.ArtistID, dateStr))
		if err != nil {
			return nil, err
		}
		defer release()
	}

	var (
		appt     models.Appointment
		previous models.AppointmentStatus
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Salon").Where("id = ? AND salon_id = ?", id, salonID).First(&appt).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newError(CodeAppointmentNotFound, "appointment %s not found", id)
			}
			return internalError(err, "load appointment")
		}
		previous = appt.Status
		if previous.IsTerminal() {
			return newError(CodeInvalidTransition, "cannot reschedule a %s appointment", previous)
		}

		end := start + appt.Duration
		if end > minutesPerDay {
			return newError(CodeInvalidAppointmentTime, "appointment would end after midnight")
		}
		if err := checkWorkingHours(&appt.Salon, date, start, end); err != nil {
			return err
		}
		if appt.ArtistID != nil {
			if err := lockArtist(ctx, tx, salonID, *appt.ArtistID); err != nil {
				return err
			}
			if err := checkOverlap(ctx, tx, *appt.ArtistID, dateStr, start, end, appt.ID); err != nil {
				return err
			}
		}

		fields := map[string]interface{}{
			"date":         dateStr,
			"start_time":   utils.FormatClock(start),
			"end_time":     utils.FormatClock(end),
			"start_minute": start,
			"end_minute":   end,
		}
		if err := compareAndSetStatus(ctx, tx, &appt, previous, models.StatusBooked, fields); err != nil {
			return err
		}
		appt.Date = dateStr
		appt.StartTime = utils.FormatClock(start)
		appt.EndTime = utils.FormatClock(end)
		appt.StartMinute = start
		appt.EndMinute = end
		return nil
	})
	if err != nil {
		be := AsBookingError(err)
		span.RecordError(be)
		return nil, be
	}

	s.metrics.transition("Rescheduled")
	log.Info().
		Str("appointment_id", appt.ID.String()).
		Str("salon_id", appt.SalonID.String()).
		Str("date", appt.Date).
		Str("start", appt.StartTime).
		Msg("appointment rescheduled")
	s.publish(ctx, EventAppointmentRescheduled, appt.ID, string(previous))
	return &appt, nil
}

func (s *BookingService) Get(ctx context.Context, salonID, id uuid.UUID) (*models.Appointment, error) {
	var appt models.Appointment
	err := s.db.WithContext(ctx).
		Preload("Services", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("id = ? AND salon_id = ?", id, salonID).
		First(&appt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(CodeAppointmentNotFound, "appointment %s not found", id)
		}
		return nil, internalError(err, "load appointment")
	}
	return &appt, nil
}

func (s *BookingService) List(ctx context.Context, f AppointmentFilter) ([]models.Appointment, error) {
	q := s.db.WithContext(ctx).
		Preload("Services", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("salon_id = ?", f.SalonID)
	if f.CustomerID != nil {
		q = q.Where("customer_id = ?", *f.CustomerID)
	}
	if f.ArtistID != nil {
		q = q.Where("artist_id = ?", *f.ArtistID)
	}
	if f.Date != "" {
		q = q.Where("date = ?", f.Date)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var appts []models.Appointment
	if err := q.Order("date ASC, start_minute ASC").Limit(limit).Offset(f.Offset).Find(&appts).Error; err != nil {
		return nil, internalError(err, "list appointments")
	}
	return appts, nil
}

// CustomerForUser returns the salon's customer record for an authenticated user.
func (s *BookingService) CustomerForUser(ctx context.Context, salonID, userID uuid.UUID) (*models.Customer, error) {
	var c models.Customer
	if err := s.db.WithContext(ctx).Where("salon_id = ? AND user_id = ?", salonID, userID).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(CodeCustomerNotFound, "no customer profile for user %s", userID)
		}
		return nil, internalError(err, "load customer")
	}
	return &c, nil
}

func (s *BookingService) parseSlot(dateStr, startStr string) (time.Time, int, error) {
	date, err := utils.ParseDate(dateStr, s.loc)
	if err != nil {
		return time.Time{}, 0, newError(CodeInvalidAppointmentTime, "invalid date %q: expected YYYY-MM-DD", dateStr)
	}
	start, err := utils.ParseClock(startStr)
	if err != nil {
		return time.Time{}, 0, newError(CodeInvalidAppointmentTime, "%s", err.Error())
	}
	now := s.clock().In(s.loc)
	today := utils.BeginningOfDay(now)
	if date.Before(today) {
		return time.Time{}, 0, newError(CodeInvalidAppointmentTime, "appointment date %s is in the past", dateStr)
	}
	if date.Equal(today) && start < now.Hour()*60+now.Minute() {
		return time.Time{}, 0, newError(CodeInvalidAppointmentTime, "start time %s has already passed", startStr)
	}
	return date, start, nil
}

func (s *BookingService) publish(ctx context.Context, kind EventType, id uuid.UUID, previous string) {
	if s.events == nil {
		return
	}
	var appt models.Appointment
	err := s.db.WithContext(ctx).Preload("Customer").Preload("Salon.Owner").First(&appt, "id = ?", id).Error
	if err != nil {
		log.Error().Err(err).Str("appointment_id", id.String()).Msg("failed to load appointment for event")
		return
	}
	e := newEvent(kind, &appt, s.loc, s.clock())
	e.PreviousStatus = previous
	s.events.Publish(e)
}

func parseTargetStatus(status string) (models.AppointmentStatus, error) {
	for _, st := range []models.AppointmentStatus{models.StatusConfirmed, models.StatusRejected, models.StatusCompleted} {
		if strings.EqualFold(strings.TrimSpace(status), string(st)) {
			return st, nil
		}
	}
	return "", newError(CodeInvalidStatus, "invalid status %q: expected Confirmed, Rejected or Completed", status)
}

func loadAppointment(ctx context.Context, db *gorm.DB, salonID, id uuid.UUID, appt *models.Appointment) error {
	if err := db.WithContext(ctx).Where("id = ? AND salon_id = ?", id, salonID).First(appt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newError(CodeAppointmentNotFound, "appointment %s not found", id)
		}
		return internalError(err, "load appointment")
	}
	return nil
}

// compareAndSetStatus writes the new status only if nobody changed it since it was read.
func compareAndSetStatus(ctx context.Context, tx *gorm.DB, appt *models.Appointment, from, to models.AppointmentStatus, extra map[string]interface{}) error {
	fields := map[string]interface{}{"status": to}
	for k, v := range extra {
		fields[k] = v
	}
	res := tx.WithContext(ctx).Model(&models.Appointment{}).
		Where("id = ? AND status = ?", appt.ID, from).
		Updates(fields)
	if res.Error != nil {
		return internalError(res.Error, "update appointment status")
	}
	if res.RowsAffected == 0 {
		return newError(CodeInvalidTransition, "appointment changed concurrently, reload and retry")
	}
	appt.Status = to
	return nil
}

// lockArtist takes a row lock on the artist so overlap checks for one calendar serialise.
// SQLite serialises writers already and has no FOR UPDATE.
func lockArtist(ctx context.Context, tx *gorm.DB, salonID, artistID uuid.UUID) error {
	q := tx.WithContext(ctx)
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var artist models.Artist
	if err := q.Where("id = ? AND salon_id = ? AND is_active = ?", artistID, salonID, true).First(&artist).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newError(CodeArtistNotFound, "artist %s not found", artistID)
		}
		return internalError(err, "lock artist")
	}
	return nil
}

// checkOverlap rejects [start,end) when it intersects a live appointment of the artist.
// Abutting intervals do not overlap.
func checkOverlap(ctx context.Context, tx *gorm.DB, artistID uuid.UUID, date string, start, end int, exclude uuid.UUID) error {
	q := tx.WithContext(ctx).Model(&models.Appointment{}).
		Where("artist_id = ? AND date = ? AND status IN ?", artistID, date, models.LiveStatuses).
		Where("start_minute < ? AND end_minute > ?", end, start)
	if exclude != uuid.Nil {
		q = q.Where("id <> ?", exclude)
	}
	var clash models.Appointment
	err := q.Order("start_minute ASC").First(&clash).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return internalError(err, "check slot overlap")
	}
	return newError(CodeSlotConflict, "artist is already booked %s-%s on %s", clash.StartTime, clash.EndTime, date)
}

// checkWorkingHours validates against the salon's current hours. A weekday with no entry
// is unrestricted.
func checkWorkingHours(salon *models.Salon, date time.Time, start, end int) error {
	weekday := utils.WeekdayName(date)
	hours, ok := salon.HoursFor(strings.ToLower(weekday))
	if !ok {
		return nil
	}
	if hours.Closed {
		return newError(CodeOutsideHours, "salon is closed on %s", weekday)
	}
	open, err := utils.ParseClock(hours.Open)
	if err != nil {
		return nil
	}
	closing, err := utils.ParseClock(hours.Close)
	if err != nil {
		return nil
	}
	if start < open || end > closing {
		return newError(CodeOutsideHours, "salon is open %s-%s on %s", hours.Open, hours.Close, weekday)
	}
	return nil
}

func customerUserID(ctx context.Context, tx *gorm.DB, customerID uuid.UUID) (uuid.UUID, error) {
	var c models.Customer
	if err := tx.WithContext(ctx).Select("id", "user_id").First(&c, "id = ?", customerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, newError(CodeCustomerNotFound, "customer %s not found", customerID)
		}
		return uuid.Nil, internalError(err, "load customer")
	}
	return c.UserID, nil
}
