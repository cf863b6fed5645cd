package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"salonpro-booking/models"
	"salonpro-booking/utils"
)

// OfferCheck is everything the validator needs besides the offer row.
type OfferCheck struct {
	Code     string
	SalonID  uuid.UUID
	Consumed []uuid.UUID
	// AppointmentDate is optional; expiry falls back to today when nil.
	AppointmentDate *time.Time
}

// AppliedOffer is what a successful validation hands to the composer.
type AppliedOffer struct {
	OfferID            uuid.UUID       `json:"offerId"`
	Code               string          `json:"code"`
	DiscountPercentage decimal.Decimal `json:"discountPercentage"`
	CashbackPercentage decimal.Decimal `json:"cashbackPercentage"`
}

// OfferValidator checks offer codes. It has no side effects; redemption happens at booking.
type OfferValidator struct {
	db    *gorm.DB
	clock utils.Clock
	loc   *time.Location
}

func NewOfferValidator(db *gorm.DB, clock utils.Clock, loc *time.Location) *OfferValidator {
	if clock == nil {
		clock = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &OfferValidator{db: db, clock: clock, loc: loc}
}

func (v *OfferValidator) WithTx(tx *gorm.DB) *OfferValidator {
	return &OfferValidator{db: tx, clock: v.clock, loc: v.loc}
}

func (v *OfferValidator) Validate(ctx context.Context, check OfferCheck) (*AppliedOffer, error) {
	code := utils.NormalizeOfferCode(check.Code)
	if code == "" {
		return nil, offerError(CodeOfferNotFound, "offer code is empty")
	}

	var offer models.Offer
	err := v.db.WithContext(ctx).Where("salon_id = ? AND code = ?", check.SalonID, code).First(&offer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, offerError(CodeOfferNotFound, "offer %s not found", code)
		}
		return nil, internalError(err, "load offer")
	}

	if err := CheckOffer(&offer, check.Consumed, check.AppointmentDate, v.clock(), v.loc); err != nil {
		return nil, err
	}
	return &AppliedOffer{
		OfferID:            offer.ID,
		Code:               offer.Code,
		DiscountPercentage: offer.DiscountPercentage,
		CashbackPercentage: offer.CashbackPercentage,
	}, nil
}

// CheckOffer applies the eligibility rules to a loaded offer in order: date window,
// single use, weekday, then data integrity. Dates compare as calendar days in loc.
func CheckOffer(offer *models.Offer, consumed []uuid.UUID, appointmentDate *time.Time, now time.Time, loc *time.Location) error {
	checkDay := dayKey(now, loc)
	if appointmentDate != nil {
		checkDay = dayKey(*appointmentDate, loc)
	}
	if dayKey(offer.EndDate, loc) < checkDay {
		return offerError(CodeOfferExpired, "offer %s expired on %s", offer.Code, dayKey(offer.EndDate, loc))
	}
	if checkDay < dayKey(offer.StartDate, loc) {
		return offerError(CodeOfferNotStarted, "offer %s starts on %s", offer.Code, dayKey(offer.StartDate, loc))
	}

	for _, id := range consumed {
		if id == offer.ID {
			return offerError(CodeOfferAlreadyUsed, "offer %s has already been used", offer.Code)
		}
	}

	if len(offer.EligibleDays) > 0 {
		if appointmentDate == nil {
			return offerError(CodeOfferDateRequired, "offer %s is limited to %s; an appointment date is required",
				offer.Code, strings.Join(offer.EligibleDays, ", "))
		}
		weekday := utils.WeekdayName(appointmentDate.In(loc))
		if !containsFold(offer.EligibleDays, weekday) {
			return offerError(CodeOfferInvalidDay, "offer %s is not valid on %s", offer.Code, weekday)
		}
	}

	if !offer.DiscountPercentage.IsPositive() && !offer.CashbackPercentage.IsPositive() {
		return offerError(CodeOfferInvalidData, "offer %s has neither discount nor cashback", offer.Code)
	}
	return nil
}

func dayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(utils.DateLayout)
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(strings.TrimSpace(v), s) {
			return true
		}
	}
	return false
}
