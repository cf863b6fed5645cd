package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"salonpro-booking/models"
	"salonpro-booking/utils"
)

type OfferInput struct {
	Code               string          `json:"code" binding:"required"`
	Description        string          `json:"description"`
	StartDate          string          `json:"startDate" binding:"required"`
	EndDate            string          `json:"endDate" binding:"required"`
	DiscountPercentage decimal.Decimal `json:"discountPercentage"`
	CashbackPercentage decimal.Decimal `json:"cashbackPercentage"`
	EligibleDays       []string        `json:"eligibleDays"`
}

// OfferAdmin creates, lists and removes offers. Offers are never edited once created.
type OfferAdmin struct {
	db  *gorm.DB
	loc *time.Location
}

func NewOfferAdmin(db *gorm.DB, loc *time.Location) *OfferAdmin {
	if loc == nil {
		loc = time.UTC
	}
	return &OfferAdmin{db: db, loc: loc}
}

func (a *OfferAdmin) Create(ctx context.Context, salonID, createdBy uuid.UUID, in OfferInput) (*models.Offer, error) {
	offer, err := a.buildOffer(in)
	if err != nil {
		return nil, err
	}
	offer.SalonID = salonID
	offer.CreatedByUserID = createdBy

	err = a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Unscoped().Model(&models.Offer{}).
			Where("salon_id = ? AND code = ?", salonID, offer.Code).
			Count(&n).Error; err != nil {
			return internalError(err, "check offer code")
		}
		if n > 0 {
			return newError(CodeOfferCodeTaken, "offer code %s is already in use", offer.Code)
		}
		if err := tx.Create(offer).Error; err != nil {
			return internalError(err, "create offer")
		}
		return nil
	})
	if err != nil {
		return nil, AsBookingError(err)
	}
	log.Info().Str("offer_id", offer.ID.String()).Str("code", offer.Code).Str("salon_id", salonID.String()).Msg("offer created")
	return offer, nil
}

func (a *OfferAdmin) buildOffer(in OfferInput) (*models.Offer, error) {
	code := utils.NormalizeOfferCode(in.Code)
	if code == "" {
		return nil, newError(CodeInvalidOffer, "offer code is required")
	}
	start, err := utils.ParseDate(in.StartDate, a.loc)
	if err != nil {
		return nil, newError(CodeInvalidOffer, "invalid start date %q", in.StartDate)
	}
	end, err := utils.ParseDate(in.EndDate, a.loc)
	if err != nil {
		return nil, newError(CodeInvalidOffer, "invalid end date %q", in.EndDate)
	}
	if end.Before(start) {
		return nil, newError(CodeInvalidOffer, "end date is before start date")
	}

	if err := validPercentage("discount", in.DiscountPercentage); err != nil {
		return nil, err
	}
	if err := validPercentage("cashback", in.CashbackPercentage); err != nil {
		return nil, err
	}
	if !in.DiscountPercentage.IsPositive() && !in.CashbackPercentage.IsPositive() {
		return nil, newError(CodeInvalidOffer, "an offer needs a discount or a cashback percentage")
	}

	days := make(models.StringList, 0, len(in.EligibleDays))
	seen := map[string]bool{}
	for _, d := range in.EligibleDays {
		name, ok := utils.NormalizeWeekday(d)
		if !ok {
			return nil, newError(CodeInvalidOffer, "unknown weekday %q", d)
		}
		if !seen[name] {
			seen[name] = true
			days = append(days, name)
		}
	}

	return &models.Offer{
		Code:               code,
		Description:        strings.TrimSpace(in.Description),
		StartDate:          start,
		EndDate:            end,
		DiscountPercentage: in.DiscountPercentage,
		CashbackPercentage: in.CashbackPercentage,
		EligibleDays:       days,
	}, nil
}

func validPercentage(name string, p decimal.Decimal) error {
	if p.IsNegative() || p.GreaterThan(hundred) {
		return newError(CodeInvalidOffer, "%s percentage must be between 0 and 100", name)
	}
	return nil
}

func (a *OfferAdmin) List(ctx context.Context, salonID uuid.UUID) ([]models.Offer, error) {
	var offers []models.Offer
	if err := a.db.WithContext(ctx).Where("salon_id = ?", salonID).Order("created_at DESC").Find(&offers).Error; err != nil {
		return nil, internalError(err, "list offers")
	}
	return offers, nil
}

func (a *OfferAdmin) Get(ctx context.Context, salonID, id uuid.UUID) (*models.Offer, error) {
	var offer models.Offer
	if err := a.db.WithContext(ctx).Where("salon_id = ? AND id = ?", salonID, id).First(&offer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(CodeOfferNotFound, "offer %s not found", id)
		}
		return nil, internalError(err, "load offer")
	}
	return &offer, nil
}

// Delete soft-deletes the offer. Existing redemptions and appointments keep pointing at it.
func (a *OfferAdmin) Delete(ctx context.Context, salonID, id uuid.UUID) error {
	res := a.db.WithContext(ctx).Where("salon_id = ? AND id = ?", salonID, id).Delete(&models.Offer{})
	if res.Error != nil {
		return internalError(res.Error, "delete offer")
	}
	if res.RowsAffected == 0 {
		return newError(CodeOfferNotFound, "offer %s not found", id)
	}
	log.Info().Str("offer_id", id.String()).Msg("offer deleted")
	return nil
}
