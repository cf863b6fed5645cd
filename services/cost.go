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

	"salonpro-booking/config"
	"salonpro-booking/models"
)

var hundred = decimal.NewFromInt(100)

// CostRequest identifies one composition. AppointmentDate is optional.
type CostRequest struct {
	CustomerID      uuid.UUID
	SalonID         uuid.UUID
	Services        []LineItemRequest
	OfferCode       string
	AppointmentDate *time.Time
}

// CostBreakdown carries every intermediate figure of a composition for display and audit.
type CostBreakdown struct {
	Items              []LineItem      `json:"items"`
	TotalDuration      int             `json:"totalDuration"`
	TotalServiceCost   decimal.Decimal `json:"totalServiceCost"`
	WalletBalance      decimal.Decimal `json:"walletBalance"`
	WalletSavingsUsed  decimal.Decimal `json:"walletSavingsUsed"`
	CostAfterWallet    decimal.Decimal `json:"costAfterWallet"`
	PlatformFee        decimal.Decimal `json:"platformFee"`
	BillBeforeDiscount decimal.Decimal `json:"billBeforeDiscount"`
	DiscountAmount     decimal.Decimal `json:"discountAmount"`
	GST                decimal.Decimal `json:"gst"`
	FinalPayableAmount decimal.Decimal `json:"finalPayableAmount"`
	CashbackAmount     decimal.Decimal `json:"cashbackAmount"`
	Offer              *AppliedOffer   `json:"offer"`

	customer *models.Customer
}

// Billing freezes the breakdown into the appointment snapshot.
func (b *CostBreakdown) Billing() models.BillingDetails {
	return models.BillingDetails{
		TotalServiceCost:    b.TotalServiceCost,
		WalletSavingsUsed:   b.WalletSavingsUsed,
		PlatformFee:         b.PlatformFee,
		BillBeforeDiscount:  b.BillBeforeDiscount,
		DiscountAmount:      b.DiscountAmount,
		GST:                 b.GST,
		FinalPayableAmount:  b.FinalPayableAmount,
		OfferCashbackEarned: b.CashbackAmount,
	}
}

// Quote is a price preview. OfferWarning is set when the requested offer was dropped.
type Quote struct {
	*CostBreakdown
	OfferWarning *BookingError `json:"offerWarning,omitempty"`
}

// CostComposer turns a request into a payable amount. The step order is fixed:
// line items, wallet, platform fee, discount, floor at zero, GST, cashback.
type CostComposer struct {
	db      *gorm.DB
	catalog *CatalogResolver
	offers  *OfferValidator
	pricing config.Pricing
	metrics *Metrics
}

func NewCostComposer(db *gorm.DB, catalog *CatalogResolver, offers *OfferValidator, pricing config.Pricing, metrics *Metrics) *CostComposer {
	return &CostComposer{db: db, catalog: catalog, offers: offers, pricing: pricing, metrics: metrics}
}

// WithTx binds the composer and its collaborators to a transaction.
func (c *CostComposer) WithTx(tx *gorm.DB) *CostComposer {
	return &CostComposer{
		db:      tx,
		catalog: c.catalog.WithTx(tx),
		offers:  c.offers.WithTx(tx),
		pricing: c.pricing,
		metrics: c.metrics,
	}
}

// Compose runs the pipeline in commit semantics: any failure, offer failures included,
// is returned as a *BookingError.
func (c *CostComposer) Compose(ctx context.Context, req CostRequest) (breakdown *CostBreakdown, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("cost composition panicked")
			breakdown = nil
			err = internalError(fmt.Errorf("%v", r), "cost composition failed")
		}
	}()
	breakdown, err = c.compose(ctx, req)
	if err != nil {
		be := AsBookingError(err)
		if be.IsOfferError() {
			c.metrics.offerError(be.Code)
		}
		return nil, be
	}
	return breakdown, nil
}

// Quote composes a preview. When the offer is rejected it recomputes without it and
// reports the rejection as a warning.
func (c *CostComposer) Quote(ctx context.Context, req CostRequest) (*Quote, error) {
	ctx, span := tracer.Start(ctx, "CostComposer.Quote")
	defer span.End()
	span.SetAttributes(
		attribute.String("salon.id", req.SalonID.String()),
		attribute.String("customer.id", req.CustomerID.String()),
		attribute.Bool("offer.requested", req.OfferCode != ""),
	)

	breakdown, err := c.Compose(ctx, req)
	if err == nil {
		c.metrics.quote("ok")
		return &Quote{CostBreakdown: breakdown}, nil
	}

	be := AsBookingError(err)
	if !be.IsOfferError() {
		c.metrics.quote("error")
		span.RecordError(be)
		return nil, be
	}

	log.Warn().
		Str("customer_id", req.CustomerID.String()).
		Str("offer_code", req.OfferCode).
		Str("code", string(be.Code)).
		Msg("offer rejected, quoting without it")

	retry := req
	retry.OfferCode = ""
	breakdown, err = c.Compose(ctx, retry)
	if err != nil {
		c.metrics.quote("error")
		span.RecordError(err)
		return nil, err
	}
	c.metrics.quote("offer_dropped")
	return &Quote{CostBreakdown: breakdown, OfferWarning: be}, nil
}

func (c *CostComposer) compose(ctx context.Context, req CostRequest) (*CostBreakdown, error) {
	if len(req.Services) == 0 {
		return nil, newError(CodeServicesRequired, "at least one service is required")
	}

	var customer models.Customer
	err := c.db.WithContext(ctx).Preload("Redemptions").
		Where("id = ? AND salon_id = ?", req.CustomerID, req.SalonID).
		First(&customer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(CodeCustomerNotFound, "customer %s not found", req.CustomerID)
		}
		return nil, internalError(err, "load customer")
	}

	balance, err := NewWalletLedger(c.db).GetBalance(ctx, customer.UserID)
	if err != nil {
		return nil, err
	}
	if balance.IsNegative() {
		balance = decimal.Zero
	}

	resolved, err := c.catalog.Resolve(ctx, req.SalonID, req.Services)
	if err != nil {
		return nil, err
	}

	b := &CostBreakdown{
		Items:            resolved.Items,
		TotalDuration:    resolved.TotalDuration,
		TotalServiceCost: resolved.TotalServiceCost,
		WalletBalance:    balance,
		PlatformFee:      c.pricing.PlatformFee,
		DiscountAmount:   decimal.Zero,
		GST:              decimal.Zero,
		CashbackAmount:   decimal.Zero,
		customer:         &customer,
	}

	b.WalletSavingsUsed = decimal.Min(b.TotalServiceCost, balance)
	b.CostAfterWallet = b.TotalServiceCost.Sub(b.WalletSavingsUsed)
	b.BillBeforeDiscount = b.CostAfterWallet.Add(b.PlatformFee)

	if req.OfferCode != "" {
		offer, err := c.offers.Validate(ctx, OfferCheck{
			Code:            req.OfferCode,
			SalonID:         req.SalonID,
			Consumed:        customer.ConsumedOfferIDs(),
			AppointmentDate: req.AppointmentDate,
		})
		if err != nil {
			return nil, err
		}
		b.Offer = offer
		discount := round2(b.BillBeforeDiscount.Mul(offer.DiscountPercentage).Div(hundred))
		b.DiscountAmount = decimal.Min(discount, b.BillBeforeDiscount)
	}

	finalBeforeTax := decimal.Max(decimal.Zero, b.BillBeforeDiscount.Sub(b.DiscountAmount))
	if c.pricing.GSTEnabled {
		b.GST = round2(finalBeforeTax.Mul(c.pricing.GSTRate).Div(hundred))
	}
	b.FinalPayableAmount = finalBeforeTax.Add(b.GST)

	if b.Offer != nil && b.Offer.CashbackPercentage.IsPositive() {
		b.CashbackAmount = round2(b.FinalPayableAmount.Mul(b.Offer.CashbackPercentage).Div(hundred))
	}
	return b, nil
}

// round2 rounds half away from zero to two decimal places.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
