package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salonpro-booking/models"
)

func TestCostComposer_WalletFeeAndDiscount(t *testing.T) {
	f := newFixture(t, "150")
	f.addOffer(t, "SAVE20", "20", "0")
	c := f.composer(pricingWithFee("10"))

	b, err := c.Compose(context.Background(), CostRequest{
		CustomerID: f.customer.ID,
		SalonID:    f.salon.ID,
		Services:   f.items(f.haircut, f.color),
		OfferCode:  "SAVE20",
	})
	require.NoError(t, err)

	assertMoney(t, "400", b.TotalServiceCost, "totalServiceCost")
	assertMoney(t, "150", b.WalletSavingsUsed, "walletSavingsUsed")
	assertMoney(t, "250", b.CostAfterWallet, "costAfterWallet")
	assertMoney(t, "260", b.BillBeforeDiscount, "billBeforeDiscount")
	assertMoney(t, "52", b.DiscountAmount, "discountAmount")
	assertMoney(t, "0", b.GST, "gst")
	assertMoney(t, "208", b.FinalPayableAmount, "finalPayableAmount")
	assertMoney(t, "0", b.CashbackAmount, "cashbackAmount")
	require.NotNil(t, b.Offer)
	assert.Equal(t, "SAVE20", b.Offer.Code)
}

func TestCostComposer_UsedOfferQuoteFallsBack(t *testing.T) {
	f := newFixture(t, "150")
	offer := f.addOffer(t, "SAVE20", "20", "0")
	require.NoError(t, f.db.Create(&models.OfferRedemption{
		CustomerID:    f.customer.ID,
		OfferID:       offer.ID,
		AppointmentID: uuid.New(),
		RedeemedAt:    fixedNow,
	}).Error)
	c := f.composer(pricingWithFee("10"))
	req := CostRequest{
		CustomerID: f.customer.ID,
		SalonID:    f.salon.ID,
		Services:   f.items(f.haircut, f.color),
		OfferCode:  "SAVE20",
	}

	_, err := c.Compose(context.Background(), req)
	requireCode(t, err, CodeOfferAlreadyUsed)
	assert.True(t, AsBookingError(err).IsOfferError())

	q, err := c.Quote(context.Background(), req)
	require.NoError(t, err)
	assertMoney(t, "260", q.FinalPayableAmount, "finalPayableAmount")
	assertMoney(t, "0", q.DiscountAmount, "discountAmount")
	assert.Nil(t, q.Offer)
	require.NotNil(t, q.OfferWarning)
	assert.Equal(t, CodeOfferAlreadyUsed, q.OfferWarning.Code)
	assert.True(t, q.OfferWarning.IsOfferError())
}

func TestCostComposer_QuoteDoesNotSwallowOtherErrors(t *testing.T) {
	f := newFixture(t, "0")
	c := f.composer(pricingWithFee("0"))

	_, err := c.Quote(context.Background(), CostRequest{
		CustomerID: f.customer.ID,
		SalonID:    f.salon.ID,
		Services:   []LineItemRequest{{ServiceID: uuid.New()}},
		OfferCode:  "WHATEVER",
	})
	requireCode(t, err, CodeServiceNotFound)
}

func TestCostComposer_Properties(t *testing.T) {
	tests := []struct {
		name      string
		wallet    string
		fee       string
		discount  string
		cashback  string
		services  func(f *fixture) []LineItemRequest
		wantUsed  string
		wantFinal string
		wantCash  string
	}{
		{
			name:      "empty wallet",
			wallet:    "0",
			fee:       "10",
			services:  func(f *fixture) []LineItemRequest { return f.items(f.haircut) },
			wantUsed:  "0",
			wantFinal: "260",
			wantCash:  "0",
		},
		{
			name:      "wallet larger than bill leaves only the fee",
			wallet:    "1000",
			fee:       "10",
			services:  func(f *fixture) []LineItemRequest { return f.items(f.haircut, f.color) },
			wantUsed:  "400",
			wantFinal: "10",
			wantCash:  "0",
		},
		{
			name:      "full discount floors at zero",
			wallet:    "0",
			fee:       "0",
			discount:  "100",
			services:  func(f *fixture) []LineItemRequest { return f.items(f.color) },
			wantUsed:  "0",
			wantFinal: "0",
			wantCash:  "0",
		},
		{
			name:      "cashback on final amount",
			wallet:    "50",
			fee:       "0",
			discount:  "10",
			cashback:  "5",
			services:  func(f *fixture) []LineItemRequest { return f.items(f.haircut) },
			wantUsed:  "50",
			wantFinal: "180",
			wantCash:  "9",
		},
		{
			name:      "discount rounds half away from zero",
			wallet:    "0",
			fee:       "0.5",
			discount:  "15",
			services:  func(f *fixture) []LineItemRequest { return f.items(f.color) },
			wantUsed:  "0",
			wantFinal: "127.92",
			wantCash:  "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.wallet)
			req := CostRequest{CustomerID: f.customer.ID, SalonID: f.salon.ID, Services: tt.services(f)}
			if tt.discount != "" || tt.cashback != "" {
				f.addOffer(t, "PROMO", orZero(tt.discount), orZero(tt.cashback))
				req.OfferCode = "promo"
			}
			b, err := f.composer(pricingWithFee(tt.fee)).Compose(context.Background(), req)
			require.NoError(t, err)

			assertMoney(t, tt.wantUsed, b.WalletSavingsUsed, "walletSavingsUsed")
			assertMoney(t, tt.wantFinal, b.FinalPayableAmount, "finalPayableAmount")
			assertMoney(t, tt.wantCash, b.CashbackAmount, "cashbackAmount")
			assert.False(t, b.FinalPayableAmount.IsNegative())

			identity := b.TotalServiceCost.Sub(b.WalletSavingsUsed).Add(b.PlatformFee).Sub(b.DiscountAmount)
			if identity.IsNegative() {
				identity = money("0")
			}
			assert.True(t, identity.Equal(b.FinalPayableAmount), "final %s != identity %s", b.FinalPayableAmount, identity)
		})
	}
}

func TestCostComposer_GST(t *testing.T) {
	f := newFixture(t, "0")
	f.addOffer(t, "SAVE20", "20", "10")
	pricing := pricingWithFee("0")
	pricing.GSTEnabled = true
	pricing.GSTRate = money("18")

	b, err := f.composer(pricing).Compose(context.Background(), CostRequest{
		CustomerID: f.customer.ID,
		SalonID:    f.salon.ID,
		Services:   f.items(f.haircut),
		OfferCode:  "SAVE20",
	})
	require.NoError(t, err)
	assertMoney(t, "50", b.DiscountAmount, "discount")
	assertMoney(t, "36", b.GST, "gst")
	assertMoney(t, "236", b.FinalPayableAmount, "final")
	assertMoney(t, "23.6", b.CashbackAmount, "cashback")
}

func TestCostComposer_Errors(t *testing.T) {
	f := newFixture(t, "0")
	c := f.composer(pricingWithFee("0"))
	ctx := context.Background()

	_, err := c.Compose(ctx, CostRequest{CustomerID: f.customer.ID, SalonID: f.salon.ID})
	requireCode(t, err, CodeServicesRequired)

	_, err = c.Compose(ctx, CostRequest{CustomerID: uuid.New(), SalonID: f.salon.ID, Services: f.items(f.haircut)})
	requireCode(t, err, CodeCustomerNotFound)

	require.NoError(t, f.db.Where("user_id = ?", f.user.ID).Delete(&models.Wallet{}).Error)
	_, err = c.Compose(ctx, CostRequest{CustomerID: f.customer.ID, SalonID: f.salon.ID, Services: f.items(f.haircut)})
	requireCode(t, err, CodeWalletNotFound)
}

func TestCostComposer_WeekdayOfferNeedsDate(t *testing.T) {
	f := newFixture(t, "0")
	f.addOffer(t, "MONDAY10", "10", "0", "Monday")
	c := f.composer(pricingWithFee("0"))
	req := CostRequest{CustomerID: f.customer.ID, SalonID: f.salon.ID, Services: f.items(f.haircut), OfferCode: "MONDAY10"}

	_, err := c.Compose(context.Background(), req)
	requireCode(t, err, CodeOfferDateRequired)

	tuesday := time.Date(2024, time.June, 18, 0, 0, 0, 0, time.UTC)
	req.AppointmentDate = &tuesday
	_, err = c.Compose(context.Background(), req)
	requireCode(t, err, CodeOfferInvalidDay)

	monday := time.Date(2024, time.June, 17, 0, 0, 0, 0, time.UTC)
	req.AppointmentDate = &monday
	b, err := c.Compose(context.Background(), req)
	require.NoError(t, err)
	assertMoney(t, "25", b.DiscountAmount, "discount")
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}
