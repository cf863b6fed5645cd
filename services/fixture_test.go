package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"salonpro-booking/config"
	"salonpro-booking/models"
)

// Monday 10 June 2024, 08:00 UTC.
var fixedNow = time.Date(2024, time.June, 10, 8, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

type fixture struct {
	db       *gorm.DB
	owner    models.User
	user     models.User
	salon    models.Salon
	customer models.Customer
	artist   models.Artist
	haircut  models.Service // 250, 30 min
	color    models.Service // 150, 30 min
	facial   models.Service // 500, 45 min, option Gold 700
	gold     models.ServiceOption
}

func newFixture(t *testing.T, walletBalance string) *fixture {
	t.Helper()
	db := newTestDB(t)
	f := &fixture{db: db}

	f.owner = models.User{Name: "Priya", Phone: "+919800000001", Role: models.RoleOwner, IsActive: true}
	require.NoError(t, db.Create(&f.owner).Error)
	f.user = models.User{Name: "Asha", Phone: "+919800000002", Role: models.RoleCustomer, IsActive: true}
	require.NoError(t, db.Create(&f.user).Error)

	f.salon = models.Salon{OwnerUserID: f.owner.ID, Name: "Glow Studio", WorkingHours: models.JSONB{}}
	require.NoError(t, db.Omit("Owner").Create(&f.salon).Error)

	f.customer = models.Customer{SalonID: f.salon.ID, UserID: f.user.ID, Name: "Asha", Phone: f.user.Phone, IsActive: true}
	require.NoError(t, db.Omit("User").Create(&f.customer).Error)

	require.NoError(t, db.Create(&models.Wallet{UserID: f.user.ID, Balance: money(walletBalance)}).Error)

	f.artist = models.Artist{SalonID: f.salon.ID, Name: "Meera", IsActive: true}
	require.NoError(t, db.Create(&f.artist).Error)

	f.haircut = f.addService(t, "Haircut", "250", 30)
	f.color = f.addService(t, "Color", "150", 30)
	f.facial = models.Service{
		SalonID: f.salon.ID, Name: "Facial", Price: money("500"), Duration: 45, IsActive: true,
		Options: []models.ServiceOption{{Name: "Gold", Price: money("700")}},
	}
	require.NoError(t, db.Create(&f.facial).Error)
	f.gold = f.facial.Options[0]
	return f
}

func (f *fixture) addService(t *testing.T, name, price string, duration int) models.Service {
	t.Helper()
	s := models.Service{SalonID: f.salon.ID, Name: name, Price: money(price), Duration: duration, IsActive: true}
	require.NoError(t, f.db.Create(&s).Error)
	return s
}

func (f *fixture) addOffer(t *testing.T, code, discount, cashback string, days ...string) models.Offer {
	t.Helper()
	o := models.Offer{
		SalonID:            f.salon.ID,
		Code:               code,
		StartDate:          fixedNow.AddDate(0, 0, -10),
		EndDate:            fixedNow.AddDate(0, 0, 30),
		DiscountPercentage: money(discount),
		CashbackPercentage: money(cashback),
		EligibleDays:       days,
	}
	require.NoError(t, f.db.Create(&o).Error)
	return o
}

func (f *fixture) composer(pricing config.Pricing) *CostComposer {
	return NewCostComposer(f.db, NewCatalogResolver(f.db), NewOfferValidator(f.db, fixedClock, time.UTC), pricing, nil)
}

func (f *fixture) booking(pricing config.Pricing, events EventPublisher) *BookingService {
	return NewBookingService(BookingDeps{
		DB:       f.db,
		Composer: f.composer(pricing),
		Events:   events,
		Pricing:  pricing,
		Clock:    fixedClock,
		Location: time.UTC,
	})
}

func (f *fixture) balance(t *testing.T) decimal.Decimal {
	t.Helper()
	b, err := NewWalletLedger(f.db).GetBalance(context.Background(), f.user.ID)
	require.NoError(t, err)
	return b
}

func (f *fixture) items(services ...models.Service) []LineItemRequest {
	out := make([]LineItemRequest, 0, len(services))
	for _, s := range services {
		out = append(out, LineItemRequest{ServiceID: s.ID})
	}
	return out
}

func pricingWithFee(fee string) config.Pricing {
	p := config.DefaultPricing()
	p.PlatformFee = money(fee)
	return p
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertMoney(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.Truef(t, money(want).Equal(got), "%s: want %s, got %s", field, want, got.String())
}

func requireCode(t *testing.T, err error, code ErrorCode) {
	t.Helper()
	require.Error(t, err)
	be := AsBookingError(err)
	require.Equalf(t, code, be.Code, "unexpected error: %v", err)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingPublisher) Publish(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingPublisher) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func uuidPtr(id uuid.UUID) *uuid.UUID { return &id }
