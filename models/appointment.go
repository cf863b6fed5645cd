package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type AppointmentStatus string

const (
	StatusBooked    AppointmentStatus = "Booked"
	StatusConfirmed AppointmentStatus = "Confirmed"
	StatusRejected  AppointmentStatus = "Rejected"
	StatusCompleted AppointmentStatus = "Completed"
	StatusCancelled AppointmentStatus = "Cancelled"
)

// LiveStatuses hold a slot on the artist calendar.
var LiveStatuses = []AppointmentStatus{StatusBooked, StatusConfirmed}

func (s AppointmentStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusRejected || s == StatusCancelled
}

func (s AppointmentStatus) IsLive() bool {
	return s == StatusBooked || s == StatusConfirmed
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "Pending"
	PaymentPaid    PaymentStatus = "Paid"
	PaymentFailed  PaymentStatus = "Failed"
)

// BillingDetails is frozen at creation and is the audit record of what was charged.
type BillingDetails struct {
	TotalServiceCost    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"totalServiceCost"`
	WalletSavingsUsed   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"walletSavingsUsed"`
	PlatformFee         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"platformFee"`
	BillBeforeDiscount  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"billBeforeDiscount"`
	DiscountAmount      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"discountAmount"`
	GST                 decimal.Decimal `gorm:"column:gst;type:decimal(10,2);not null" json:"gst"`
	FinalPayableAmount  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"finalPayableAmount"`
	OfferCashbackEarned decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"offerCashbackEarned"`
}

type Appointment struct {
	ID         uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	SalonID    uuid.UUID  `gorm:"type:uuid;index;not null" json:"salonId"`
	CustomerID uuid.UUID  `gorm:"type:uuid;index;not null" json:"customerId"`
	ArtistID   *uuid.UUID `gorm:"type:uuid;index:idx_appointment_artist_date,priority:1" json:"artistId,omitempty"`

	// Date is YYYY-MM-DD in the salon timezone.
	Date        string `gorm:"type:varchar(10);not null;index:idx_appointment_artist_date,priority:2" json:"date"`
	StartTime   string `gorm:"type:varchar(5);not null" json:"startTime"`
	EndTime     string `gorm:"type:varchar(5);not null" json:"endTime"`
	StartMinute int    `gorm:"not null" json:"-"`
	EndMinute   int    `gorm:"not null" json:"-"`
	Duration    int    `gorm:"not null" json:"duration"`

	Status         AppointmentStatus `gorm:"type:varchar(20);index;not null" json:"status"`
	BillingDetails BillingDetails    `gorm:"embedded;embeddedPrefix:billing_" json:"billingDetails"`
	AppliedOfferID *uuid.UUID        `gorm:"type:uuid" json:"appliedOfferId,omitempty"`
	// CashbackCredited guards against crediting the same cashback twice.
	CashbackCredited bool `gorm:"default:false" json:"cashbackCredited"`

	PaymentStatus PaymentStatus    `gorm:"type:varchar(20);not null" json:"paymentStatus"`
	PaidAmount    *decimal.Decimal `gorm:"type:decimal(10,2)" json:"paidAmount,omitempty"`
	PaidAt        *time.Time       `json:"paidAt,omitempty"`

	Notes       string     `json:"notes,omitempty"`
	CancelledAt *time.Time `json:"cancelledAt,omitempty"`

	Services []AppointmentService `gorm:"foreignKey:AppointmentID" json:"services"`
	Customer Customer             `gorm:"foreignKey:CustomerID" json:"-"`
	Salon    Salon                `gorm:"foreignKey:SalonID" json:"-"`
	Artist   *Artist              `gorm:"foreignKey:ArtistID" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (a *Appointment) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return
}

// AppointmentService is one priced line item with its cost frozen at booking time.
type AppointmentService struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	AppointmentID    uuid.UUID       `gorm:"type:uuid;index;not null" json:"-"`
	Position         int             `gorm:"not null" json:"position"`
	ServiceID        uuid.UUID       `gorm:"type:uuid;index;not null" json:"serviceId"`
	ServiceName      string          `gorm:"not null" json:"serviceName"`
	SelectedOptionID *uuid.UUID      `gorm:"type:uuid" json:"selectedOptionId,omitempty"`
	OptionName       string          `json:"optionName,omitempty"`
	Duration         int             `json:"duration"`
	CalculatedCost   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"calculatedCost"`
}

func (s *AppointmentService) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return
}
