package services

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salonpro-booking/models"
)

type collectingNotifier struct {
	mu     sync.Mutex
	events []Event
}

func (c *collectingNotifier) Name() string { return "collect" }

func (c *collectingNotifier) Notify(_ context.Context, e Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
	return nil
}

func (c *collectingNotifier) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

type panickingNotifier struct{}

func (panickingNotifier) Name() string { return "panic" }

func (panickingNotifier) Notify(context.Context, Event) error { panic("boom") }

func TestEventDispatcher_DeliversToEveryNotifier(t *testing.T) {
	first, second := &collectingNotifier{}, &collectingNotifier{}
	d := NewEventDispatcher(8, panickingNotifier{}, first, second)
	d.Start(2)

	for i := 0; i < 3; i++ {
		d.Publish(Event{Type: EventAppointmentCreated, AppointmentID: uuid.New()})
	}
	d.Close()

	assert.Equal(t, 3, first.count())
	assert.Equal(t, 3, second.count())
}

func TestEventDispatcher_DropsWhenFull(t *testing.T) {
	n := &collectingNotifier{}
	d := NewEventDispatcher(1, n)

	d.Publish(Event{Type: EventAppointmentCreated})
	d.Publish(Event{Type: EventAppointmentCancelled})

	d.Start(1)
	d.Close()
	require.Equal(t, 1, n.count())
	assert.Equal(t, EventAppointmentCreated, n.events[0].Type)

	assert.NotPanics(t, d.Close, "close is idempotent")
}

func TestNewEvent(t *testing.T) {
	ist := time.FixedZone("IST", 5*60*60+30*60)
	appt := &models.Appointment{
		ID:          uuid.New(),
		Date:        "2024-06-16",
		StartMinute: 14*60 + 30,
		EndMinute:   15 * 60,
		Status:      models.StatusBooked,
		BillingDetails: models.BillingDetails{
			FinalPayableAmount: decimal.RequireFromString("480"),
		},
		Customer: models.Customer{Name: "Asha", Phone: "+919800000002"},
		Salon:    models.Salon{Name: "Glow Studio", Owner: models.User{Name: "Priya", Phone: "+919800000001"}},
	}

	e := newEvent(EventAppointmentCreated, appt, ist, fixedNow)
	assert.Equal(t, "Sun, 16 Jun 2024", e.Date)
	assert.Equal(t, "2:30 PM - 3:00 PM", e.Time)
	assert.Equal(t, "Glow Studio", e.SalonName)
	assert.Equal(t, "Priya", e.OwnerName)
	assert.Equal(t, "+919800000002", e.CustomerPhone)
	assert.Equal(t, "Booked", e.Status)
	assert.Equal(t, fixedNow, e.OccurredAt)

	appt.Date = "not-a-date"
	assert.Equal(t, "not-a-date", newEvent(EventAppointmentCreated, appt, ist, fixedNow).Date)
}

func TestMessageFor(t *testing.T) {
	base := Event{
		CustomerName:       "Asha",
		SalonName:          "Glow Studio",
		Date:               "Mon, 17 Jun 2024",
		Time:               "10:00 AM - 11:00 AM",
		Status:             "Confirmed",
		FinalPayableAmount: decimal.RequireFromString("208"),
	}
	tests := []struct {
		kind EventType
		want string
	}{
		{EventAppointmentCreated, "Hi Asha, your appointment at Glow Studio on Mon, 17 Jun 2024, 10:00 AM - 11:00 AM is booked. Amount payable: 208.00."},
		{EventAppointmentCancelled, "Hi Asha, your appointment at Glow Studio on Mon, 17 Jun 2024, 10:00 AM - 11:00 AM has been cancelled."},
		{EventAppointmentRescheduled, "Hi Asha, your appointment at Glow Studio has been moved to Mon, 17 Jun 2024, 10:00 AM - 11:00 AM."},
		{EventAppointmentReminder, "Reminder: Asha, you have an appointment at Glow Studio on Mon, 17 Jun 2024, 10:00 AM - 11:00 AM."},
		{EventAppointmentStatusChanged, "Hi Asha, your appointment at Glow Studio on Mon, 17 Jun 2024, 10:00 AM - 11:00 AM is now confirmed."},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			e := base
			e.Type = tt.kind
			assert.Equal(t, tt.want, messageFor(e))
		})
	}
}

func TestSafeNotify_PanicBecomesError(t *testing.T) {
	err := safeNotify(context.Background(), panickingNotifier{}, Event{Type: EventAppointmentCreated})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notifier panicked: boom")

	assert.NoError(t, safeNotify(context.Background(), &collectingNotifier{}, Event{}))
}

func TestEventDispatcher_LogsPanickingNotifierAsFailure(t *testing.T) {
	var buf bytes.Buffer
	previous := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = previous })

	d := NewEventDispatcher(1, panickingNotifier{})
	d.deliver(Event{Type: EventAppointmentCancelled, AppointmentID: uuid.New()})

	out := buf.String()
	assert.Contains(t, out, `"notifier":"panic"`)
	assert.Contains(t, out, "notification failed")
	assert.Contains(t, out, "notifier panicked: boom")
}
