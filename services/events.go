package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"salonpro-booking/models"
	"salonpro-booking/utils"
)

type EventType string

const (
	EventAppointmentCreated       EventType = "AppointmentCreated"
	EventAppointmentCancelled     EventType = "AppointmentCancelled"
	EventAppointmentRescheduled   EventType = "AppointmentRescheduled"
	EventAppointmentStatusChanged EventType = "AppointmentStatusChanged"
	EventAppointmentReminder      EventType = "AppointmentReminder"
)

// Event is emitted after a transition commits. Dates and times are already human readable.
type Event struct {
	Type               EventType       `json:"type"`
	AppointmentID      uuid.UUID       `json:"appointmentId"`
	SalonID            uuid.UUID       `json:"salonId"`
	SalonName          string          `json:"salonName"`
	OwnerName          string          `json:"ownerName"`
	OwnerPhone         string          `json:"ownerPhone"`
	CustomerName       string          `json:"customerName"`
	CustomerPhone      string          `json:"customerPhone"`
	Date               string          `json:"date"`
	Time               string          `json:"time"`
	Status             string          `json:"status"`
	PreviousStatus     string          `json:"previousStatus,omitempty"`
	FinalPayableAmount decimal.Decimal `json:"finalPayableAmount"`
	OccurredAt         time.Time       `json:"occurredAt"`
}

// EventPublisher accepts events without blocking the caller.
type EventPublisher interface {
	Publish(Event)
}

// Notifier delivers one event to one channel.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, e Event) error
}

// newEvent builds an event from an appointment with Customer and Salon.Owner loaded.
func newEvent(kind EventType, a *models.Appointment, loc *time.Location, now time.Time) Event {
	e := Event{
		Type:               kind,
		AppointmentID:      a.ID,
		SalonID:            a.SalonID,
		SalonName:          a.Salon.Name,
		OwnerName:          a.Salon.Owner.Name,
		OwnerPhone:         a.Salon.Owner.Phone,
		CustomerName:       a.Customer.Name,
		CustomerPhone:      a.Customer.Phone,
		Date:               a.Date,
		Time:               utils.HumanClock(a.StartMinute) + " - " + utils.HumanClock(a.EndMinute),
		Status:             string(a.Status),
		FinalPayableAmount: a.BillingDetails.FinalPayableAmount,
		OccurredAt:         now,
	}
	if d, err := utils.ParseDate(a.Date, loc); err == nil {
		e.Date = utils.HumanDate(d)
	}
	return e
}

// EventDispatcher fans events out to notifiers on a background worker. Publish never
// blocks: when the queue is full the event is dropped and logged.
type EventDispatcher struct {
	notifiers []Notifier
	queue     chan Event
	timeout   time.Duration
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func NewEventDispatcher(size int, notifiers ...Notifier) *EventDispatcher {
	if size <= 0 {
		size = 256
	}
	return &EventDispatcher{
		notifiers: notifiers,
		queue:     make(chan Event, size),
		timeout:   10 * time.Second,
	}
}

func (d *EventDispatcher) Publish(e Event) {
	select {
	case d.queue <- e:
	default:
		log.Error().
			Str("event", string(e.Type)).
			Str("appointment_id", e.AppointmentID.String()).
			Msg("event queue full, dropping event")
	}
}

// Start runs n workers until Close is called.
func (d *EventDispatcher) Start(n int) {
	if n <= 0 {
		n = 1
	}
	for i := 0; i < n; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for e := range d.queue {
				d.deliver(e)
			}
		}()
	}
}

// Close stops accepting work and waits for queued events to drain.
func (d *EventDispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.queue)
	})
	d.wg.Wait()
}

func (d *EventDispatcher) deliver(e Event) {
	for _, n := range d.notifiers {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		err := safeNotify(ctx, n, e)
		cancel()
		if err != nil {
			log.Error().Err(err).
				Str("notifier", n.Name()).
				Str("event", string(e.Type)).
				Str("appointment_id", e.AppointmentID.String()).
				Msg("notification failed")
		}
	}
}

func safeNotify(ctx context.Context, n Notifier, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("notifier panicked: %v", r)
		}
	}()
	return n.Notify(ctx, e)
}

// LogNotifier writes every event to the structured log.
type LogNotifier struct{}

func (LogNotifier) Name() string { return "log" }

func (LogNotifier) Notify(_ context.Context, e Event) error {
	log.Info().
		Str("event", string(e.Type)).
		Str("appointment_id", e.AppointmentID.String()).
		Str("salon", e.SalonName).
		Str("customer", e.CustomerName).
		Str("date", e.Date).
		Str("time", e.Time).
		Str("status", e.Status).
		Msg("appointment event")
	return nil
}
