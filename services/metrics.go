package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("salonpro-booking/services")

// Metrics holds the booking core counters. A nil *Metrics records nothing.
type Metrics struct {
	quotes      *prometheus.CounterVec
	bookings    *prometheus.CounterVec
	offerErrors *prometheus.CounterVec
	transitions *prometheus.CounterVec
	payable     prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		quotes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "salon_quotes_total",
			Help: "Price quotes by outcome.",
		}, []string{"outcome"}),
		bookings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "salon_bookings_total",
			Help: "Booking attempts by outcome code.",
		}, []string{"outcome"}),
		offerErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "salon_offer_errors_total",
			Help: "Rejected offer validations by code.",
		}, []string{"code"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "salon_appointment_transitions_total",
			Help: "Appointment status transitions by target status.",
		}, []string{"status"}),
		payable: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "salon_payable_amount",
			Help:    "Final payable amount of created appointments.",
			Buckets: []float64{0, 100, 250, 500, 1000, 2500, 5000, 10000},
		}),
	}
	reg.MustRegister(m.quotes, m.bookings, m.offerErrors, m.transitions, m.payable)
	return m
}

func (m *Metrics) quote(outcome string) {
	if m != nil {
		m.quotes.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) booking(outcome string) {
	if m != nil {
		m.bookings.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) offerError(code ErrorCode) {
	if m != nil {
		m.offerErrors.WithLabelValues(string(code)).Inc()
	}
}

func (m *Metrics) transition(status string) {
	if m != nil {
		m.transitions.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) observePayable(amount decimal.Decimal) {
	if m != nil {
		m.payable.Observe(amount.InexactFloat64())
	}
}
